package sopref

import (
	"net/url"
	"strings"
)

// NavigateFunc opens a referenced file, optionally at a section.
type NavigateFunc func(path string, section *string)

// AttachNavigation registers a click interceptor on every reference link in
// doc and returns how many were attached. Segments without LinkClass are not
// touched.
func AttachNavigation(doc *Document, nav NavigateFunc) int {
	if doc == nil || nav == nil {
		return 0
	}
	n := 0
	for _, s := range doc.Segments {
		if s.Kind != LinkSpan || s.Class != LinkClass {
			continue
		}
		path := s.Attrs[AttrPath]
		var section *string
		if v, ok := s.Attrs[AttrSection]; ok {
			section = &v
		}
		s.setOnClick(func() {
			if path == "" {
				return
			}
			nav(path, section)
		})
		n++
	}
	return n
}

// Click simulates a user click. It reports whether an interceptor handled
// the click, which also means default link navigation was prevented.
func (s *Segment) Click() bool {
	s.mu.Lock()
	fn := s.onClick
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Interactive reports whether a click interceptor is attached.
func (s *Segment) Interactive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onClick != nil
}

func (s *Segment) setOnClick(fn func()) {
	s.mu.Lock()
	s.onClick = fn
	s.mu.Unlock()
}

// Navigator is the default navigation strategy: it builds a reference-viewer
// URL and hands it to Go.
type Navigator struct {
	// Route is the viewer route, e.g. "/library/sop".
	Route string
	// QueryParam names the query parameter carrying the path.
	QueryParam string
	// Go performs the navigation.
	Go func(target string)
}

// URL returns the viewer URL for path and section.
func (n Navigator) URL(path string, section *string) string {
	param := n.QueryParam
	if param == "" {
		param = "path"
	}
	sep := "?"
	if strings.Contains(n.Route, "?") {
		sep = "&"
	}
	target := n.Route + sep + param + "=" + url.QueryEscape(path)
	if section != nil {
		target += "#" + *section
	}
	return target
}

// Navigate implements NavigateFunc.
func (n Navigator) Navigate(path string, section *string) {
	if n.Go == nil {
		return
	}
	n.Go(n.URL(path, section))
}
