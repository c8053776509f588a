package sopref

import "time"

// Default highlight timing.
const (
	DefaultRenderDelay    = 100 * time.Millisecond
	DefaultHighlightFor   = 2 * time.Second
	DefaultHighlightClass = "sop-highlight"
)

// ScrollOptions mirrors the scroll-into-view request.
type ScrollOptions struct {
	Behavior string `json:"behavior"`
	Block    string `json:"block"`
}

// Element is anything that can be scrolled to and highlighted.
type Element interface {
	ScrollIntoView(opts ScrollOptions)
	AddClass(name string)
	RemoveClass(name string)
}

// Finder looks up an element by id.
type Finder interface {
	ElementByID(id string) (Element, bool)
}

// Highlighter scrolls to a section and flashes it.
type Highlighter struct {
	RenderDelay time.Duration
	Duration    time.Duration
	Class       string
}

// NewHighlighter returns a Highlighter with the default timing.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		RenderDelay: DefaultRenderDelay,
		Duration:    DefaultHighlightFor,
		Class:       DefaultHighlightClass,
	}
}

// Highlight schedules the scroll-and-highlight sequence for id. The lookup
// happens once, after RenderDelay; a missing element is ignored. Timers are
// not cancellable.
func (h *Highlighter) Highlight(f Finder, id string) {
	if f == nil || id == "" {
		return
	}
	// Settings are captured now; later changes to h affect only later calls.
	delay, hold, class := h.RenderDelay, h.Duration, h.Class
	if class == "" {
		class = DefaultHighlightClass
	}
	time.AfterFunc(delay, func() {
		el, ok := f.ElementByID(id)
		if !ok || el == nil {
			return
		}
		el.ScrollIntoView(ScrollOptions{Behavior: "smooth", Block: "center"})
		el.AddClass(class)
		time.AfterFunc(hold, func() {
			el.RemoveClass(class)
		})
	})
}

// ElementByID implements Finder. The first segment with a matching id wins.
func (d *Document) ElementByID(id string) (Element, bool) {
	for _, s := range d.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// ScrollIntoView records the scroll request.
func (s *Segment) ScrollIntoView(opts ScrollOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolledTo = &opts
}

// AddClass adds a transient visual class.
func (s *Segment) AddClass(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classes == nil {
		s.classes = make(map[string]struct{})
	}
	s.classes[name] = struct{}{}
}

// RemoveClass removes a transient visual class.
func (s *Segment) RemoveClass(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, name)
}

// HasClass reports whether a transient class is set.
func (s *Segment) HasClass(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.classes[name]
	return ok
}

// LastScroll returns the most recent scroll request, if any.
func (s *Segment) LastScroll() (ScrollOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scrolledTo == nil {
		return ScrollOptions{}, false
	}
	return *s.scrolledTo, true
}
