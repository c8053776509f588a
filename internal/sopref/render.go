package sopref

import (
	"html"
	"strings"
	"sync"
)

// LinkClass marks segments that are reference links.
const LinkClass = "sop-ref-link"

// Attribute names carried by reference links.
const (
	AttrPath    = "data-path"
	AttrSection = "data-section"
	AttrTitle   = "title"
)

var idReplacer = strings.NewReplacer("/", "-", ".", "-")

// SegmentKind distinguishes plain text runs from link spans.
type SegmentKind int

const (
	TextRun SegmentKind = iota
	LinkSpan
)

// String implements fmt.Stringer.
func (k SegmentKind) String() string {
	if k == LinkSpan {
		return "link"
	}
	return "text"
}

// MarshalText implements encoding.TextMarshaler.
func (k SegmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Segment is one node of a rendered document.
//
// A link span is a reference link when Class is LinkClass; other link spans
// (plain hyperlinks from elsewhere) are left alone by AttachNavigation.
type Segment struct {
	Kind  SegmentKind       `json:"type"`
	Text  string            `json:"text"`
	ID    string            `json:"id,omitempty"`
	Class string            `json:"class,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`

	mu         sync.Mutex
	onClick    func()
	classes    map[string]struct{}
	scrolledTo *ScrollOptions
}

// Attr returns an attribute value and whether it is set.
func (s *Segment) Attr(name string) (string, bool) {
	v, ok := s.Attrs[name]
	return v, ok
}

// Document is the structured output of Render.
type Document struct {
	Segments []*Segment `json:"segments"`
}

// Links returns the reference-link segments in document order.
func (d *Document) Links() []*Segment {
	var out []*Segment
	for _, s := range d.Segments {
		if s.Kind == LinkSpan && s.Class == LinkClass {
			out = append(out, s)
		}
	}
	return out
}

// Text concatenates the visible text of every segment.
func (d *Document) Text() string {
	var b strings.Builder
	for _, s := range d.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// LinkID derives the element id for a reference. Repeated references to the
// same target share an id.
func LinkID(ref Reference) string {
	id := "sopref-" + idReplacer.Replace(ref.Path)
	if section, ok := ref.SectionName(); ok {
		id += "-" + section
	}
	return id
}

// LinkTitle is the tooltip for a reference.
func LinkTitle(ref Reference) string {
	if section, ok := ref.SectionName(); ok {
		return ref.Path + " § " + section
	}
	return ref.Path
}

// LinkLabel is the visible text for a reference.
func LinkLabel(ref Reference) string {
	if section, ok := ref.SectionName(); ok {
		return ref.DisplayText() + " §" + section
	}
	return ref.DisplayText()
}

// NewLink builds the link segment for ref.
func NewLink(ref Reference) *Segment {
	attrs := map[string]string{
		AttrPath:  ref.Path,
		AttrTitle: LinkTitle(ref),
	}
	if section, ok := ref.SectionName(); ok {
		attrs[AttrSection] = section
	}
	return &Segment{
		Kind:  LinkSpan,
		Text:  LinkLabel(ref),
		ID:    LinkID(ref),
		Class: LinkClass,
		Attrs: attrs,
	}
}

// Render splits content into text runs and reference links.
//
// Substitution is keyed on the literal Raw string: every occurrence of a
// matched citation becomes a link, including occurrences the parser itself
// would not have reported separately.
func Render(content string) *Document {
	doc := &Document{Segments: []*Segment{}}
	links := uniqueByRaw(Parse(content))
	if len(links) == 0 {
		if content != "" {
			doc.Segments = append(doc.Segments, &Segment{Kind: TextRun, Text: content})
		}
		return doc
	}

	rest := content
	for rest != "" {
		at, ref := nextOccurrence(rest, links)
		if at < 0 {
			doc.Segments = append(doc.Segments, &Segment{Kind: TextRun, Text: rest})
			break
		}
		if at > 0 {
			doc.Segments = append(doc.Segments, &Segment{Kind: TextRun, Text: rest[:at]})
		}
		doc.Segments = append(doc.Segments, NewLink(ref))
		rest = rest[at+len(ref.Raw):]
	}
	return doc
}

// RenderHTML returns content with every citation replaced by an anchor.
// Content without citations is returned unchanged; otherwise text runs are
// HTML-escaped.
func RenderHTML(content string) string {
	if len(Parse(content)) == 0 {
		return content
	}
	return Render(content).HTML()
}

// HTML serialises the document. Text runs and attribute values are escaped.
func (d *Document) HTML() string {
	var b strings.Builder
	for _, s := range d.Segments {
		s.writeHTML(&b)
	}
	return b.String()
}

// HTML serialises one segment: escaped text for a text run, an anchor for a
// link span.
func (s *Segment) HTML() string {
	var b strings.Builder
	s.writeHTML(&b)
	return b.String()
}

func (s *Segment) writeHTML(b *strings.Builder) {
	if s.Kind == TextRun {
		b.WriteString(html.EscapeString(s.Text))
		return
	}
	writeAnchor(b, s)
}

func writeAnchor(b *strings.Builder, s *Segment) {
	b.WriteString(`<a href="#"`)
	if s.ID != "" {
		writeAttr(b, "id", s.ID)
	}
	if s.Class != "" {
		writeAttr(b, "class", s.Class)
	}
	for _, name := range []string{AttrPath, AttrSection, AttrTitle} {
		if v, ok := s.Attrs[name]; ok {
			writeAttr(b, name, v)
		}
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(s.Text))
	b.WriteString("</a>")
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`"`)
}

func uniqueByRaw(refs []Reference) []Reference {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if _, ok := seen[r.Raw]; ok {
			continue
		}
		seen[r.Raw] = struct{}{}
		out = append(out, r)
	}
	return out
}

// nextOccurrence finds the earliest occurrence of any reference's Raw text.
// Ties go to the longer Raw.
func nextOccurrence(s string, refs []Reference) (int, Reference) {
	best := -1
	var hit Reference
	for _, r := range refs {
		i := strings.Index(s, r.Raw)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(r.Raw) > len(hit.Raw)) {
			best, hit = i, r
		}
	}
	return best, hit
}
