// Package preview renders vault notes to sanitised HTML with SOPRef citations
// turned into reference links.
package preview

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/sopgate/internal/sopref"
)

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Renderer with GFM, heading ids and SOPRef links enabled.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&refExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{md: md, policy: newPolicy()}
}

// Render converts a markdown body to sanitised HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("preview: convert: %w", err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^` + regexp.QuoteMeta(sopref.LinkClass) + `$`)).OnElements("a")
	p.AllowAttrs("title").OnElements("a")
	return p
}

var refKind = ast.NewNodeKind("SOPRef")

// refNode is an inline citation.
type refNode struct {
	ast.BaseInline
	ref sopref.Reference
}

func (n *refNode) Kind() ast.NodeKind {
	return refKind
}

func (n *refNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Raw": n.ref.Raw,
	}, nil)
}

type refExtension struct{}

func (e *refExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&refTransformer{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&refHTMLRenderer{}, 500),
	))
}

// refTransformer replaces citations found in text runs with refNodes.
// Inline parsing splits text at '[', ']' and emphasis delimiters, so
// adjacent text nodes that are contiguous in the source are matched as one run.
type refTransformer struct{}

func (t *refTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var parents []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan, ast.KindLink, ast.KindAutoLink, ast.KindImage, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Kind() == ast.KindText {
				parents = append(parents, n)
				break
			}
		}
		return ast.WalkContinue, nil
	})
	for _, p := range parents {
		linkRuns(p, source)
	}
}

func linkRuns(parent ast.Node, source []byte) {
	child := parent.FirstChild()
	for child != nil {
		first, ok := child.(*ast.Text)
		if !ok || first.IsRaw() {
			child = child.NextSibling()
			continue
		}
		run := []*ast.Text{first}
		for last := first; !last.SoftLineBreak() && !last.HardLineBreak(); {
			next, ok := last.NextSibling().(*ast.Text)
			if !ok || next.IsRaw() || next.Segment.Start != last.Segment.Stop {
				break
			}
			run = append(run, next)
			last = next
		}
		child = run[len(run)-1].NextSibling()
		splitRun(parent, run, source)
	}
}

// splitRun rewrites run as text segments around each citation. The run is
// left untouched when it holds none.
func splitRun(parent ast.Node, run []*ast.Text, source []byte) {
	first, last := run[0], run[len(run)-1]
	start, stop := first.Segment.Start, last.Segment.Stop
	value := string(source[start:stop])
	if !strings.Contains(value, sopref.Prefix) {
		return
	}

	var nodes []ast.Node
	pos := 0
	for i := 0; i < len(value); {
		j := strings.Index(value[i:], sopref.Prefix)
		if j < 0 {
			break
		}
		i += j
		ref, ok := sopref.Leading(value[i:])
		if !ok {
			i += len(sopref.Prefix)
			continue
		}
		if i > pos {
			nodes = append(nodes, ast.NewTextSegment(text.NewSegment(start+pos, start+i)))
		}
		nodes = append(nodes, &refNode{ref: ref})
		i += len(ref.Raw)
		pos = i
	}
	if len(nodes) == 0 {
		return
	}

	var tail *ast.Text
	if pos < len(value) {
		tail = ast.NewTextSegment(text.NewSegment(start+pos, stop))
		nodes = append(nodes, tail)
	}
	if tail == nil && (last.SoftLineBreak() || last.HardLineBreak()) {
		tail = ast.NewTextSegment(text.NewSegment(stop, stop))
		nodes = append(nodes, tail)
	}
	if tail != nil {
		tail.SetSoftLineBreak(last.SoftLineBreak())
		tail.SetHardLineBreak(last.HardLineBreak())
	}

	for _, n := range nodes {
		parent.InsertBefore(parent, first, n)
	}
	for _, old := range run {
		parent.RemoveChild(parent, old)
	}
}

type refHTMLRenderer struct{}

func (r *refHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(refKind, r.render)
}

func (r *refHTMLRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*refNode)
	_, _ = w.WriteString(sopref.NewLink(n.ref).HTML())
	return ast.WalkSkipChildren, nil
}
