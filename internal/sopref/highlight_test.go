package sopref

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// removableFinder drops elements on demand, like a container whose content
// was replaced before the render delay elapsed.
type removableFinder struct {
	mu      sync.Mutex
	doc     *Document
	removed bool
	lookups int
}

func (f *removableFinder) ElementByID(id string) (Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.removed {
		return nil, false
	}
	return f.doc.ElementByID(id)
}

func (f *removableFinder) remove() {
	f.mu.Lock()
	f.removed = true
	f.mu.Unlock()
}

func (f *removableFinder) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func fastHighlighter() *Highlighter {
	return &Highlighter{RenderDelay: 10 * time.Millisecond, Duration: 50 * time.Millisecond, Class: "flash"}
}

func TestHighlight_ScrollsAndExpires(t *testing.T) {
	doc := Render("SOPRef[a.md#intro]")
	link := doc.Links()[0]

	fastHighlighter().Highlight(doc, link.ID)

	require.Eventually(t, func() bool { return link.HasClass("flash") }, time.Second, 5*time.Millisecond)
	opts, ok := link.LastScroll()
	require.True(t, ok)
	assert.Equal(t, ScrollOptions{Behavior: "smooth", Block: "center"}, opts)

	require.Eventually(t, func() bool { return !link.HasClass("flash") }, time.Second, 5*time.Millisecond)
}

func TestHighlight_MissingElementIsNoop(t *testing.T) {
	f := &removableFinder{doc: Render("nothing here")}
	fastHighlighter().Highlight(f, "sopref-missing")

	require.Eventually(t, func() bool { return f.lookupCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, f.lookupCount(), "lookup must not be retried")
}

func TestHighlight_ElementRemovedBeforeDelay(t *testing.T) {
	doc := Render("SOPRef[a.md]")
	link := doc.Links()[0]
	f := &removableFinder{doc: doc}
	f.remove()

	fastHighlighter().Highlight(f, link.ID)

	require.Eventually(t, func() bool { return f.lookupCount() == 1 }, time.Second, 5*time.Millisecond)
	_, scrolled := link.LastScroll()
	assert.False(t, scrolled)
	assert.False(t, link.HasClass("flash"))
}

func TestHighlight_DefaultsAndNilFinder(t *testing.T) {
	h := NewHighlighter()
	assert.Equal(t, DefaultRenderDelay, h.RenderDelay)
	assert.Equal(t, DefaultHighlightFor, h.Duration)
	assert.Equal(t, DefaultHighlightClass, h.Class)
	assert.NotPanics(t, func() { h.Highlight(nil, "x") })
}

func TestHighlight_ReconfigureAfterScheduling(t *testing.T) {
	doc := Render("SOPRef[a.md#intro]")
	link := doc.Links()[0]
	h := fastHighlighter()

	h.Highlight(doc, link.ID)
	h.RenderDelay, h.Duration, h.Class = time.Hour, time.Hour, "other"

	require.Eventually(t, func() bool { return link.HasClass("flash") }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !link.HasClass("flash") }, time.Second, 5*time.Millisecond)
	assert.False(t, link.HasClass("other"))
}
