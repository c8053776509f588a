package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := New().Render([]byte(src))
	require.NoError(t, err)
	return out
}

func TestRender_ReferenceLink(t *testing.T) {
	out := render(t, "Follow SOPRef[sop/05-intake.md#phase-2] now.\n")

	assert.Contains(t, out, `class="sop-ref-link"`)
	assert.Contains(t, out, `data-path="sop/05-intake.md"`)
	assert.Contains(t, out, `data-section="phase-2"`)
	assert.Contains(t, out, `id="sopref-sop-05-intake-md-phase-2"`)
	assert.Contains(t, out, ">05-intake.md §phase-2</a>")
	assert.NotContains(t, out, "SOPRef[")
}

func TestRender_ReferenceWithoutSection(t *testing.T) {
	out := render(t, "SOPRef[a.md]\n")
	assert.Contains(t, out, `data-path="a.md"`)
	assert.NotContains(t, out, "data-section")
	assert.Contains(t, out, ">a.md</a>")
}

func TestRender_CodeSpanLeftLiteral(t *testing.T) {
	out := render(t, "Write `SOPRef[a.md]` to cite.\n")
	assert.Contains(t, out, "<code>SOPRef[a.md]</code>")
	assert.NotContains(t, out, "sop-ref-link")
}

func TestRender_MarkdownStillWorks(t *testing.T) {
	out := render(t, "## Step 2\n\n- one\n- SOPRef[x.md]\n")
	assert.Contains(t, out, `<h2 id="step-2">Step 2</h2>`)
	assert.Contains(t, out, "<li>one</li>")
	assert.Equal(t, 1, strings.Count(out, "sop-ref-link"))
}

func TestRender_Sanitises(t *testing.T) {
	out := render(t, "hi <script>alert(1)</script> <a href=\"#\" class=\"evil\" onclick=\"x()\">y</a>\n")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, `class="evil"`)
}

func TestRender_NonReferenceCapitalS(t *testing.T) {
	out := render(t, "Some SOP text and SOPRef without brackets.\n")
	assert.Contains(t, out, "Some SOP text and SOPRef without brackets.")
}

func TestRender_ReferenceWithUnderscores(t *testing.T) {
	out := render(t, "See SOPRef[sop/05_intake.md#step_2] and _more_.\n")
	assert.Contains(t, out, `data-path="sop/05_intake.md"`)
	assert.Contains(t, out, `data-section="step_2"`)
	assert.Contains(t, out, "<em>more</em>")
	assert.NotContains(t, out, "SOPRef[")
}

func TestRender_SeveralReferencesAcrossLines(t *testing.T) {
	out := render(t, "first SOPRef[a.md]\nthen xSOPRef[b.md#c] end\n")
	assert.Equal(t, 2, strings.Count(out, "sop-ref-link"))
	assert.Contains(t, out, "first ")
	assert.Contains(t, out, " end")
	assert.Contains(t, out, `data-path="b.md"`)
}

func TestRender_ReferenceInLinkLabelLeftLiteral(t *testing.T) {
	out := render(t, "[SOPRef[a.md]](https://example.com)\n")
	assert.NotContains(t, out, "sop-ref-link")
}

func TestRender_MalformedReferenceKept(t *testing.T) {
	out := render(t, "SOPRef[#x] and SOPRef[a b] stay\n")
	assert.NotContains(t, out, "sop-ref-link")
	assert.Contains(t, out, "SOPRef[#x] and SOPRef[a b] stay")
}
