package mcpserver

// SyntaxURI names the citation syntax resource.
const SyntaxURI = "sopref://syntax"

// SyntaxContract describes the SOPRef citation syntax for LLM consumers
// writing study notes.
const SyntaxContract = `# SOPRef Citation Syntax

Cite a standard operating procedure (SOP) document inline with

` + "```" + `
SOPRef[<path>]
SOPRef[<path>#<section>]
` + "```" + `

## Rules

1. ` + "`" + `<path>` + "`" + ` and ` + "`" + `<section>` + "`" + ` use only letters, digits, ` + "`" + `-` + "`" + `, ` + "`" + `_` + "`" + `, ` + "`" + `/` + "`" + ` and ` + "`" + `.` + "`" + `.
   Spaces or any other character make the citation invisible to tooling.
2. The path is relative to the SOP library and may not be empty, so
   ` + "`" + `SOPRef[#intro]` + "`" + ` is not a citation.
3. The section is everything after the **first** ` + "`" + `#` + "`" + `:
   ` + "`" + `SOPRef[a.md#b#c]` + "`" + ` cites section ` + "`" + `b#c` + "`" + ` of ` + "`" + `a.md` + "`" + `.
4. ` + "`" + `SOPRef[a.md#]` + "`" + ` carries an empty section, which is different from no section.
5. The prefix is case-sensitive: ` + "`" + `sopref[a.md]` + "`" + ` is plain text.
6. Citations inside inline code or code blocks are shown literally in previews.

## Rendering

Each citation renders as a link labelled with the last path segment, plus
` + "`" + `§section` + "`" + ` when a section is given:
` + "`" + `SOPRef[sop/05-intake.md#phase-2]` + "`" + ` shows as ` + "`" + `05-intake.md §phase-2` + "`" + `.

## Writing to the vault

Use the ` + "`" + `append_note` + "`" + ` tool. Only paths under the configured allowlisted
folders (for example ` + "`" + `Inbox/` + "`" + ` or ` + "`" + `Study/` + "`" + `) are writable; content is
appended verbatim, so include your own trailing newline.

## Example

` + "```" + `markdown
- 2025-03-02: ran intake drill, see SOPRef[sop/05-intake.md#phase-2]
- escalation path: SOPRef[sop/escalation.md]
` + "```" + `
`
