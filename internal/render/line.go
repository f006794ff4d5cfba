package render

import (
	"strconv"
	"strings"
)

// Indent is the prefix repeated once per depth level.
const Indent = "  "

// Placeholder replaces the text of a node whose span cannot be decoded.
const Placeholder = "<?>"

// Line is one rendered node. Text holds the decoded span before newline
// escaping; String produces the printable form.
type Line struct {
	Depth      int    `json:"depth"`
	Kind       string `json:"kind"`
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	Text       string `json:"text"`
	Named      bool   `json:"named"`
	Missing    bool   `json:"missing,omitempty"`
	ChildCount int    `json:"child_count"`
}

// String formats the line as
//
//	<indent><kind> (line <row>, column <col>): <text>
//
// with newlines in text escaped so the result never spans more than one line.
func (l Line) String() string {
	var b strings.Builder
	b.Grow(len(Indent)*l.Depth + len(l.Kind) + len(l.Text) + 32)
	for i := 0; i < l.Depth; i++ {
		b.WriteString(Indent)
	}
	b.WriteString(l.Kind)
	b.WriteString(" (line ")
	b.WriteString(strconv.Itoa(l.Row))
	b.WriteString(", column ")
	b.WriteString(strconv.Itoa(l.Column))
	b.WriteString("): ")
	b.WriteString(EscapeNewlines(l.Text))
	return b.String()
}

// EscapeNewlines replaces each literal '\n' with the two characters `\n`.
func EscapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}
