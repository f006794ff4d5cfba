// Package treedump renders tree-sitter concrete syntax trees for grammar
// debugging. It parses source text with one grammar and prints every node,
// pre-order, with its zero-based position and source text, followed by the
// tree's S-expression.
//
// # Output
//
// For the input [1, 2, 3] and the javascript grammar, [Inspector.Dump] writes:
//
//	Tree structure:
//	program (line 0, column 0): [1, 2, 3]
//	  expression_statement (line 0, column 0): [1, 2, 3]
//	    array (line 0, column 0): [1, 2, 3]
//	      [ (line 0, column 0): [
//	      number (line 0, column 1): 1
//	      ...
//	"(program (expression_statement (array (number) (number) (number))))"
//
// Newlines inside a node's text are written as the two characters \n, so
// each node occupies exactly one output line. A node whose byte span is not
// valid UTF-8 is printed with the placeholder <?> and the walk continues.
//
// # Usage
//
//	in, err := treedump.New(treedump.WithLanguage("javascript"))
//	if err != nil { ... }
//	defer in.Close()
//
//	err = in.Dump(ctx, os.Stdout, []byte("[1, 2, 3]"))
//
// # Filters
//
// [WithFilter] and [WithPreset] select lines with Risor expressions evaluated
// per node. Expressions see kind, text, row, column, depth, child_count,
// named and missing. Presets live under scripts/filters.
//
// # Snapshots
//
// With [WithStore], [Inspector.Save] records a rendering in SQLite and
// [Inspector.Check] compares a fresh rendering against the newest snapshot
// for the same grammar and source bytes.
package treedump
