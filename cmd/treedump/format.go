package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/treedump"
)

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// formatCatalogText formats CLICatalog as readable text.
func formatCatalogText(w io.Writer, c CLICatalog) {
	fmt.Fprintln(w, "Languages:")
	for _, lang := range c.Languages {
		if lang == c.Default {
			fmt.Fprintf(w, "  %s (default)\n", lang)
			continue
		}
		fmt.Fprintf(w, "  %s\n", lang)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Encodings: %s\n", strings.Join(c.Encodings, ", "))
	fmt.Fprintf(w, "Presets: %s\n", strings.Join(c.Presets, ", "))
}

// formatSnapshotsText formats CLISnapshot results as aligned columns.
func formatSnapshotsText(w io.Writer, snaps []CLISnapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANGUAGE\tNODES\tBYTES\tERRORS\tHASH\tCREATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%t\t%s\t%s\n",
			s.ID, s.Language, s.NodeCount, s.SourceLen, s.HasError, shortHash(s.SourceHash), s.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush()
}

// formatCheckText formats a CheckResult as a verdict plus the first
// differing line pair.
func formatCheckText(w io.Writer, cr *treedump.CheckResult) {
	if cr.Match {
		fmt.Fprintf(w, "OK: matches snapshot #%d\n", cr.SnapshotID)
		return
	}
	fmt.Fprintf(w, "MISMATCH: snapshot #%d\n", cr.SnapshotID)
	if cr.FirstDiff >= 0 {
		fmt.Fprintf(w, "  line %d\n", cr.FirstDiff)
		fmt.Fprintf(w, "  want: %s\n", cr.Want)
		fmt.Fprintf(w, "  got:  %s\n", cr.Got)
	}
	if !cr.SExprMatch {
		fmt.Fprintln(w, "  s-expression differs")
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLICatalog:
		formatCatalogText(w, v)
	case []CLISnapshot:
		formatSnapshotsText(w, v)
	case *treedump.CheckResult:
		formatCheckText(w, v)
	case CLIVersion:
		fmt.Fprintln(w, v.Version)
		if v.GoVersion != "" {
			fmt.Fprintf(w, "go: %s\nmodule: %s\n", v.GoVersion, v.Module)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// validFormats lists accepted values for --format.
var validFormats = []string{"text", "json"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
