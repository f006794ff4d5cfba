package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/treedump"
	"github.com/jward/treedump/internal/grammar"
	"github.com/jward/treedump/internal/source"
	"github.com/spf13/cobra"
)

var (
	flagLanguage   string
	flagEncoding   string
	flagSource     string
	flagFilter     string
	flagPreset     string
	flagMaxDepth   int
	flagStack      bool
	flagSave       bool
	flagScriptsDir string
)

// errCheckMismatch is returned by check when the rendering differs from the
// stored snapshot. The details have already been written.
var errCheckMismatch = errors.New("rendering does not match snapshot")

// addInputFlags registers the flags shared by commands that read one source.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagLanguage, "language", "l", "", "grammar name (default: from file extension, else "+grammar.Default+")")
	cmd.Flags().StringVar(&flagEncoding, "encoding", source.DefaultEncoding, "input encoding")
	cmd.Flags().StringVar(&flagSource, "source", "", "source text to parse instead of a file")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Print the syntax tree of a source text",
	Long: `Parses the input and prints one line per node in pre-order, indented by depth,
with its 0-based start line and column and its source text, then the tree's
S-expression. Use "-" to read stdin. With no input a built-in sample is parsed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	addInputFlags(dumpCmd)
	dumpCmd.Flags().StringVar(&flagFilter, "filter", "", "Risor expression selecting nodes to print (e.g. 'named && depth < 3')")
	dumpCmd.Flags().StringVar(&flagPreset, "preset", "", "named filter preset (see 'treedump languages')")
	dumpCmd.Flags().IntVar(&flagMaxDepth, "max-depth", -1, "do not print nodes deeper than this (-1 for unlimited)")
	dumpCmd.Flags().BoolVar(&flagStack, "stack", false, "walk with an explicit stack instead of recursion")
	dumpCmd.Flags().BoolVar(&flagSave, "save", false, "store the rendering as a snapshot")
	dumpCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load filter presets from disk path instead of embedded")
}

func runDump(cmd *cobra.Command, args []string) error {
	path := inputPath(args)
	opts := []treedump.Option{
		treedump.WithLanguage(resolveLanguage(flagLanguage, path)),
		treedump.WithEncoding(flagEncoding),
		treedump.WithFilter(flagFilter),
		treedump.WithPreset(flagPreset),
		treedump.WithMaxDepth(flagMaxDepth),
		treedump.WithExplicitStack(flagStack),
	}
	if flagScriptsDir != "" {
		opts = append(opts, treedump.WithScriptsDir(flagScriptsDir))
	}
	if flagSave {
		dbPath, err := prepareDB()
		if err != nil {
			return outputError("dump", err)
		}
		opts = append(opts, treedump.WithStore(dbPath))
	}

	in, err := treedump.New(opts...)
	if err != nil {
		return outputError("dump", err)
	}
	defer in.Close()

	src, err := in.Load(flagSource, path, cmd.InOrStdin())
	if err != nil {
		return outputError("dump", err)
	}

	ctx := context.Background()

	var snapshotID *int64
	if flagSave {
		snap, err := in.Save(ctx, src)
		if err != nil {
			return outputError("dump", err)
		}
		snapshotID = &snap.ID
	}

	if flagFormat == "text" {
		if err := in.Dump(ctx, os.Stdout, src); err != nil {
			return outputError("dump", err)
		}
		if snapshotID != nil {
			fmt.Fprintf(os.Stderr, "Saved snapshot #%d\n", *snapshotID)
		}
		return nil
	}

	res, err := in.Collect(ctx, src)
	if err != nil {
		return outputError("dump", err)
	}
	return outputResult(CLIResult{
		Command: "dump",
		Results: CLIDump{Result: res, SnapshotID: snapshotID},
	})
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Compare a rendering with the latest stored snapshot",
	Long: `Renders the input and compares it with the newest snapshot saved by
'dump --save' for the same grammar and source bytes. Exits 1 on mismatch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addInputFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	dbPath, err := dbPathFromCwd()
	if err != nil {
		return outputError("check", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputError("check", fmt.Errorf("database not found: %s (run 'treedump dump --save' first)", dbPath))
	}

	path := inputPath(args)
	in, err := treedump.New(
		treedump.WithLanguage(resolveLanguage(flagLanguage, path)),
		treedump.WithEncoding(flagEncoding),
		treedump.WithStore(dbPath),
	)
	if err != nil {
		return outputError("check", err)
	}
	defer in.Close()

	src, err := in.Load(flagSource, path, cmd.InOrStdin())
	if err != nil {
		return outputError("check", err)
	}

	cr, err := in.Check(context.Background(), src)
	if err != nil {
		return outputError("check", err)
	}
	if err := outputResult(CLIResult{Command: "check", Results: cr}); err != nil {
		return err
	}
	if !cr.Match {
		errorHandled = true
		return errCheckMismatch
	}
	return nil
}

// inputPath returns the file argument, or "" when none was given.
func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// resolveLanguage picks the grammar: the explicit flag, else the file
// extension, else the default.
func resolveLanguage(flag, path string) string {
	if flag != "" {
		return flag
	}
	if path != "" && path != "-" {
		if lang, ok := grammar.LanguageForFile(path); ok {
			return lang
		}
	}
	return grammar.Default
}

// prepareDB resolves the database path and creates its directory.
func prepareDB() (string, error) {
	dbPath, err := dbPathFromCwd()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dbPath, nil
}
