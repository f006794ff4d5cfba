package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/jward/treedump"
	"github.com/jward/treedump/internal/grammar"
	"github.com/jward/treedump/internal/runtime"
	"github.com/jward/treedump/internal/source"
	"github.com/jward/treedump/internal/store"
	"github.com/jward/treedump/scripts"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List grammars, input encodings and filter presets",
	Long:  "Lists the grammars and input encodings treedump supports and the filter presets 'dump --preset' accepts. Presets come from the embedded scripts unless --scripts-dir is given.",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func init() {
	languagesCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "list filter presets from disk path instead of embedded")
}

// listPresets returns the preset names dump would accept with the same
// --scripts-dir value.
func listPresets(scriptsDir string) ([]string, error) {
	if scriptsDir != "" {
		return runtime.NewRuntime(scriptsDir).Presets()
	}
	return runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS)).Presets()
}

func runLanguages(cmd *cobra.Command, args []string) error {
	presets, err := listPresets(flagScriptsDir)
	if err != nil {
		return outputError("languages", err)
	}
	return outputResult(CLIResult{
		Command: "languages",
		Results: CLICatalog{
			Languages: grammar.Languages(),
			Default:   grammar.Default,
			Encodings: source.Encodings(),
			Presets:   presets,
		},
	})
}

var (
	flagSnapLanguage string
	flagDelete       int64
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshots,
}

func init() {
	snapshotsCmd.Flags().StringVarP(&flagSnapLanguage, "language", "l", "", "only list snapshots for this grammar")
	snapshotsCmd.Flags().Int64Var(&flagDelete, "delete", 0, "delete the snapshot with this ID")
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("snapshots", err)
	}
	defer s.Close()

	if flagDelete != 0 {
		snap, err := s.SnapshotByID(flagDelete)
		if err != nil {
			return outputError("snapshots", err)
		}
		if snap == nil {
			return outputError("snapshots", fmt.Errorf("snapshot #%d not found", flagDelete))
		}
		if err := s.DeleteSnapshot(flagDelete); err != nil {
			return outputError("snapshots", err)
		}
		fmt.Fprintf(os.Stderr, "Deleted snapshot #%d\n", flagDelete)
	}

	lang := flagSnapLanguage
	if lang != "" {
		lang = grammar.Canonical(lang)
	}
	snaps, err := s.Snapshots(lang)
	if err != nil {
		return outputError("snapshots", err)
	}

	out := make([]CLISnapshot, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotToCLI(snap))
	}
	total := len(out)
	return outputResult(CLIResult{
		Command:    "snapshots",
		Results:    out,
		TotalCount: &total,
	})
}

// openStore opens the snapshot database from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dbPath, err := dbPathFromCwd()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'treedump dump --save' first)", dbPath)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func snapshotToCLI(snap *store.Snapshot) CLISnapshot {
	return CLISnapshot{
		ID:         snap.ID,
		Language:   snap.Language,
		SourceHash: snap.SourceHash,
		SourceLen:  snap.SourceLen,
		NodeCount:  snap.NodeCount,
		HasError:   snap.HasError,
		CreatedAt:  snap.CreatedAt,
	}
}

var flagBuildInfo bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the treedump version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := CLIVersion{Version: treedump.Version().Core()}
		if flagBuildInfo {
			v.Version = treedump.Version().String()
			if bi, ok := debug.ReadBuildInfo(); ok {
				v.GoVersion = bi.GoVersion
				v.Module = bi.Main.Path
			}
		}
		return outputResult(CLIResult{Command: "version", Results: v})
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagBuildInfo, "build-info", false, "show build information")
}
