package main

import (
	"ctxlens/internal/version"

	"github.com/spf13/cobra"
)

var (
	// repoRootFlag is the CLI --repo flag value.
	repoRootFlag string
	// formatFlag is the CLI --format flag value, shared by every subcommand.
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ctxlens",
	Short: "ctxlens - diff-aware context selection",
	Long: `ctxlens turns a code diff into a budget-bounded set of source fragments
worth handing an LLM: it fragments the changed files, expands a universe of
related code via import/symbol/document/history edges, ranks it with
personalized PageRank seeded at the diff, and greedily selects under a
submodular coverage objective until the marginal value drops below a
threshold or the budget is exhausted.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("ctxlens version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo", "", "repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "json", "output format: json or human")
}

// resolveRepoRoot determines the effective repo root from the --repo flag,
// falling back to the working directory, mirroring resolveTierMode's
// CLI-flag-first precedence convention (cmd/ckb/root.go).
func resolveRepoRoot() string {
	if repoRootFlag != "" {
		return repoRootFlag
	}
	return mustGetRepoRoot()
}
