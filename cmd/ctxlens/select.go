package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ctxlens/internal/config"
	"ctxlens/internal/diffmap"
	"ctxlens/internal/edges"
	"ctxlens/internal/pipeline"
)

var (
	selectBudget      int
	selectAlpha       float64
	selectTau         float64
	selectFull        bool
	selectMaxUniverse int
	selectOverhead    int
	selectTimeout     time.Duration
)

// fixtureInput is the on-disk/stdin JSON shape for `ctxlens select`,
// pipeline.Input minus its unmarshalable Repo field (spec.md §6).
type fixtureInput struct {
	Files   []pipeline.FileSnapshot `json:"files"`
	Hunks   []diffmap.Hunk          `json:"hunks,omitempty"`
	Diff    string                  `json:"diff,omitempty"`
	History []edges.CommitRecord    `json:"history"`
}

var selectCmd = &cobra.Command{
	Use:   "select [fixture.json]",
	Short: "Select a budget-bounded context set for a diff",
	Long: `Reads a diff fixture (changed files' pre/post text, hunks, and
optional commit history) from a file argument or stdin, runs the full
fragment/diff-map/concept/universe/edge/PPR/selection pipeline against the
repository at --repo, and prints the selected fragments.

Examples:
  ctxlens select fixture.json
  cat fixture.json | ctxlens select
  ctxlens select fixture.json --budget 4000 --format human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().IntVar(&selectBudget, "budget", 0, "token budget (0 = unbounded)")
	selectCmd.Flags().Float64Var(&selectAlpha, "alpha", 0, "PPR damping factor (default from config)")
	selectCmd.Flags().Float64Var(&selectTau, "tau", 0, "selector stopping threshold (default from config)")
	selectCmd.Flags().BoolVar(&selectFull, "full", false, "bypass selection and return the entire universe")
	selectCmd.Flags().IntVar(&selectMaxUniverse, "max-universe", 0, "universe expansion cap (default from config)")
	selectCmd.Flags().IntVar(&selectOverhead, "overhead-per-fragment", 0, "fixed per-fragment token overhead (default from config)")
	selectCmd.Flags().DurationVar(&selectTimeout, "timeout", 0, "abort the run after this long (0 = no timeout)")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	start := time.Now()
	logger := newLogger(formatFlag)
	repoRoot := resolveRepoRoot()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	pcfg := resolveSelectConfig(cmd, cfg)
	pcfg.Logger = logger

	in, err := readFixture(args)
	if err != nil {
		return fmt.Errorf("reading fixture: %w", err)
	}
	in.Repo = newFsRepo(repoRoot)

	ctx := newContext()
	if selectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, selectTimeout)
		defer cancel()
	}

	out, err := pipeline.Run(ctx, in, pcfg)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	rendered, err := FormatOutput(out, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Println(rendered)

	logger.Debug("select completed", map[string]interface{}{
		"selected": len(out.Selected),
		"duration": time.Since(start).Milliseconds(),
	})
	return nil
}

// resolveSelectConfig merges the loaded config with any explicitly set CLI
// flags, flags taking precedence, per resolveTierMode's CLI-first
// convention (cmd/ckb/root.go).
func resolveSelectConfig(cmd *cobra.Command, cfg *config.Config) pipeline.Config {
	pcfg := pipeline.Config{
		Alpha:               cfg.Alpha,
		Tau:                 cfg.Tau,
		Full:                cfg.Full,
		MaxUniverse:         cfg.MaxUniverse,
		OverheadPerFragment: cfg.OverheadPerFragment,
	}
	if cfg.Budget > 0 {
		b := cfg.Budget
		pcfg.Budget = &b
	}

	flags := cmd.Flags()
	if flags.Changed("budget") {
		if selectBudget > 0 {
			b := selectBudget
			pcfg.Budget = &b
		} else {
			pcfg.Budget = nil
		}
	}
	if flags.Changed("alpha") {
		pcfg.Alpha = selectAlpha
	}
	if flags.Changed("tau") {
		pcfg.Tau = selectTau
	}
	if flags.Changed("full") {
		pcfg.Full = selectFull
	}
	if flags.Changed("max-universe") {
		pcfg.MaxUniverse = selectMaxUniverse
	}
	if flags.Changed("overhead-per-fragment") {
		pcfg.OverheadPerFragment = selectOverhead
	}
	return pcfg
}

func readFixture(args []string) (pipeline.Input, error) {
	var r io.Reader
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return pipeline.Input{}, err
		}
		defer f.Close()
		r = f
	} else {
		r = os.Stdin
	}

	var fx fixtureInput
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return pipeline.Input{}, fmt.Errorf("decoding fixture: %w", err)
	}

	hunks := fx.Hunks
	if fx.Diff != "" {
		parsed, err := diffmap.ParseUnifiedDiff(fx.Diff)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("parsing unified diff: %w", err)
		}
		hunks = append(hunks, parsed...)
	}
	return pipeline.Input{Files: fx.Files, Hunks: hunks, History: fx.History}, nil
}
