// Package pipeline orchestrates the full diff-aware context selection
// run: fragmenting, diff mapping, concept extraction, universe building,
// edge building, graph assembly, PPR, and selection, staged the way the
// teacher's backends.Orchestrator stages backend fan-out and merge
// (internal/backends/orchestrator.go) — here every "backend" is an edge
// builder instead of an external symbol backend.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ctxlens/internal/concept"
	"ctxlens/internal/ctxerrors"
	"ctxlens/internal/diffmap"
	"ctxlens/internal/edges"
	"ctxlens/internal/fragment"
	"ctxlens/internal/graph"
	"ctxlens/internal/logging"
	"ctxlens/internal/selector"
	"ctxlens/internal/universe"
)

// FileSnapshot is one changed file's pre/post text, per spec.md §6 (null
// means added/deleted respectively).
type FileSnapshot struct {
	Path     string
	PreText  *string
	PostText *string
}

// Input bundles everything one run needs.
type Input struct {
	Files   []FileSnapshot
	Hunks   []diffmap.Hunk
	History []edges.CommitRecord
	Repo    universe.RepoReader
}

// Config is the enumerated configuration surface from spec.md §6.
type Config struct {
	Budget              *int // nil means unbounded
	Alpha               float64
	Tau                 float64
	Full                bool
	MaxUniverse         int
	OverheadPerFragment int
	// Logger receives a per-stage debug trace. Nil disables logging.
	Logger *logging.Logger
}

// DefaultConfig returns spec.md's defaults.
func DefaultConfig() Config {
	return Config{Alpha: 0.60, Tau: 0.08, MaxUniverse: 5000, OverheadPerFragment: 18}
}

// Output is the full run result, enriched beyond spec.md §6's minimal
// contract with diagnostics grounded on the teacher's Stats()/AnalysisLimits
// conventions (SPEC_FULL.md §9).
type Output struct {
	Selected         []fragment.Fragment
	VSize            int
	ESize            int
	PPRIterations    int
	StoppingReason   string
	Warnings         []string
	EdgeFamilyCounts map[edges.Family]int
	HubsSuppressed   []fragment.ID
}

// Run executes the full pipeline. It never returns a fatal error for bad
// input — every recoverable problem downgrades to a Warning — except
// ctx cancellation/deadline, which aborts the stage in progress and
// returns the best partial Output per spec.md §5's timeout rule.
func Run(ctx context.Context, in Input, cfg Config) (*Output, error) {
	cfg = withDefaults(cfg)
	log := stageLogger(cfg.Logger, "fragment")
	var warnings []string

	// --- Stage 1: fragment every file's pre/post image. ---
	if err := ctx.Err(); err != nil {
		return &Output{StoppingReason: "timeout"}, err
	}
	strategies := fragment.DefaultStrategies()
	files := make(map[string]diffmap.FileFragments, len(in.Files))
	preText := make(map[string]string, len(in.Files))
	postText := make(map[string]string, len(in.Files))
	for _, fs := range in.Files {
		var ff diffmap.FileFragments
		if fs.PreText != nil {
			preText[fs.Path] = *fs.PreText
			res := fragment.Split(ctx, fs.Path, *fs.PreText, strategies)
			ff.Pre = res.Fragments
			warnings = append(warnings, strategyWarnings(res)...)
		}
		if fs.PostText != nil {
			postText[fs.Path] = *fs.PostText
			res := fragment.Split(ctx, fs.Path, *fs.PostText, strategies)
			ff.Post = res.Fragments
			warnings = append(warnings, strategyWarnings(res)...)
		}
		files[fs.Path] = ff
	}
	log.Debug("fragmented input files", map[string]interface{}{"files": len(in.Files)})

	// --- Stage 2: diff mapping (E0). ---
	if err := ctx.Err(); err != nil {
		return &Output{StoppingReason: "timeout", Warnings: warnings}, err
	}
	core, coreWarnings := diffmap.CoreSet(files, in.Hunks)
	warnings = append(warnings, errsToStrings(coreWarnings)...)
	stageLogger(cfg.Logger, "diffmap").Debug("built core set", map[string]interface{}{"core": len(core)})
	if len(core) == 0 {
		return &Output{Selected: nil, StoppingReason: "exhausted", Warnings: warnings}, nil
	}

	// --- Stage 3: diff concept extraction. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	diffConcepts := concept.Extract(in.Hunks, preText, postText)

	// --- Stage 4: universe expansion. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	uv, err := universe.Build(ctx, core, diffConcepts, in.Repo, universe.Config{MaxUniverse: cfg.MaxUniverse})
	if err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	if uv.Capped {
		warnings = append(warnings, ctxerrors.New(ctxerrors.InputError, "universe expansion was capped at max_universe").Error())
	}
	stageLogger(cfg.Logger, "universe").Debug("expanded universe", map[string]interface{}{"size": len(uv.Fragments), "capped": uv.Capped})

	conceptIndex := concept.BuildIndex(uv.Fragments)
	resolvedConcepts := conceptIndex.Resolve(diffConcepts)

	// --- Stage 5: edge building, fanned out concurrently. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	policy := edges.DefaultPolicy()
	policy.Commits = in.History

	builders := edges.All()
	outputs := make([][]edges.Edge, len(builders))
	familyCounts := make(map[edges.Family]int)

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range builders {
		i, b := i, b
		g.Go(func() error {
			out, err := b(gctx, uv, policy)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	for _, out := range outputs {
		for _, e := range out {
			familyCounts[e.Family]++
		}
	}
	stageLogger(cfg.Logger, "edges").Debug("built edges", map[string]interface{}{"families": familyCounts})

	// --- Stage 6: graph assembly and hub suppression. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	graphG := graph.Assemble(uv.Fragments, outputs)
	coreSet := make(map[fragment.ID]bool, len(core))
	for _, f := range core {
		coreSet[f.ID()] = true
	}
	suppressed := graphG.SuppressHubs(coreSet)
	stageLogger(cfg.Logger, "graph").Debug("assembled graph", map[string]interface{}{"edges": graphG.NumEdges(), "hubsSuppressed": len(suppressed)})

	// --- Stage 7: PPR. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	seeds := make([]fragment.ID, 0, len(core))
	for _, f := range core {
		seeds = append(seeds, f.ID())
	}
	pprOpts := graph.DefaultPPROptions()
	pprOpts.Damping = cfg.Alpha
	pprOut, err := graph.PPR(ctx, graphG, seeds, pprOpts)
	if err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	stageLogger(cfg.Logger, "ppr").Debug("ppr converged", map[string]interface{}{"iterations": pprOut.Iterations})

	// --- Stage 8: selection. ---
	if err := ctx.Err(); err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	candidates := make([]fragment.Fragment, 0, len(uv.Fragments))
	for _, f := range uv.Fragments {
		if !coreSet[f.ID()] {
			candidates = append(candidates, f)
		}
	}
	selOpts := selector.Options{Budget: cfg.Budget, Tau: cfg.Tau, OverheadPerFragment: cfg.OverheadPerFragment, Full: cfg.Full}
	selResult, err := selector.Select(core, candidates, pprOut.Scores, resolvedConcepts, selOpts)
	if err != nil {
		return &Output{Selected: core, StoppingReason: "timeout", Warnings: warnings}, err
	}
	if selResult.BudgetInfeasible {
		warnings = append(warnings, ctxerrors.New(ctxerrors.BudgetInfeasible, "core fragment set alone exceeds the configured budget").Error())
	}
	stageLogger(cfg.Logger, "selector").Debug("selection finished", map[string]interface{}{
		"selected": len(selResult.Selected), "reason": selResult.StoppingReason,
	})

	assertInvariants(coreSet, selResult.Selected, uv.Fragments)

	return &Output{
		Selected:         selResult.Selected,
		VSize:            len(uv.Fragments),
		ESize:            graphG.NumEdges(),
		PPRIterations:    pprOut.Iterations,
		StoppingReason:   selResult.StoppingReason,
		Warnings:         warnings,
		EdgeFamilyCounts: familyCounts,
		HubsSuppressed:   suppressed,
	}, nil
}

// stageLogger returns a child logger tagged with the given stage name, or
// a silent logger if the caller didn't configure one.
func stageLogger(base *logging.Logger, stage string) *logging.Logger {
	if base == nil {
		base = logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
	}
	return base.WithFields(map[string]interface{}{"stage": stage})
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Alpha == 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.Tau == 0 {
		cfg.Tau = def.Tau
	}
	if cfg.MaxUniverse == 0 {
		cfg.MaxUniverse = def.MaxUniverse
	}
	if cfg.OverheadPerFragment == 0 {
		cfg.OverheadPerFragment = def.OverheadPerFragment
	}
	return cfg
}

func strategyWarnings(res fragment.Result) []string {
	out := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, ctxerrors.Wrap(ctxerrors.ParseError, "fragmenting strategy failed", e).Error())
	}
	return out
}

func errsToStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
