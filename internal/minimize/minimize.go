// Package minimize runs the whole pipeline for one target set: resolve the
// targets, slice, synthesize missing declarations, type-correct against the
// compiler, and write the result.
package minimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/emit"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/oracle"
	"github.com/phobologic/jslice/internal/slice"
	"github.com/phobologic/jslice/internal/target"
	"github.com/phobologic/jslice/internal/telemetry"
	"github.com/phobologic/jslice/internal/toon"
	"github.com/phobologic/jslice/internal/typecorrect"
	"github.com/phobologic/jslice/internal/unsolved"
)

// Errors a run can end with, matched with errors.Is.
var (
	ErrNoTargets            = errors.New("no targets given")
	ErrTargetNotFound       = target.ErrTargetNotFound
	ErrAmbiguousTarget      = target.ErrAmbiguousTarget
	ErrUnfixableDiagnostic  = typecorrect.ErrUnfixableDiagnostic
	ErrIterationCapExceeded = typecorrect.ErrIterationCapExceeded
	ErrStalled              = typecorrect.ErrStalled
	ErrToolInvocation       = oracle.ErrToolInvocation
)

// settleRounds bounds the initial slice and synthesis fixpoint.
const settleRounds = 50

// FailedError is returned when type correction fails. It carries the last
// compiler diagnostics, the diagnostic count of every compile, and the
// targets the candidate did not keep.
type FailedError struct {
	Diagnostics []diag.Diagnostic
	Trend       []int
	Unsatisfied []string
	Err         error
}

func (e *FailedError) Error() string {
	msg := fmt.Sprintf("minimization failed: %v", e.Err)
	if n := len(e.Diagnostics); n > 0 {
		msg += fmt.Sprintf(" (%d diagnostics remain)", n)
	}
	if len(e.Trend) > 1 {
		counts := make([]string, len(e.Trend))
		for i, n := range e.Trend {
			counts[i] = strconv.Itoa(n)
		}
		msg += "; diagnostics per iteration: " + strings.Join(counts, " -> ")
	}
	if len(e.Unsatisfied) > 0 {
		msg += "; unsatisfied targets: " + strings.Join(e.Unsatisfied, ", ")
	}
	return msg
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Options configures Run.
type Options struct {
	Targets  []string
	Compiler oracle.Compiler
	// Classpath is passed to the compiler.
	Classpath []string
	// OutputDir receives the converged program; empty skips writing.
	OutputDir     string
	MaxIterations int
	StallLimit    int
	Strategy      typecorrect.Strategy
	// Root is recorded in the report.
	Root    string
	RunID   string
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// Result is a run's outcome. Report is filled for failed runs as well.
type Result struct {
	RunID      string
	State      typecorrect.State
	Iterations int
	Files      []emit.File
	Report     *toon.Report
}

// Run minimizes g for the configured targets. g is modified; callers that
// reuse a graph pass a clone.
func Run(ctx context.Context, g *graph.Graph, opts Options) (res *Result, err error) {
	if len(opts.Targets) == 0 {
		return nil, ErrNoTargets
	}
	if opts.Compiler == nil {
		return nil, errors.New("no compiler configured")
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("run_id", runID)

	ctx, span := telemetry.Start(ctx, "minimize.Run",
		attribute.String("run_id", runID), attribute.Int("targets", len(opts.Targets)))
	defer func() { telemetry.End(span, err) }()

	ids, err := target.ResolveAll(g, opts.Targets)
	if err != nil {
		if opts.Metrics != nil {
			opts.Metrics.RunFinished("error", 0)
		}
		return nil, fmt.Errorf("resolving targets: %w", err)
	}

	_, sspan := telemetry.Start(ctx, "minimize.Slice")
	s := slice.New(g, logger)
	s.Seed(ids)
	s.Run()
	r := unsolved.New(g, logger)
	changes := r.Fixpoint(s, settleRounds)
	sspan.SetAttributes(attribute.Int("types", len(s.Types())), attribute.Int("synthetic_changes", changes))
	telemetry.End(sspan, nil)
	logger.Info("sliced", "types", len(s.Types()), "members", len(s.Members()), "synthetic_changes", changes)

	loop := typecorrect.New(g, s, r, timed(opts.Compiler, opts.Metrics, logger), typecorrect.Options{
		MaxIterations: opts.MaxIterations,
		StallLimit:    opts.StallLimit,
		Strategy:      opts.Strategy,
		Classpath:     opts.Classpath,
		Logger:        logger,
		Observe: func(_, n int) {
			if opts.Metrics != nil {
				opts.Metrics.Diagnostics(n)
			}
		},
	})
	out, lerr := loop.Run(ctx)

	res = &Result{RunID: runID, State: out.State, Iterations: out.Iterations, Files: out.Files}
	targets, unsatisfied := satisfaction(g, s, opts.Targets, ids)
	res.Report = report(g, s, res, opts.Root, targets, out.Diagnostics)
	if opts.Metrics != nil {
		opts.Metrics.SyntheticChanges(changes)
	}

	if lerr != nil {
		if opts.Metrics != nil {
			opts.Metrics.RunFinished("failed", out.Iterations)
		}
		if logger.Enabled(ctx, slog.LevelDebug) {
			logger.Debug("last diagnostics", "dump", spew.Sdump(out.Diagnostics))
		}
		return res, &FailedError{Diagnostics: out.Diagnostics, Trend: out.Trend, Unsatisfied: unsatisfied, Err: lerr}
	}
	if len(unsatisfied) > 0 {
		if opts.Metrics != nil {
			opts.Metrics.RunFinished("failed", out.Iterations)
		}
		return res, &FailedError{Unsatisfied: unsatisfied, Err: ErrTargetNotFound}
	}

	if opts.OutputDir != "" {
		if err := emit.Write(opts.OutputDir, out.Files); err != nil {
			return res, fmt.Errorf("writing output: %w", err)
		}
		logger.Info("wrote program", "dir", opts.OutputDir, "files", len(out.Files))
	}
	if opts.Metrics != nil {
		opts.Metrics.RunFinished("converged", out.Iterations)
	}
	return res, nil
}

// satisfaction reports, per target, whether the final slice keeps it: methods
// and constructors with their bodies, fields with their declarations.
func satisfaction(g *graph.Graph, s *slice.Slicer, specs []string, ids []model.DeclID) ([]toon.Target, []string) {
	var (
		rows        []toon.Target
		unsatisfied []string
	)
	for i, id := range ids {
		m := g.Member(id)
		ok := m != nil && s.RetainsType(m.Owner)
		if ok && m.Kind == model.Field {
			ok = s.Mode(id) != slice.Dropped
		} else if ok {
			ok = s.Mode(id) == slice.Keep
		}
		decl := ""
		if m != nil {
			decl = g.Type(m.Owner).QName + "#" + m.Signature()
		}
		rows = append(rows, toon.Target{Spec: specs[i], Decl: decl, Satisfied: ok})
		if !ok {
			unsatisfied = append(unsatisfied, specs[i])
		}
	}
	return rows, unsatisfied
}

func report(g *graph.Graph, s *slice.Slicer, res *Result, root string, targets []toon.Target, ds []diag.Diagnostic) *toon.Report {
	rep := &toon.Report{
		RunID:      res.RunID,
		Root:       root,
		State:      res.State.String(),
		Iterations: res.Iterations,
		Targets:    targets,
	}
	for _, id := range s.Types() {
		t := g.Type(id)
		rep.Types = append(rep.Types, toon.Type{QName: t.QName, Kind: string(t.Kind), Synthetic: t.Synthetic})
		for _, m := range t.Members {
			mode := s.Mode(m.ID)
			if mode == slice.Dropped {
				continue
			}
			rep.Members = append(rep.Members, toon.Member{
				Owner: t.QName, Signature: m.Signature(), Mode: mode.String(), Synthetic: m.Synthetic,
			})
		}
	}
	sort.Slice(rep.Types, func(i, j int) bool { return rep.Types[i].QName < rep.Types[j].QName })
	sort.SliceStable(rep.Members, func(i, j int) bool { return rep.Members[i].Owner < rep.Members[j].Owner })
	for _, f := range res.Files {
		rep.Files = append(rep.Files, toon.File{Path: f.Path, Synthetic: f.Synthetic})
	}
	for _, d := range ds {
		rep.Diagnostics = append(rep.Diagnostics, toon.Diagnostic{
			File: d.File, Line: d.Line, Category: string(d.Category), Message: d.Message,
		})
	}
	return rep
}
