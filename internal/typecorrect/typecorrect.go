// Package typecorrect drives the compile-and-patch loop that makes a sliced
// program with synthetic declarations type-check.
//
// Each iteration renders the retained program, compiles it, and turns every
// diagnostic into patches on synthetic declarations. Patches of one
// iteration are planned against the unchanged graph and committed together;
// the resolver and slicer then settle before the next compile. The loop
// fails as soon as a diagnostic has no patch, when the diagnostic count
// stops falling, or at the iteration cap.
package typecorrect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/emit"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/oracle"
	"github.com/phobologic/jslice/internal/slice"
	"github.com/phobologic/jslice/internal/unsolved"
)

var (
	// ErrUnfixableDiagnostic means a diagnostic names no synthetic
	// declaration that could be patched, or no patch changed anything.
	ErrUnfixableDiagnostic = errors.New("unfixable diagnostic")
	// ErrIterationCapExceeded means the loop ran out of iterations.
	ErrIterationCapExceeded = errors.New("type correction iteration cap exceeded")
	// ErrStalled means the diagnostic count stopped decreasing. It is a kind
	// of ErrIterationCapExceeded.
	ErrStalled = fmt.Errorf("%w: diagnostic count stopped decreasing", ErrIterationCapExceeded)
)

const (
	DefaultMaxIterations = 25
	DefaultStallLimit    = 2

	settleRounds = 50
)

// State is the loop's position in its state machine.
type State uint8

const (
	Compiling State = iota
	Patching
	Converged
	Failed
)

func (s State) String() string {
	switch s {
	case Compiling:
		return "compiling"
	case Patching:
		return "patching"
	case Converged:
		return "converged"
	}
	return "failed"
}

// Options configures a Loop.
type Options struct {
	MaxIterations int
	StallLimit    int
	Strategy      Strategy
	Classpath     []string
	Logger        *slog.Logger
	// Observe is called after every compilation.
	Observe func(iteration, diagnostics int)
}

// Result is the outcome of Run.
type Result struct {
	State      State
	Iterations int
	// Files is the last rendered program; on convergence it compiles.
	Files       []emit.File
	Diagnostics []diag.Diagnostic
	// Trend holds the diagnostic count of every compile, in order.
	Trend []int
}

// Loop corrects one graph. It is not safe for concurrent use.
type Loop struct {
	g     *graph.Graph
	s     *slice.Slicer
	r     *unsolved.Resolver
	c     oracle.Compiler
	opts  Options
	log   *slog.Logger
	state State

	demands map[string][]*model.TypeRef
}

// New returns a loop over g that patches through r, re-slices with s, and
// compiles with c.
func New(g *graph.Graph, s *slice.Slicer, r *unsolved.Resolver, c oracle.Compiler, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.StallLimit <= 0 {
		opts.StallLimit = DefaultStallLimit
	}
	l := &Loop{g: g, s: s, r: r, c: c, opts: opts, log: opts.Logger, demands: make(map[string][]*model.TypeRef)}
	if l.log == nil {
		l.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.opts.Strategy == nil {
		l.opts.Strategy = Widening{Synthetic: l.isSyntheticClass}
	}
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	return l.state
}

// Run compiles and patches until the program compiles or the loop fails.
// A failed run returns the last diagnostics along with the error.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	var res Result
	prev, stalls := -1, 0
	for i := 1; ; i++ {
		if i > l.opts.MaxIterations {
			return l.fail(res), fmt.Errorf("%w: %d iterations", ErrIterationCapExceeded, l.opts.MaxIterations)
		}
		l.state = Compiling
		res.Iterations = i
		res.Files = emit.Render(l.g, l.s)
		out, err := l.c.Compile(ctx, res.Files, l.opts.Classpath)
		if err != nil {
			return l.fail(res), fmt.Errorf("compiling candidate: %w", err)
		}
		res.Diagnostics = out.Diagnostics
		res.Trend = append(res.Trend, len(out.Diagnostics))
		if l.opts.Observe != nil {
			l.opts.Observe(i, len(out.Diagnostics))
		}
		if out.Success {
			l.state = Converged
			res.State = Converged
			l.log.Info("type correction converged", "iterations", i)
			return res, nil
		}

		n := len(out.Diagnostics)
		l.log.Debug("candidate rejected", "iteration", i, "diagnostics", n)
		if prev >= 0 && n >= prev {
			stalls++
			if stalls >= l.opts.StallLimit {
				return l.fail(res), fmt.Errorf("%w: %d diagnostics after %d iterations", ErrStalled, n, i)
			}
		} else {
			stalls = 0
		}
		prev = n

		l.state = Patching
		b, err := l.plan(out.Diagnostics)
		if err != nil {
			return l.fail(res), err
		}
		if !l.commit(b) {
			return l.fail(res), fmt.Errorf("%w: no patch changed the program", ErrUnfixableDiagnostic)
		}
		l.s.Extend()
		l.r.Fixpoint(l.s, settleRounds)
	}
}

func (l *Loop) fail(res Result) Result {
	l.state = Failed
	res.State = Failed
	return res
}

// patch is one planned change. apply reports whether it changed the graph.
type patch struct {
	what  string
	apply func() bool
}

// demand records that a generated type is used where want is required.
type demand struct {
	qname string
	want  *model.TypeRef
}

type batch struct {
	patches []patch
	demands []demand
}

func (b *batch) add(what string, fn func() bool) {
	b.patches = append(b.patches, patch{what: what, apply: fn})
}

func (b *batch) size() int {
	return len(b.patches) + len(b.demands)
}

// plan turns diagnostics into patches without touching the graph.
func (l *Loop) plan(ds []diag.Diagnostic) (*batch, error) {
	b := &batch{}
	for _, d := range ds {
		before := b.size()
		l.planOne(d, b)
		if b.size() == before {
			return nil, fmt.Errorf("%w: %s:%d: %s", ErrUnfixableDiagnostic, d.File, d.Line, d.Message)
		}
	}
	return b, nil
}

func (l *Loop) planOne(d diag.Diagnostic, b *batch) {
	switch d.Category {
	case diag.IncompatibleTypes, diag.ReturnTypeIncompatible:
		l.mismatch(d, d.Found, d.Required, b)
	case diag.IncomparableTypes:
		before := b.size()
		l.mismatch(d, d.Found, d.Required, b)
		if b.size() == before {
			l.mismatch(d, d.Required, d.Found, b)
		}
	case diag.BadOperandTypes:
		l.operands(d, b)
	case diag.ForEachNotApplicable:
		l.forEach(d, b)
	case diag.UnreportedException, diag.NeverThrown:
		l.exception(d, b)
	case diag.MissingOverride:
		l.missingOverride(d, b)
	case diag.DoesNotOverride:
		l.doesNotOverride(d, b)
	case diag.CannotFindSymbol:
		l.cannotFind(d, b)
	case diag.ArgumentMismatch:
		l.arguments(d, b)
	}
}

// commit applies every planned patch, then settles the demands on each
// generated type with the strategy.
func (l *Loop) commit(b *batch) bool {
	changed := false
	for _, p := range b.patches {
		if p.apply() {
			changed = true
			l.log.Debug("patched", "patch", p.what)
		}
	}
	var order []string
	fresh := make(map[string]bool)
	for _, d := range b.demands {
		if !fresh[d.qname] {
			fresh[d.qname] = true
			order = append(order, d.qname)
		}
		l.demands[d.qname] = append(l.demands[d.qname], d.want)
	}
	for _, qname := range order {
		sites := l.r.UseSites(qname)
		if len(sites) == 0 {
			continue
		}
		ret := false
		for _, m := range sites {
			if m.Kind == model.Method {
				ret = true
			}
		}
		bound := l.opts.Strategy.LUB(l.demands[qname], ret)
		for _, a := range bound.Absorb {
			if t := l.g.Lookup(a.Name); t != nil && l.r.AddSupertype(t, bound.Type, l.isInterface(bound.Type.Name)) {
				changed = true
			}
		}
		to := bound.Type
		if to == nil {
			to = model.NewRef("java.lang.Object")
		}
		if len(l.r.Retype(qname, to, bound.TypeVar)) > 0 {
			changed = true
			l.log.Debug("retyped", "type", qname, "to", to.String(), "type_var", bound.TypeVar)
		}
	}
	return changed
}
