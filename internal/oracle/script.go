package oracle

import (
	"context"
	"sync"

	"github.com/phobologic/jslice/internal/emit"
)

// Script is a Compiler that replays canned results, one per call. Once the
// results run out every further call succeeds. It records the units of every
// call.
type Script struct {
	Results []Result
	Err     error

	mu    sync.Mutex
	calls [][]emit.File
}

// Compile returns the next scripted result.
func (s *Script) Compile(ctx context.Context, units []emit.File, classpath []string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	n := len(s.calls)
	s.calls = append(s.calls, units)
	if s.Err != nil {
		return Result{}, s.Err
	}
	if n < len(s.Results) {
		return s.Results[n], nil
	}
	return Result{Success: true}, nil
}

// Calls returns the units passed to each call so far.
func (s *Script) Calls() [][]emit.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]emit.File, len(s.calls))
	copy(out, s.calls)
	return out
}
