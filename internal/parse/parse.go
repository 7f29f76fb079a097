// Package parse converts Java source files into the declaration model using
// tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// ErrSyntax is returned alongside a best-effort unit when the file contains
// syntax the grammar could not parse.
var ErrSyntax = errors.New("syntax error")

// File parses one Java source file. The parser and query must come from
// lang.Java; path is recorded as the unit's relative path.
func File(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte, path string) (*model.CompilationUnit, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	p := &unitParser{src: source, comments: commentSpans(query, root)}
	cu := p.unit(root, path)
	if root.HasError() {
		return cu, fmt.Errorf("%s: %w", path, ErrSyntax)
	}
	return cu, nil
}

func commentSpans(query *sitter.Query, root *sitter.Node) []span {
	if query == nil {
		return nil
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var spans []span
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			spans = append(spans, span{c.Node.StartByte(), c.Node.EndByte()})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// Cache stores parsed units keyed by file content.
type Cache interface {
	Get(path string, source []byte) (*model.CompilationUnit, bool)
	Put(path string, source []byte, cu *model.CompilationUnit) error
}

// Options configures Files.
type Options struct {
	// Workers bounds parallelism; zero means GOMAXPROCS.
	Workers int
	Cache   Cache
	Logger  *slog.Logger
	// Observe is called once per parsed file, from worker goroutines.
	Observe func(path string, cached bool)
}

// Files parses the given root-relative paths concurrently. Unreadable files
// are skipped with a warning; files with syntax errors are kept. Units are
// returned in input order.
func Files(ctx context.Context, root string, paths []string, opts Options) ([]*model.CompilationUnit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	query, err := lang.Java.CommentQuery()
	if err != nil {
		return nil, err
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	units := make([]*model.CompilationUnit, len(paths))
	work := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		for i := range paths {
			select {
			case work <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range numWorkers {
		g.Go(func() error {
			// Each goroutine gets its own parser
			parser := lang.Java.NewParser()
			defer parser.Close()

			for idx := range work {
				rel := paths[idx]
				source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
				if err != nil {
					logger.Warn("skipping unreadable file", "path", rel, "error", err)
					continue
				}
				if opts.Cache != nil {
					if cu, ok := opts.Cache.Get(rel, source); ok {
						units[idx] = cu
						observe(opts.Observe, rel, true)
						continue
					}
				}
				cu, err := File(ctx, parser, query, source, rel)
				if errors.Is(err, ErrSyntax) {
					logger.Warn("file has syntax errors", "path", rel)
				} else if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					logger.Warn("skipping file", "path", rel, "error", err)
					continue
				}
				units[idx] = cu
				observe(opts.Observe, rel, false)
				if opts.Cache != nil {
					if err := opts.Cache.Put(rel, source, cu); err != nil {
						logger.Debug("parse cache write failed", "path", rel, "error", err)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := units[:0]
	for _, cu := range units {
		if cu != nil {
			out = append(out, cu)
		}
	}
	return out, nil
}

func observe(fn func(string, bool), path string, cached bool) {
	if fn != nil {
		fn(path, cached)
	}
}

// Source parses in-memory source text. It is a convenience for tests and for
// re-parsing emitted units.
func Source(ctx context.Context, source, path string) (*model.CompilationUnit, error) {
	query, err := lang.Java.CommentQuery()
	if err != nil {
		return nil, err
	}
	parser := lang.Java.NewParser()
	defer parser.Close()
	return File(ctx, parser, query, []byte(source), path)
}
