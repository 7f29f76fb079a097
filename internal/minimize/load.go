package minimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/phobologic/jslice/internal/discover"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/parse"
	"github.com/phobologic/jslice/internal/telemetry"
	"github.com/phobologic/jslice/internal/unsolved"
)

// ErrNoSources means the source root holds no Java files.
var ErrNoSources = errors.New("no Java sources found")

// LoadOptions configures Load.
type LoadOptions struct {
	MaxFileSize int64
	Workers     int
	Cache       parse.Cache
	// Classpath jars contribute library type names; they are never emitted.
	Classpath []string
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics
}

// Load discovers and parses the sources under root and builds their
// declaration graph. Duplicate type declarations are logged and skipped.
func Load(ctx context.Context, root string, opts LoadOptions) (g *graph.Graph, err error) {
	ctx, span := telemetry.Start(ctx, "minimize.Load", attribute.String("root", root))
	defer func() { telemetry.End(span, err) }()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	entries, err := discover.Files(root, discover.Options{MaxFileSize: opts.MaxFileSize})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoSources)
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	popts := parse.Options{Workers: opts.Workers, Cache: opts.Cache, Logger: logger}
	if opts.Metrics != nil {
		popts.Observe = func(_ string, cached bool) { opts.Metrics.FileParsed(cached) }
	}
	units, err := parse.Files(ctx, root, paths, popts)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	span.SetAttributes(attribute.Int("files", len(units)))

	g, err = graph.New(units)
	if err != nil {
		logger.Warn("skipped duplicate declarations", "error", err)
	}

	if len(opts.Classpath) > 0 {
		names, err := unsolved.LibraryNames(opts.Classpath)
		if err != nil {
			return nil, fmt.Errorf("reading classpath: %w", err)
		}
		g.AddLibraryTypes(names)
		logger.Debug("loaded classpath", "jars", len(opts.Classpath), "types", len(names))
	}
	logger.Info("loaded sources", "files", len(units), "declarations", g.Len())
	return g, nil
}
