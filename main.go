// jslice slices Java sources down to a minimal compilable program that keeps
// a set of target members.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/jslice/internal/cache"
	"github.com/phobologic/jslice/internal/config"
	"github.com/phobologic/jslice/internal/export"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/logging"
	"github.com/phobologic/jslice/internal/minimize"
	"github.com/phobologic/jslice/internal/oracle"
	"github.com/phobologic/jslice/internal/slice"
	"github.com/phobologic/jslice/internal/target"
	"github.com/phobologic/jslice/internal/telemetry"
	"github.com/phobologic/jslice/internal/toon"
	"github.com/phobologic/jslice/internal/unsolved"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by subcommands: the merged configuration and the
// ambient services built from it.
type app struct {
	stdout, stderr io.Writer

	configPath string
	cfg        config.Config
	log        *slog.Logger
	metrics    *telemetry.Metrics
	cleanup    []func()
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.close()
	return root.Execute()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jslice",
		Short:         "Slice Java sources to a minimal compilable program around target members",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate("jslice {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultFile, "config file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.String("metrics-file", "", "write Prometheus metrics to this file at exit")

	root.AddCommand(a.minimizeCommand(), a.batchCommand(), a.exportCommand(), a.initCommand())
	return root
}

// setup loads the config, applies flag overrides, and builds the logger and
// metrics.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, cleanup, err := logging.Setup(a.stderr, cfg.LogFile, level)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	a.log = logger
	a.cleanup = append(a.cleanup, cleanup)
	a.metrics = telemetry.NewMetrics()
	return nil
}

func (a *app) close() {
	if a.metrics != nil && a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			a.log.Warn("metrics not written", "error", err)
		}
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	strs := func(name string, dst *[]string) {
		if f.Changed(name) {
			*dst, _ = f.GetStringArray(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("log-file", &cfg.LogFile)
	str("metrics-file", &cfg.MetricsFile)
	str("output", &cfg.OutputDir)
	str("javac", &cfg.Javac)
	str("cache-dir", &cfg.CacheDir)
	str("report", &cfg.Report)
	str("neo4j-uri", &cfg.Neo4j.URI)
	str("neo4j-user", &cfg.Neo4j.User)
	str("neo4j-database", &cfg.Neo4j.Database)
	strs("target", &cfg.Targets)
	strs("classpath", &cfg.Classpath)
	num("max-iterations", &cfg.MaxIterations)
	num("stall-limit", &cfg.StallLimit)
	num("workers", &cfg.ParseWorkers)
	if f.Changed("timeout") {
		cfg.OracleTimeout, _ = f.GetDuration("timeout")
	}
	if f.Changed("max-file-size") {
		cfg.MaxFileSize, _ = f.GetInt64("max-file-size")
	}
	if pw := os.Getenv("JSLICE_NEO4J_PASSWORD"); pw != "" {
		cfg.Neo4j.Password = pw
	}
	if args := f.Args(); len(args) > 0 {
		cfg.SourceRoot = args[0]
	}
}

// sourceFlags are shared by every command that loads sources.
func sourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArray("classpath", nil, "jar whose classes count as known library types (repeatable)")
	f.String("cache-dir", "", "parse cache directory")
	f.Int("workers", 0, "parse workers (0 = GOMAXPROCS)")
	f.Int64("max-file-size", 0, "skip source files larger than this many bytes")
}

// correctionFlags configure the minimize pipeline.
func correctionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("javac", "", "compiler executable")
	f.Duration("timeout", 0, "per-compile timeout")
	f.Int("max-iterations", 0, "type-correction iteration cap")
	f.Int("stall-limit", 0, "iterations without fewer diagnostics before giving up")
}

func (a *app) minimizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minimize [source-root]",
		Short: "Minimize the sources for the configured targets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := minimize.Run(cmd.Context(), g, a.runOptions(a.cfg.Targets, a.cfg.OutputDir))
			if res != nil && a.cfg.Report != "" {
				if werr := writeReport(a.cfg.Report, res.Report); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "wrote %d files to %s in %d iterations\n", len(res.Files), a.cfg.OutputDir, res.Iterations)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArray("target", nil, "target member, e.g. com.example.Foo#bar(int) (repeatable)")
	f.StringP("output", "o", "", "output directory")
	f.String("report", "", "write a TOON run report to this file")
	sourceFlags(cmd)
	correctionFlags(cmd)
	return cmd
}

func (a *app) batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [source-root]",
		Short: "Minimize every configured batch in parallel over one parse",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if len(a.cfg.Batches) == 0 {
				return errors.New("no batches configured")
			}
			g, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return a.runBatches(cmd.Context(), g)
		},
	}
	sourceFlags(cmd)
	correctionFlags(cmd)
	return cmd
}

// runBatches minimizes each batch on its own clone of g. Every batch runs to
// completion; failures are joined.
func (a *app) runBatches(ctx context.Context, g *graph.Graph) error {
	errs := make([]error, len(a.cfg.Batches))
	var eg errgroup.Group
	eg.SetLimit(max(a.cfg.ParseWorkers, 4))
	for i, b := range a.cfg.Batches {
		clone, err := g.Clone()
		if err != nil {
			return err
		}
		eg.Go(func() error {
			opts := a.runOptions(b.Targets, b.OutputDir)
			opts.Logger = a.log.With("batch", b.Name)
			res, err := minimize.Run(ctx, clone, opts)
			if err != nil {
				errs[i] = fmt.Errorf("batch %s: %w", b.Name, err)
				return nil
			}
			a.log.Info("batch converged", "batch", b.Name, "files", len(res.Files), "iterations", res.Iterations)
			return nil
		})
	}
	_ = eg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "minimized %d batches\n", len(a.cfg.Batches))
	return nil
}

func (a *app) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [source-root]",
		Short: "Load the declaration graph into Neo4j, sliced for the configured targets if any",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			g, err := a.load(ctx)
			if err != nil {
				return err
			}
			snap, err := a.snapshot(g)
			if err != nil {
				return err
			}
			n := a.cfg.Neo4j
			d, err := export.Connect(n.URI, n.User, n.Password, n.Database)
			if err != nil {
				return err
			}
			defer d.Close(ctx)
			if err := d.Verify(ctx); err != nil {
				return fmt.Errorf("connecting to %s: %w", n.URI, err)
			}
			if err := export.NewLoader(d, a.log).Load(ctx, snap); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "exported %d types and %d members\n", len(snap.Types), len(snap.Members))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArray("target", nil, "slice for this target before exporting (repeatable)")
	f.String("neo4j-uri", "", "Neo4j URI")
	f.String("neo4j-user", "", "Neo4j user; the password is read from JSLICE_NEO4J_PASSWORD")
	f.String("neo4j-database", "", "Neo4j database")
	sourceFlags(cmd)
	return cmd
}

// snapshot collects g, first slicing and synthesizing for the configured
// targets when there are any.
func (a *app) snapshot(g *graph.Graph) (export.Snapshot, error) {
	if len(a.cfg.Targets) == 0 {
		return export.Collect(g, nil), nil
	}
	ids, err := target.ResolveAll(g, a.cfg.Targets)
	if err != nil {
		return export.Snapshot{}, err
	}
	s := slice.New(g, a.log)
	s.Seed(ids)
	s.Run()
	unsolved.New(g, a.log).Fixpoint(s, 50)
	return export.Collect(g, s), nil
}

func (a *app) load(ctx context.Context) (*graph.Graph, error) {
	root, err := filepath.Abs(a.cfg.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	opts := minimize.LoadOptions{
		MaxFileSize: a.cfg.MaxFileSize,
		Workers:     a.cfg.ParseWorkers,
		Classpath:   a.cfg.Classpath,
		Logger:      a.log,
		Metrics:     a.metrics,
	}
	if a.cfg.CacheDir != "" {
		c, err := cache.Open(a.cfg.CacheDir, a.log)
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, func() { _ = c.Close() })
		opts.Cache = c
	}
	return minimize.Load(ctx, root, opts)
}

func (a *app) runOptions(targets []string, out string) minimize.Options {
	return minimize.Options{
		Targets: targets,
		Compiler: &oracle.Javac{
			Path:    a.cfg.Javac,
			Timeout: a.cfg.OracleTimeout,
			Logger:  a.log,
		},
		Classpath:     a.cfg.Classpath,
		OutputDir:     out,
		MaxIterations: a.cfg.MaxIterations,
		StallLimit:    a.cfg.StallLimit,
		Root:          a.cfg.SourceRoot,
		Logger:        a.log,
		Metrics:       a.metrics,
	}
}

func writeReport(path string, r *toon.Report) error {
	if err := os.WriteFile(path, []byte(toon.Encode(r)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
