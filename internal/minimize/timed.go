package minimize

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/phobologic/jslice/internal/emit"
	"github.com/phobologic/jslice/internal/oracle"
	"github.com/phobologic/jslice/internal/telemetry"
)

// timedCompiler wraps every compile in a span and records its latency.
type timedCompiler struct {
	c   oracle.Compiler
	m   *telemetry.Metrics
	log *slog.Logger
}

func timed(c oracle.Compiler, m *telemetry.Metrics, logger *slog.Logger) oracle.Compiler {
	return &timedCompiler{c: c, m: m, log: logger}
}

func (t *timedCompiler) Compile(ctx context.Context, units []emit.File, classpath []string) (oracle.Result, error) {
	ctx, span := telemetry.Start(ctx, "oracle.Compile", attribute.Int("units", len(units)))
	start := time.Now()
	res, err := t.c.Compile(ctx, units, classpath)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("diagnostics", len(res.Diagnostics)), attribute.Bool("success", res.Success))
	telemetry.End(span, err)
	if t.m != nil {
		t.m.OracleCall(elapsed, res.Success)
	}
	t.log.Debug("compiled candidate", "units", len(units), "diagnostics", len(res.Diagnostics), "elapsed", elapsed)
	return res, err
}
