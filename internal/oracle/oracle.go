// Package oracle type-checks candidate programs with a Java compiler.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/emit"
)

// ErrToolInvocation means the compiler could not be run or did not finish.
var ErrToolInvocation = errors.New("compiler invocation failed")

// Result is the outcome of one compilation.
type Result struct {
	Success     bool
	Diagnostics []diag.Diagnostic
	Output      string
}

// Compiler type-checks a set of compilation units against a class path.
type Compiler interface {
	Compile(ctx context.Context, units []emit.File, classpath []string) (Result, error)
}

// DefaultTimeout bounds one javac call when Javac.Timeout is zero.
const DefaultTimeout = 2 * time.Minute

// Javac runs the javac executable on units written to a scratch directory.
type Javac struct {
	Path    string // executable; "javac" when empty
	Timeout time.Duration
	Logger  *slog.Logger
}

// Compile writes units to a temporary directory and compiles all of them in
// one invocation. Diagnostic file paths are made relative to the unit root so
// they match emit.File paths.
func (j *Javac) Compile(ctx context.Context, units []emit.File, classpath []string) (Result, error) {
	logger := j.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	exe := j.Path
	if exe == "" {
		exe = "javac"
	}

	dir, err := os.MkdirTemp("", "jslice-javac-")
	if err != nil {
		return Result{}, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcDir := filepath.Join(dir, "src")
	if err := emit.Write(srcDir, units); err != nil {
		return Result{}, err
	}
	args := []string{"-d", filepath.Join(dir, "classes"), "-proc:none", "-Xmaxerrs", "10000", "-sourcepath", srcDir}
	if len(classpath) > 0 {
		args = append(args, "-classpath", strings.Join(classpath, string(os.PathListSeparator)))
	}
	for _, u := range units {
		args = append(args, filepath.Join(srcDir, filepath.FromSlash(u.Path)))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second
	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("javac finished", "units", len(units), "elapsed", time.Since(start), "error", runErr)

	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %s timed out after %s", ErrToolInvocation, exe, timeout)
	}
	output := out.String()
	if runErr == nil {
		return Result{Success: true, Output: output}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return Result{}, fmt.Errorf("%w: %v", ErrToolInvocation, runErr)
	}
	ds := diag.Parse(output)
	if len(ds) == 0 {
		return Result{Output: output}, fmt.Errorf("%w: %s exited with %d and reported no diagnostics", ErrToolInvocation, exe, exitErr.ExitCode())
	}
	prefix := filepath.ToSlash(srcDir) + "/"
	for i := range ds {
		ds[i].File = strings.TrimPrefix(filepath.ToSlash(ds[i].File), prefix)
	}
	return Result{Diagnostics: ds, Output: output}, nil
}
