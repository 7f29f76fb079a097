package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/jslice/internal/config"
)

// TestApplySectionCreate verifies that applySection on empty content wraps the
// section in sentinels with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if !strings.Contains(got, sentinelStart) {
		t.Error("missing sentinel start")
	}
	if !strings.Contains(got, sentinelEnd) {
		t.Error("missing sentinel end")
	}
	if !strings.HasSuffix(got, sentinelEnd+"\n") {
		t.Errorf("section should end with a newline:\n%q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# team overrides\nlog_level: debug"
	section := sentinelStart + "\nnew: 1\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing+"\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.Contains(got, "new: 1") {
		t.Error("new content missing")
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# header\n\n"
	after := "\n\n# trailer\n"
	old := before + sentinelStart + "\nold: 1\n" + sentinelEnd + after

	section := sentinelStart + "\nnew: 1\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old: 1") {
		t.Error("old content should be replaced")
	}
}

// TestInitCreatesLoadableFile verifies that init writes a file that loads to
// the built-in defaults.
func TestInitCreatesLoadableFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stderr.String(), path) {
		t.Errorf("stderr should name the written file, got %q", stderr.String())
	}

	cfg, err := config.Load(path, true)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	want := config.Default()
	if cfg.OutputDir != want.OutputDir || cfg.Javac != want.Javac ||
		cfg.OracleTimeout != want.OracleTimeout || cfg.MaxIterations != want.MaxIterations ||
		cfg.StallLimit != want.StallLimit || cfg.MaxFileSize != want.MaxFileSize ||
		cfg.Neo4j.URI != want.Neo4j.URI || cfg.Neo4j.User != want.Neo4j.User {
		t.Errorf("generated config differs from defaults:\n got %+v\nwant %+v", cfg, want)
	}
	if len(cfg.Targets) != 0 || len(cfg.Batches) != 0 {
		t.Errorf("generated config should have no targets, got %v %v", cfg.Targets, cfg.Batches)
	}
}

// TestInitDryRun verifies that --dry-run prints the full would-be file content
// to stdout and does not create the target file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := os.Stat(path); err == nil {
		t.Error("--dry-run should not create the file")
	}
	out := stdout.String()
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, sentinelEnd) {
		t.Errorf("dry-run output missing sentinels:\n%s", out)
	}
}

// TestInitDryRunNoPath verifies that --dry-run without a path prints just the
// generated section.
func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, sentinelStart) {
		t.Errorf("output should start with the section, got %q", out[:min(len(out), 40)])
	}
}

// TestInitDryRunShowsFullFile verifies that --dry-run on an existing file
// shows the complete would-be file content and leaves the file alone.
func TestInitDryRunShowsFullFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	existing := "# local notes\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), existing) {
		t.Error("dry-run output missing existing file content")
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("--dry-run must not modify the file")
	}
}

// TestInitIdempotent verifies that running init twice produces identical output.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	var buf bytes.Buffer
	if err := run([]string{"init", path}, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := run([]string{"init", path}, &buf, &buf); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestInitSectionDocumentsTargets(t *testing.T) {
	t.Parallel()
	section := generateSection()
	for _, want := range []string{"targets:", "batches:", "com.example.Foo#bar(int)", "JSLICE_NEO4J_PASSWORD"} {
		if !strings.Contains(section, want) {
			t.Errorf("generated section missing %q", want)
		}
	}
}
