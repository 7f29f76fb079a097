package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/jslice/internal/config"
)

const (
	sentinelStart = "# jslice:start"
	sentinelEnd   = "# jslice:end"
)

// initCommand implements `jslice init`, which writes (or updates) the
// commented default configuration in a .jslice.yaml file.
func (a *app) initCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented default " + config.DefaultFile,
		Long: `Write the default jslice configuration to a YAML file. The section is wrapped
in sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path defaults to ./` + config.DefaultFile + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(a.stdout, section)
				return nil
			}

			path := config.DefaultFile
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(a.stderr, "wrote jslice config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped default configuration. Every
// value matches config.Default.
func generateSection() string {
	body := `# jslice configuration. CLI flags override these values.

# Directory scanned for .java files. .gitignore rules are honored.
source_root: .
# Where the minimized program is written. Existing files are overwritten.
output_dir: jslice-out

# Members to keep, as <qualified type>#<method>(<param types>) or
# <qualified type>#<field>. Parameter types match by simple name.
targets: []
#  - com.example.Foo#bar(int)
#  - com.example.Foo#LIMIT

# Independent target groups minimized in parallel by "jslice batch".
batches: []
#  - name: foo
#    output_dir: out/foo
#    targets:
#      - com.example.Foo#bar(int)

# Jars whose classes are known library types and are never synthesized.
classpath: []

# Compiler used to check each candidate.
javac: javac
oracle_timeout: 2m
# Type correction gives up after this many compiles, or after stall_limit
# compiles in a row that do not reduce the diagnostic count.
max_iterations: 25
stall_limit: 2

# Files larger than this many bytes are skipped.
max_file_size: 1000000
# 0 uses one worker per CPU.
parse_workers: 0
# Persistent parse cache; empty disables it.
cache_dir: ""

log_level: info
log_file: ""
metrics_file: ""
# TOON run report written after minimize; empty disables it.
report: ""

# Used by "jslice export". The password is read from JSLICE_NEO4J_PASSWORD.
neo4j:
  uri: neo4j://localhost:7687
  user: neo4j
  database: ""`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
