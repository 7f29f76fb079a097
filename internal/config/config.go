// Package config loads and validates the .jslice.yaml run configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".jslice.yaml"

// Config is one jslice run configuration. CLI flags override it.
type Config struct {
	SourceRoot string   `yaml:"source_root" validate:"required"`
	OutputDir  string   `yaml:"output_dir" validate:"required"`
	Targets    []string `yaml:"targets" validate:"dive,required"`
	// Batches are independent target groups run in parallel by `jslice batch`.
	Batches   []Batch  `yaml:"batches" validate:"dive"`
	Classpath []string `yaml:"classpath" validate:"dive,required"`

	Javac         string        `yaml:"javac" validate:"required"`
	OracleTimeout time.Duration `yaml:"oracle_timeout" validate:"gte=0"`
	MaxIterations int           `yaml:"max_iterations" validate:"gte=1,lte=1000"`
	StallLimit    int           `yaml:"stall_limit" validate:"gte=1"`

	MaxFileSize  int64  `yaml:"max_file_size" validate:"gte=0"`
	ParseWorkers int    `yaml:"parse_workers" validate:"gte=0"`
	CacheDir     string `yaml:"cache_dir"`

	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFile     string `yaml:"log_file"`
	MetricsFile string `yaml:"metrics_file"`
	Report      string `yaml:"report"`

	Neo4j Neo4j `yaml:"neo4j"`
}

// Batch is a named target group with its own output directory.
type Batch struct {
	Name      string   `yaml:"name" validate:"required"`
	OutputDir string   `yaml:"output_dir" validate:"required"`
	Targets   []string `yaml:"targets" validate:"min=1,dive,required"`
}

// Neo4j holds the connection used by `jslice export`.
type Neo4j struct {
	URI      string `yaml:"uri" validate:"omitempty,uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SourceRoot:    ".",
		OutputDir:     "jslice-out",
		Javac:         "javac",
		OracleTimeout: 2 * time.Minute,
		MaxIterations: 25,
		StallLimit:    2,
		MaxFileSize:   1_000_000,
		LogLevel:      "info",
		Neo4j: Neo4j{
			URI:  "neo4j://localhost:7687",
			User: "neo4j",
		},
	}
}

// Load reads path over the defaults. A missing file is an error only when
// required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and names every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
