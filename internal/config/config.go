// Package config loads daemon configuration written in CUE.
//
// A config file is unified with the embedded #Config schema, which supplies
// defaults and constraints:
//
//	window:       250
//	log_path:     "/var/log/provgraph/audit.log"
//	database:     "/var/lib/provgraph/edges.db"
//	metrics_addr: ":9464"
//
// Unknown fields are rejected because #Config is a closed definition.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is the daemon configuration.
type Config struct {
	Window      int    `json:"window"`
	LogPath     string `json:"log_path"`
	Database    string `json:"database,omitempty"`
	Workers     int    `json:"workers"`
	MetricsAddr string `json:"metrics_addr,omitempty"`
	OpaqueLog   bool   `json:"opaque_log"`
}

// ConfigError reports an invalid configuration, with the CUE source
// position when one is known.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse([]byte("{}"), "default.cue")
	if err != nil {
		panic(fmt.Sprintf("embedded config schema: %v", err))
	}
	return cfg
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against #Config and decodes it.
// filename is used in error positions only.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a Config built or modified outside Parse, e.g. after
// command-line overrides.
func (c Config) Validate() error {
	if c.Window < 1 {
		return &ConfigError{Field: "window", Message: fmt.Sprintf("must be positive, got %d", c.Window)}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Message: fmt.Sprintf("must be positive, got %d", c.Workers)}
	}
	if c.LogPath == "" {
		return &ConfigError{Field: "log_path", Message: "must not be empty"}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "config"
	if path := first.Path(); len(path) > 0 {
		field = path[len(path)-1]
	}
	positions := errors.Positions(first)
	var pos token.Pos
	if len(positions) > 0 {
		pos = positions[0]
	}
	return &ConfigError{Field: field, Message: first.Error(), Pos: pos}
}
