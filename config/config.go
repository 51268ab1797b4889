// Package config loads sheetquery settings from defaults, a YAML file,
// SHEETQUERY_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/nao1215/sheetquery/domain/model"
)

// EnvPrefix is the prefix of environment variables read by Load.
// SHEETQUERY_START_RANGE sets start_range.
const EnvPrefix = "SHEETQUERY_"

// Defaults.
const (
	DefaultOutput   = "table"
	DefaultLogLevel = "warn"
)

// Output formats.
var outputFormats = []string{"table", "json", "csv"}

// ErrInvalidConfig is returned when a loaded setting is not usable.
var ErrInvalidConfig = errors.New("sheetquery config: invalid configuration")

// TypeMapping maps the properties of one struct type to worksheet columns.
type TypeMapping struct {
	// Type is the struct type name, for example "Company".
	Type string `koanf:"type"`
	// Columns maps property names to column names.
	Columns map[string]string `koanf:"columns"`
}

// Config holds all sheetquery options.
type Config struct {
	File          string        `koanf:"file"`
	Engine        string        `koanf:"engine"`
	Worksheet     string        `koanf:"worksheet"`
	StartRange    string        `koanf:"start_range"`
	EndRange      string        `koanf:"end_range"`
	NoHeader      bool          `koanf:"no_header"`
	StrictMapping string        `koanf:"strict_mapping"`
	Output        string        `koanf:"output"`
	LogLevel      string        `koanf:"log_level"`
	Mappings      []TypeMapping `koanf:"mappings"`
}

// Load reads the configuration. Later sources override earlier ones:
// defaults, the YAML file at path (optional), environment variables and
// the flags of flags that were explicitly set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"output":         DefaultOutput,
		"log_level":      DefaultLogLevel,
		"strict_mapping": model.StrictMappingNone.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the output format, strict mapping mode and range.
func (c *Config) Validate() error {
	if !slices.Contains(outputFormats, strings.ToLower(c.Output)) {
		return fmt.Errorf("%w: output %q (want one of %s)", ErrInvalidConfig, c.Output, strings.Join(outputFormats, ", "))
	}
	if _, err := c.Strict(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := model.ParseCellRange(c.StartRange, c.EndRange); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, m := range c.Mappings {
		if strings.TrimSpace(m.Type) == "" {
			return fmt.Errorf("%w: mapping without a type", ErrInvalidConfig)
		}
	}
	return nil
}

// Strict returns the parsed strict mapping mode.
func (c *Config) Strict() (model.StrictMapping, error) {
	return model.ParseStrictMapping(c.StrictMapping)
}
