// Package config holds the runtime configuration and loads it from YAML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultYieldBudget is the number of reduction steps a fiber runs before it yields
	// its turn. Any positive value preserves the runtime's guarantees.
	DefaultYieldBudget = 2048
	// DefaultNumWorkers selects the single-threaded cooperative scheduler.
	DefaultNumWorkers = 1
	DefaultLogLevel   = "info"
)

// YAML keys, all nested under KeyRuntime.
const (
	KeyRuntime        = "runtime"
	KeyYieldBudget    = "yield_budget"
	KeyNumWorkers     = "num_workers"
	KeyReportFailures = "report_failures"
	KeyLogLevel       = "log_level"
)

type RuntimeConfig struct {
	YieldBudget    int    `yaml:"yield_budget"`
	NumWorkers     int    `yaml:"num_workers"`     // default: 1 (single cooperative worker)
	ReportFailures bool   `yaml:"report_failures"` // log failures of forked fibers
	LogLevel       string `yaml:"log_level"`
}

// NewRuntimeConfig returns a normalized configuration. Non-positive values fall back to
// the defaults.
func NewRuntimeConfig(yieldBudget int, numWorkers int) RuntimeConfig {
	return RuntimeConfig{
		YieldBudget:    yieldBudget,
		NumWorkers:     numWorkers,
		ReportFailures: true,
		LogLevel:       DefaultLogLevel,
	}.Normalize()
}

// Default is the configuration used by the default runtime.
func Default() RuntimeConfig {
	return NewRuntimeConfig(DefaultYieldBudget, DefaultNumWorkers)
}

func (c RuntimeConfig) Normalize() RuntimeConfig {
	if c.YieldBudget <= 0 {
		c.YieldBudget = DefaultYieldBudget
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = DefaultNumWorkers
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

type document struct {
	Runtime *RuntimeConfig `yaml:"runtime"`
}

// Load reads a YAML document and returns its normalized runtime section.
// Fields absent from the document keep their defaults.
func Load(r io.Reader) (RuntimeConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	doc := document{Runtime: &cfg}
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return RuntimeConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.Normalize(), nil
}

// LoadFile reads the configuration from the file at path.
func LoadFile(path string) (RuntimeConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	return Load(bytes.NewReader(raw))
}

// Marshal renders the configuration as a YAML document.
func Marshal(c RuntimeConfig) ([]byte, error) {
	return yaml.Marshal(document{Runtime: &c})
}
