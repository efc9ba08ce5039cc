// Package config loads the two configuration surfaces named in
// SPEC_FULL.md §10: a per-regression YAML file (which tests to run, in
// what order, with what per-test timeout) and a per-simulator TOML
// profile (which backend, which shared library to load), the Go-native
// analogue of cocotb's Makefile variables and per-simulator includes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// TestEntry names one registered test and an optional timeout override.
type TestEntry struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// RegressionConfig lists the tests a `cocoro run` invocation should
// register, in order, plus a default time unit name ("ns" when absent)
// and timeouts. The loader only records DefaultUnit and the timeouts:
// trigger.Timer does not read DefaultUnit, and `cocoro run` applies no
// timeout.
type RegressionConfig struct {
	Tests       []TestEntry   `yaml:"tests"`
	DefaultUnit string        `yaml:"default_unit"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// LoadRegressionConfig reads and validates a RegressionConfig from path.
func LoadRegressionConfig(path string) (*RegressionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg RegressionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(cfg.Tests) == 0 {
		return nil, fmt.Errorf("config: %s registers no tests", path)
	}
	if cfg.DefaultUnit == "" {
		cfg.DefaultUnit = "ns"
	}
	return &cfg, nil
}

// SimulatorProfile names which GPI backend `cocoro run` loads and where
// its shared library lives. The "fake" backend selects the in-process
// simhost.Adapter used by every test in this module.
type SimulatorProfile struct {
	Backend    string `toml:"backend"`
	LibraryPath string `toml:"library_path"`
	Toplevel   string `toml:"toplevel"`
}

// LoadSimulatorProfile reads and validates a SimulatorProfile from path.
func LoadSimulatorProfile(path string) (*SimulatorProfile, error) {
	var p SimulatorProfile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if p.Backend == "" {
		return nil, fmt.Errorf("config: %s missing backend", path)
	}
	if p.Backend != "fake" && p.LibraryPath == "" {
		return nil, fmt.Errorf("config: %s backend %q requires library_path", path, p.Backend)
	}
	return &p, nil
}
