// Package gen drives the build-time pipeline: load the configured packages,
// scan each module for checkable members, resolve canonical arguments and
// capabilities, and render the generated descriptor file.
package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/querycheck/querycheck/internal/scan"
)

// ConfigName is the config file name looked up by FindConfig.
const ConfigName = "querycheck.yaml"

// Config represents the top-level querycheck.yaml configuration.
type Config struct {
	// Modules lists the module types to scan, in output order.
	Modules []ModuleSpec `yaml:"modules"`

	// Canon lists the provider packages whose exported vars become the
	// canonical values.
	Canon []CanonSpec `yaml:"canon"`

	// Output controls the generated file.
	Output OutputSpec `yaml:"output"`
}

// ModuleSpec names one module type to scan.
type ModuleSpec struct {
	// Pkg is the Go import path of the package declaring the type.
	Pkg string `yaml:"pkg"`

	// Type is the module type name. "*Queries" style decoration is
	// accepted and stripped.
	Type string `yaml:"type"`
}

// CanonSpec names one provider package.
type CanonSpec struct {
	// Pkg is the Go import path of the provider package.
	Pkg string `yaml:"pkg"`
}

// OutputSpec controls the generated descriptor file.
type OutputSpec struct {
	// File is the output path, relative to the config file's directory.
	File string `yaml:"file"`

	// Package is the package clause of the generated file.
	Package string `yaml:"package"`

	// Var names the emitted descriptor slice. Defaults to "Descriptors".
	Var string `yaml:"var,omitempty"`
}

// LoadConfig reads and parses a querycheck.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses config data. The path is used in error messages only.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig walks up from dir looking for querycheck.yaml.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent", ConfigName, dir)
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if len(c.Modules) == 0 {
		return fmt.Errorf("%s: modules is empty", path)
	}
	seen := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		if m.Pkg == "" {
			return fmt.Errorf("%s: modules[%d]: pkg is empty", path, i)
		}
		if m.Type == "" {
			return fmt.Errorf("%s: modules[%d]: type is empty", path, i)
		}
		key := m.Pkg + "." + scan.StripDecoration(m.Type)
		if seen[key] {
			return fmt.Errorf("%s: modules[%d]: duplicate module %s", path, i, key)
		}
		seen[key] = true
	}
	if len(c.Canon) == 0 {
		return fmt.Errorf("%s: canon is empty; capability values have to come from somewhere", path)
	}
	seenCanon := make(map[string]bool, len(c.Canon))
	for i, p := range c.Canon {
		if p.Pkg == "" {
			return fmt.Errorf("%s: canon[%d]: pkg is empty", path, i)
		}
		if seenCanon[p.Pkg] {
			return fmt.Errorf("%s: canon[%d]: duplicate canon package %s", path, i, p.Pkg)
		}
		seenCanon[p.Pkg] = true
	}
	if c.Output.File == "" {
		return fmt.Errorf("%s: output.file is empty", path)
	}
	if c.Output.Package == "" {
		return fmt.Errorf("%s: output.package is empty", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Output.Var == "" {
		c.Output.Var = "Descriptors"
	}
}
