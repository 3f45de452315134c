package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ToolConfig is the optional clrcall.yaml next to the working
// directory. All fields are optional; a missing file yields defaults.
type ToolConfig struct {
	// RuntimeRoot overrides the runtime installation root probed by
	// the locator.
	RuntimeRoot string `yaml:"runtime_root"`

	// ProbePaths are additional installation roots, tried in order
	// after RuntimeRoot.
	ProbePaths []string `yaml:"probe_paths"`

	// LogLevel selects verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

const toolConfigName = "clrcall.yaml"

func loadToolConfig(path string) (*ToolConfig, error) {
	if path == "" {
		path = toolConfigName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ToolConfig{}, nil
		}
		return nil, err
	}
	var cfg ToolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ToolConfig) roots() []string {
	var roots []string
	if c.RuntimeRoot != "" {
		roots = append(roots, c.RuntimeRoot)
	}
	return append(roots, c.ProbePaths...)
}
