package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/AgentOS/electron/internal/client"
)

// launchFile is the YAML form of a launch.
type launchFile struct {
	Executable string            `yaml:"executable"`
	Args       []string          `yaml:"args"`
	Cwd        string            `yaml:"cwd"`
	Env        map[string]string `yaml:"env"`
	Timeout    string            `yaml:"timeout"`
	Window     bool              `yaml:"window"`
	Evaluate   []string          `yaml:"evaluate"`
}

func readLaunchFile(path string) (*launchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseLaunchFile(data)
}

func parseLaunchFile(data []byte) (*launchFile, error) {
	var f launchFile
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse launch file: %w", err)
	}
	if f.Timeout != "" {
		if _, err := time.ParseDuration(f.Timeout); err != nil {
			return nil, fmt.Errorf("launch file timeout: %w", err)
		}
	}
	return &f, nil
}

// options converts the file into launch options. The timeout was checked
// when parsing.
func (f *launchFile) options() client.LaunchOptions {
	opts := client.LaunchOptions{
		Args: f.Args,
		Cwd:  f.Cwd,
		Env:  f.Env,
	}
	if f.Timeout != "" {
		d, _ := time.ParseDuration(f.Timeout)
		opts.Timeout = client.Duration(d)
	}
	return opts
}
