// Package config loads benchmark settings. Defaults reproduce the fixed
// scenario; an optional YAML file may override them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weiihann/backupbench/harness"
	"github.com/weiihann/backupbench/workload"
)

const megabyte = 1 << 20

// Config is the on-disk configuration.
type Config struct {
	Files     int   `yaml:"files"`
	Megabytes int64 `yaml:"megabytes"`
	Seed      int64 `yaml:"seed"`

	Mirror      StrategyConfig `yaml:"mirror"`
	MarkerGated StrategyConfig `yaml:"marker_gated"`
}

// StrategyConfig describes how to invoke one backup tool.
type StrategyConfig struct {
	Name   string   `yaml:"name"`
	Binary string   `yaml:"binary"`
	Args   []string `yaml:"args"`
}

// Default returns 10 files of 50 MB, rsync -a and rsync-time-machine.
func Default() Config {
	mirror := harness.DefaultMirror()
	gated := harness.DefaultMarkerGated()

	return Config{
		Files:     10,
		Megabytes: 50,
		Mirror: StrategyConfig{
			Name:   mirror.Label,
			Binary: mirror.Binary,
			Args:   mirror.ExtraArgs,
		},
		MarkerGated: StrategyConfig{
			Name:   gated.Label,
			Binary: gated.Binary,
			Args:   gated.ExtraArgs,
		},
	}
}

// LoadFile reads a YAML file on top of Default. Keys absent from the
// file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse YAML: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings that cannot produce a run.
func (c Config) Validate() error {
	if err := c.Workload().Validate(); err != nil {
		return err
	}
	if c.Mirror.Binary == "" {
		return errors.New("mirror binary must be set")
	}
	if c.MarkerGated.Binary == "" {
		return errors.New("marker_gated binary must be set")
	}

	return nil
}

// Workload returns the dataset shape.
func (c Config) Workload() workload.Config {
	return workload.Config{
		Files:    c.Files,
		FileSize: c.Megabytes * megabyte,
		Seed:     c.Seed,
	}
}

// MirrorStrategy builds the direct-mirror strategy.
func (c Config) MirrorStrategy() *harness.Mirror {
	return &harness.Mirror{
		Label:     labelOr(c.Mirror, "rsync"),
		Binary:    c.Mirror.Binary,
		ExtraArgs: c.Mirror.Args,
	}
}

// MarkerGatedStrategy builds the marker-gated strategy.
func (c Config) MarkerGatedStrategy() *harness.MarkerGated {
	return &harness.MarkerGated{
		Label:     labelOr(c.MarkerGated, "rsync-time-machine"),
		Binary:    c.MarkerGated.Binary,
		ExtraArgs: c.MarkerGated.Args,
	}
}

func labelOr(s StrategyConfig, fallback string) string {
	if s.Name != "" {
		return s.Name
	}

	return fallback
}
