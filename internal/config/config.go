// Package config holds simulation configuration and its validation rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks construction-time validation failures. These are
// fatal and never silently defaulted.
var ErrInvalidConfig = errors.New("invalid config")

// EngineConfig is immutable for the lifetime of a run.
type EngineConfig struct {
	EntityCount    int     `yaml:"entity_count"`
	TransactionFee float64 `yaml:"transaction_fee"` // fraction of price, deducted from seller proceeds
	TaxRate        float64 `yaml:"tax_rate"`        // fraction of proceeds after fee
	MinSkillPrice  float64 `yaml:"min_skill_price"`
	MaxSkillPrice  float64 `yaml:"max_skill_price"`

	// Population generation parameters.
	InitialMoney   float64 `yaml:"initial_money"`
	BaseSkillPrice float64 `yaml:"base_skill_price"`
	SkillCount     int     `yaml:"skill_count"` // distinct skills in the market
	Seed           int64   `yaml:"seed"`

	// TaxRedistribution splits each step's collected taxes equally among
	// active entities at step end.
	TaxRedistribution bool `yaml:"tax_redistribution"`
}

// SimConfig is the full process configuration around one engine run.
type SimConfig struct {
	Engine EngineConfig `yaml:"engine"`

	Steps      int    `yaml:"steps"`
	OutputPath string `yaml:"output_path"`
	Compress   bool   `yaml:"compress"`

	Checkpoint struct {
		Path     string `yaml:"path"`
		Interval int    `yaml:"interval"` // steps between auto-checkpoints, 0 disables
		Resume   bool   `yaml:"resume"`
	} `yaml:"checkpoint"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables the run recorder
	} `yaml:"database"`

	MetricsAddr string `yaml:"metrics_addr"` // empty disables /metrics
	LogLevel    string `yaml:"log_level"`
}

// Default returns a runnable configuration; Load starts from it so a missing
// file still yields a working simulation.
func Default() *SimConfig {
	cfg := &SimConfig{
		Engine: EngineConfig{
			EntityCount:    100,
			TransactionFee: 0.01,
			TaxRate:        0.05,
			MinSkillPrice:  1.0,
			MaxSkillPrice:  100.0,
			InitialMoney:   100.0,
			BaseSkillPrice: 10.0,
			SkillCount:     20,
			Seed:           42,
		},
		Steps:    100,
		LogLevel: "info",
	}
	return cfg
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then validates. A missing file is not an error; defaults apply.
func Load(path string) (*SimConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("AGORA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: AGORA_SEED: %v", ErrInvalidConfig, err)
		}
		cfg.Engine.Seed = seed
	}
	if v := os.Getenv("AGORA_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("AGORA_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the engine invariants: rates in [0,1], positive
// population, and an ordered price band.
func (c *EngineConfig) Validate() error {
	if c.EntityCount <= 0 {
		return fmt.Errorf("%w: entity_count must be positive, got %d", ErrInvalidConfig, c.EntityCount)
	}
	if c.TransactionFee < 0 || c.TransactionFee > 1 {
		return fmt.Errorf("%w: transaction_fee must be in [0,1], got %g", ErrInvalidConfig, c.TransactionFee)
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("%w: tax_rate must be in [0,1], got %g", ErrInvalidConfig, c.TaxRate)
	}
	if c.MinSkillPrice > c.MaxSkillPrice {
		return fmt.Errorf("%w: min_skill_price %g exceeds max_skill_price %g", ErrInvalidConfig, c.MinSkillPrice, c.MaxSkillPrice)
	}
	if c.MinSkillPrice < 0 {
		return fmt.Errorf("%w: min_skill_price must be non-negative, got %g", ErrInvalidConfig, c.MinSkillPrice)
	}
	if c.InitialMoney < 0 {
		return fmt.Errorf("%w: initial_money must be non-negative, got %g", ErrInvalidConfig, c.InitialMoney)
	}
	if c.SkillCount <= 0 {
		return fmt.Errorf("%w: skill_count must be positive, got %d", ErrInvalidConfig, c.SkillCount)
	}
	return nil
}

// Validate checks the process-level settings on top of the engine ones.
func (c *SimConfig) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Checkpoint.Interval < 0 {
		return fmt.Errorf("%w: checkpoint interval must be non-negative, got %d", ErrInvalidConfig, c.Checkpoint.Interval)
	}
	return nil
}
