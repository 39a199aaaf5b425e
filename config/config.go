// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cpenarrieta/room-engine/engine"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Schedule struct {
		// Cron spec for the monthly over-contribution sweep.
		MonthlySweep string `yaml:"monthly_sweep"`
	} `yaml:"schedule"`
	Extract struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"extract"`
	Rules struct {
		AnnualRoomIncrement    float64 `yaml:"annual_room_increment"`
		RoomBuffer             float64 `yaml:"room_buffer"`
		PenaltyRate            float64 `yaml:"penalty_rate"`
		EducationLifetimeLimit float64 `yaml:"education_lifetime_limit"`
		DiscrepancyTolerance   float64 `yaml:"discrepancy_tolerance"`
	} `yaml:"rules"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is fine; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Extract.APIKey = v
	}
	if v := os.Getenv("EXTRACT_MODEL"); v != "" {
		cfg.Extract.Model = v
	}
	if v := os.Getenv("MONTHLY_SWEEP_CRON"); v != "" {
		cfg.Schedule.MonthlySweep = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/rooms.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Schedule.MonthlySweep == "" {
		// 06:00 on the first of every month.
		cfg.Schedule.MonthlySweep = "0 6 1 * *"
	}
	if cfg.Extract.Model == "" {
		cfg.Extract.Model = "gemini-2.0-flash"
	}
	if cfg.Rules.DiscrepancyTolerance == 0 {
		cfg.Rules.DiscrepancyTolerance = 1
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	if c.Rules.PenaltyRate < 0 || c.Rules.PenaltyRate >= 1 {
		return fmt.Errorf("rules.penalty_rate must be in [0, 1)")
	}
	return nil
}

// Limits builds the calculation rules, starting from the statutory
// defaults and applying any overrides.
func (c *Config) Limits() engine.Limits {
	limits := engine.DefaultLimits()
	if c.Rules.AnnualRoomIncrement > 0 {
		limits.AnnualRoomIncrement = engine.NewMoney(c.Rules.AnnualRoomIncrement)
	}
	if c.Rules.RoomBuffer > 0 {
		limits.RoomBuffer = engine.NewMoney(c.Rules.RoomBuffer)
	}
	if c.Rules.PenaltyRate > 0 {
		limits.PenaltyRate = decimal.NewFromFloat(c.Rules.PenaltyRate)
	}
	if c.Rules.EducationLifetimeLimit > 0 {
		limits.EducationLifetimeLimit = engine.NewMoney(c.Rules.EducationLifetimeLimit)
	}
	return limits
}

// Tolerance is the discrepancy tolerance for statement checks.
func (c *Config) Tolerance() engine.Money {
	return engine.NewMoney(c.Rules.DiscrepancyTolerance)
}
