package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/fittrack/internal/calendar"
)

type Config struct {
	DataDir        string               `yaml:"data_dir"`
	Units          string               `yaml:"units"`
	Program        ProgramConfig        `yaml:"program"`
	Autoregulation AutoregulationConfig `yaml:"autoregulation"`
	Server         ServerConfig         `yaml:"server"`
	Tailscale      TailscaleConfig      `yaml:"tailscale"`
	Log            LogConfig            `yaml:"log"`
	Upload         UploadConfig         `yaml:"upload"`
}

type ProgramConfig struct {
	Default        string `yaml:"default"`
	StartDate      string `yaml:"start_date"` // YYYY-MM-DD
	PhasePolicy    string `yaml:"phase_policy"`
	BaseWeeks      int    `yaml:"base_weeks"`
	IntensityWeeks int    `yaml:"intensity_weeks"`
}

type AutoregulationConfig struct {
	Sensitivity string `yaml:"sensitivity"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type UploadConfig struct {
	ServerURL string `yaml:"server_url"`
	BatchSize int    `yaml:"batch_size"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Units:   "lbs",
		Program: ProgramConfig{
			Default:        "12-Week Strength & Running",
			StartDate:      "2025-09-01",
			PhasePolicy:    "thirds",
			BaseWeeks:      4,
			IntensityWeeks: 8,
		},
		Autoregulation: AutoregulationConfig{Sensitivity: "Moderate"},
		Server:         ServerConfig{Host: "127.0.0.1", Port: 8080},
		Tailscale:      TailscaleConfig{Hostname: "fittrack", StateDir: "./tsnet"},
		Log:            LogConfig{Level: "info", Format: "text"},
		Upload:         UploadConfig{BatchSize: 10},
	}
}

// Start returns program.start_date as a UTC date. Load has already checked
// that it parses.
func (p ProgramConfig) Start() time.Time {
	t, _ := time.Parse(time.DateOnly, p.StartDate)
	return t
}

// Resolver builds the calendar resolver for the program section.
func (c *Config) Resolver() *calendar.Resolver {
	r := calendar.NewResolver(c.Program.Start())
	r.Policy = calendar.Policy(c.Program.PhasePolicy)
	r.BaseWeeks = c.Program.BaseWeeks
	r.IntensityWeeks = c.Program.IntensityWeeks
	return r
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. A missing file is only an error when path
// is not the default "config.yaml".
// Env vars use the prefix FITTRACK_ and underscore-separated paths:
//
//	FITTRACK_DATA_DIR, FITTRACK_UNITS,
//	FITTRACK_PROGRAM_DEFAULT, FITTRACK_PROGRAM_START_DATE, FITTRACK_SENSITIVITY,
//	FITTRACK_SERVER_HOST, FITTRACK_SERVER_PORT, FITTRACK_TAILSCALE_ENABLED,
//	FITTRACK_LOG_LEVEL, FITTRACK_LOG_FILE, FITTRACK_UPLOAD_SERVER_URL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err) && path == "config.yaml":
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITTRACK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FITTRACK_UNITS"); v != "" {
		cfg.Units = v
	}
	if v := os.Getenv("FITTRACK_PROGRAM_DEFAULT"); v != "" {
		cfg.Program.Default = v
	}
	if v := os.Getenv("FITTRACK_PROGRAM_START_DATE"); v != "" {
		cfg.Program.StartDate = v
	}
	if v := os.Getenv("FITTRACK_SENSITIVITY"); v != "" {
		cfg.Autoregulation.Sensitivity = v
	}
	if v := os.Getenv("FITTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("FITTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FITTRACK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("FITTRACK_UPLOAD_SERVER_URL"); v != "" {
		cfg.Upload.ServerURL = v
	}
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Units {
	case "lbs", "kg":
	default:
		return fmt.Errorf("units must be lbs or kg, got %q", c.Units)
	}
	if _, err := time.Parse(time.DateOnly, c.Program.StartDate); err != nil {
		return fmt.Errorf("program.start_date must be YYYY-MM-DD: %w", err)
	}
	switch c.Program.PhasePolicy {
	case "thirds":
	case "fixed":
		if c.Program.BaseWeeks < 1 || c.Program.IntensityWeeks < c.Program.BaseWeeks {
			return fmt.Errorf("program.base_weeks and program.intensity_weeks must satisfy 1 <= base <= intensity")
		}
	default:
		return fmt.Errorf("program.phase_policy must be thirds or fixed, got %q", c.Program.PhasePolicy)
	}
	switch strings.ToLower(c.Autoregulation.Sensitivity) {
	case "conservative", "moderate", "aggressive":
	default:
		return fmt.Errorf("autoregulation.sensitivity must be Conservative, Moderate or Aggressive, got %q", c.Autoregulation.Sensitivity)
	}
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Upload.BatchSize < 0 {
		return fmt.Errorf("upload.batch_size must not be negative")
	}
	return nil
}
