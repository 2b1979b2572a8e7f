package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the complete tradelab configuration.
type Config struct {
	Engine  sim.Config    `json:"engine" yaml:"engine"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Sweep   SweepConfig   `json:"sweep" yaml:"sweep"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// RunConfig labels a run and controls how signals become trades.
type RunConfig struct {
	Strategy    string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Instrument  string  `json:"instrument,omitempty" yaml:"instrument,omitempty"`
	Timeframe   string  `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"`
	SLMult      float64 `json:"sl_mult" yaml:"sl_mult"`
	TPMult      float64 `json:"tp_mult" yaml:"tp_mult"`
	CloseAtEnd  bool    `json:"close_at_end" yaml:"close_at_end"`
}

// Options converts the run section into backtest options.
func (r RunConfig) Options() backtest.RunOptions {
	return backtest.RunOptions{
		RiskPct:    r.RiskPercent,
		SLMult:     r.SLMult,
		TPMult:     r.TPMult,
		CloseAtEnd: r.CloseAtEnd,
	}
}

// SweepConfig is the default SL/TP grid and scheduling for sweeps.
type SweepConfig struct {
	SLMults []float64 `json:"sl_mults" yaml:"sl_mults"`
	TPMults []float64 `json:"tp_mults" yaml:"tp_mults"`
	Workers int       `json:"workers" yaml:"workers"`
	SliceMS int       `json:"slice_ms" yaml:"slice_ms"`
	Top     int       `json:"top" yaml:"top"` // rows printed by the CLI, 0 = all
}

// SliceBudget is SliceMS as a duration, or the sweeper default when unset.
func (s SweepConfig) SliceBudget() time.Duration {
	if s.SliceMS <= 0 {
		return backtest.DefaultSliceBudget
	}
	return time.Duration(s.SliceMS) * time.Millisecond
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr            string `json:"addr" yaml:"addr"`
	ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"` // e.g. "10s"
	MaxFinishedJobs int    `json:"max_finished_jobs" yaml:"max_finished_jobs"`
}

// ParseShutdownTimeout converts ShutdownTimeout to a duration, 10s when empty.
func (s ServerConfig) ParseShutdownTimeout() (time.Duration, error) {
	if s.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(s.ShutdownTimeout)
}

// LoadFromFile loads configuration from a file. A .json file, or any file
// whose content is a JSON object, is decoded as JSON; everything else as YAML.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset fields keep their defaults.
	cfg := Default()

	if isJSONFile(path, data) {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// isJSONFile reports whether a config file holds JSON. JSON is also valid
// YAML, but the engine section uses different key names in each format, so
// JSON must never go through the YAML decoder.
func isJSONFile(path string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// SaveToFile saves configuration to a file (JSON for .json, YAML otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	e := c.Engine
	if e.InitialBalance <= 0 {
		return fmt.Errorf("engine.initial_balance must be positive")
	}
	if e.Leverage < 1 {
		return fmt.Errorf("engine.leverage must be at least 1")
	}
	if e.Commission < 0 || e.Slippage < 0 {
		return fmt.Errorf("engine.commission and engine.slippage must not be negative")
	}
	if c.Run.RiskPercent <= 0 || c.Run.RiskPercent > 1 {
		return fmt.Errorf("run.risk_percent must be between 0 and 1")
	}
	if c.Run.SLMult <= 0 || c.Run.TPMult <= 0 {
		return fmt.Errorf("run.sl_mult and run.tp_mult must be positive")
	}
	for _, m := range append(append([]float64{}, c.Sweep.SLMults...), c.Sweep.TPMults...) {
		if m <= 0 {
			return fmt.Errorf("sweep multiples must be positive, got %v", m)
		}
	}
	if c.Sweep.Workers < 0 || c.Sweep.SliceMS < 0 || c.Sweep.Top < 0 {
		return fmt.Errorf("sweep.workers, sweep.slice_ms and sweep.top must not be negative")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	if _, err := c.Server.ParseShutdownTimeout(); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if c.Server.MaxFinishedJobs < 0 {
		return fmt.Errorf("server.max_finished_jobs must be non-negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	run := backtest.DefaultRunOptions()
	return &Config{
		Engine: sim.DefaultConfig(),
		Run: RunConfig{
			Strategy:    "signals",
			RiskPercent: run.RiskPct,
			SLMult:      run.SLMult,
			TPMult:      run.TPMult,
		},
		Sweep: SweepConfig{
			SLMults: []float64{0.5, 1, 1.5, 2},
			TPMults: []float64{1, 2, 3, 4},
			Workers: 4,
			SliceMS: int(backtest.DefaultSliceBudget / time.Millisecond),
			Top:     10,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
			MaxFinishedJobs: 100,
		},
	}
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are given) into the process environment. Missing files are skipped and
// variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRADELAB_"

// ApplyEnv overrides fields from TRADELAB_* environment variables.
func (c *Config) ApplyEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"INITIAL_BALANCE", &c.Engine.InitialBalance},
		{"LEVERAGE", &c.Engine.Leverage},
		{"COMMISSION", &c.Engine.Commission},
		{"SLIPPAGE", &c.Engine.Slippage},
		{"RISK_PERCENT", &c.Run.RiskPercent},
		{"SL_MULT", &c.Run.SLMult},
		{"TP_MULT", &c.Run.TPMult},
	}
	for _, f := range floats {
		v, ok := os.LookupEnv(EnvPrefix + f.key)
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, f.key, err)
		}
		*f.dst = x
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SYNTHETIC_TICKS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sSYNTHETIC_TICKS: %w", EnvPrefix, err)
		}
		c.Engine.UseSyntheticTicks = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SWEEP_WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sSWEEP_WORKERS: %w", EnvPrefix, err)
		}
		c.Sweep.Workers = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"JOURNAL_TYPE", &c.Journal.Type},
		{"JOURNAL_DB", &c.Journal.DBPath},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"SERVER_ADDR", &c.Server.Addr},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + s.key); ok {
			*s.dst = v
		}
	}
	return nil
}
