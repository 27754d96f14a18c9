// Package config loads service configuration from an optional TOML file,
// with a .env file honored for local development. Every field has a usable
// default so the service runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Temporal TemporalConfig `toml:"temporal"`
	HTTP     HTTPConfig     `toml:"http"`
	Data     DataConfig     `toml:"data"`
	Oracle   OracleConfig   `toml:"oracle"`
	Bank     BankConfig     `toml:"bank"`
	Workflow WorkflowConfig `toml:"workflow"`
}

type TemporalConfig struct {
	HostPort string `toml:"host_port"`
}

type HTTPConfig struct {
	Listen string `toml:"listen"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

type OracleConfig struct {
	LatencyMS   int     `toml:"latency_ms"`
	FailureRate float64 `toml:"failure_rate"`
	Seed        int64   `toml:"seed"`
	MaxTurns    int     `toml:"max_turns"` // tool-call turns per lane
}

type BankConfig struct {
	LatencyMS         int     `toml:"latency_ms"`
	FileFailureRate   float64 `toml:"file_failure_rate"`
	CreditFailureRate float64 `toml:"credit_failure_rate"`
	NotifyFailureRate float64 `toml:"notify_failure_rate"`
	Seed              int64   `toml:"seed"`
}

type WorkflowConfig struct {
	MaxLoopBacks      int     `toml:"max_loop_backs"`
	LaneTimeoutMS     int     `toml:"lane_timeout_ms"`
	JoinDeadlineMS    int     `toml:"join_deadline_ms"`
	DenyThreshold     float64 `toml:"deny_threshold"`
	ApproveThreshold  float64 `toml:"approve_threshold"`
	CritiqueThreshold float64 `toml:"critique_threshold"`
	FailurePenalty    float64 `toml:"failure_penalty"`
}

func Default() Config {
	return Config{
		Temporal: TemporalConfig{HostPort: "localhost:7233"},
		HTTP:     HTTPConfig{Listen: ":8090"},
		Data:     DataConfig{Dir: "./data"},
		Oracle: OracleConfig{
			LatencyMS: 150,
			MaxTurns:  6,
		},
		Bank: BankConfig{
			LatencyMS:         300,
			FileFailureRate:   0.15,
			CreditFailureRate: 0.05,
			NotifyFailureRate: 0.02,
		},
		Workflow: WorkflowConfig{
			MaxLoopBacks:      1,
			LaneTimeoutMS:     10_000,
			JoinDeadlineMS:    25_000,
			DenyThreshold:     0.8,
			ApproveThreshold:  0.7,
			CritiqueThreshold: 0.6,
			FailurePenalty:    1.0,
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Workflow.MaxLoopBacks < 0 {
		return fmt.Errorf("config: max_loop_backs must be >= 0")
	}
	if c.Workflow.LaneTimeoutMS <= 0 || c.Workflow.JoinDeadlineMS <= 0 {
		return fmt.Errorf("config: lane timeout and join deadline must be positive")
	}
	if c.Workflow.JoinDeadlineMS < c.Workflow.LaneTimeoutMS {
		return fmt.Errorf("config: join deadline must cover at least one lane attempt")
	}
	for _, v := range []float64{c.Workflow.DenyThreshold, c.Workflow.ApproveThreshold, c.Workflow.CritiqueThreshold} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: thresholds must be within [0, 1]")
		}
	}
	return nil
}

func (o OracleConfig) Latency() time.Duration { return time.Duration(o.LatencyMS) * time.Millisecond }
func (b BankConfig) Latency() time.Duration   { return time.Duration(b.LatencyMS) * time.Millisecond }

func (w WorkflowConfig) LaneTimeout() time.Duration {
	return time.Duration(w.LaneTimeoutMS) * time.Millisecond
}

func (w WorkflowConfig) JoinDeadline() time.Duration {
	return time.Duration(w.JoinDeadlineMS) * time.Millisecond
}
