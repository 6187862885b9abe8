package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/morphocore/internal/checkpoint"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPaths []string // .hcl, .yaml and .yml files or directories

	LogFormat       string
	LogLevel        string
	HealthcheckPort int // also serves /metrics; 0 disables
	WorkerCount     int // 0 uses one worker per CPU

	ProgressURL   string // socket.io endpoint for progress events
	CheckpointDir string // badger directory; empty disables checkpoints
	RunID         string
	Resume        bool // restart run RunID from its latest checkpoint
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ModelPaths) == 0 {
		return nil, errors.New("at least one model path is required")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be one of %v", cfg.LogLevel, logLevels)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be one of %v", cfg.LogFormat, logFormats)
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.Resume && (cfg.CheckpointDir == "" || cfg.RunID == "") {
		return nil, errors.New("resume needs both a checkpoint directory and a run id")
	}
	if cfg.RunID != "" {
		if err := checkpoint.CheckRunID(cfg.RunID); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
