package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Resume   ResumeConfig   `mapstructure:"resume"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScannerConfig bounds the directory-scanning worker pool
type ScannerConfig struct {
	Workers int `mapstructure:"workers"` // 0 = min(8, NumCPU)
}

// PlaybackConfig holds transport defaults and the controller's timing knobs
type PlaybackConfig struct {
	Volume        int     `mapstructure:"volume"`          // initial volume, 0-100
	Rate          float64 `mapstructure:"rate"`            // initial playback rate
	LoopMode      string  `mapstructure:"loop_mode"`       // sequential | loop-off | shuffle
	PollMS        int     `mapstructure:"poll_ms"`         // end-of-media poll interval
	StartTimeoutS int     `mapstructure:"start_timeout_s"` // bound on the wait-for-playing poll
	SettleMS      int     `mapstructure:"settle_ms"`       // pause after monitor-switch recreate
	SeekStepS     int     `mapstructure:"seek_step_s"`     // seek_forward/seek_back step
}

// EngineConfig holds the external media-engine configuration
type EngineConfig struct {
	Command   string   `mapstructure:"command"`    // player binary, e.g. "mpv"
	Args      []string `mapstructure:"args"`       // extra arguments
	SocketDir string   `mapstructure:"socket_dir"` // IPC socket directory, empty = os.TempDir
}

// ResumeConfig tunes the resume-position tracker
type ResumeConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	SaveEveryS   int  `mapstructure:"save_every_s"`  // tracker tick interval
	MinPositionS int  `mapstructure:"min_position_s"` // don't save before this offset
	ClearPct     int  `mapstructure:"clear_pct"`      // clear position past this percentage
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Workers: 0,
		},
		Playback: PlaybackConfig{
			Volume:        50,
			Rate:          1.0,
			LoopMode:      "sequential",
			PollMS:        250,
			StartTimeoutS: 15,
			SettleMS:      300,
			SeekStepS:     10,
		},
		Engine: EngineConfig{
			Command: "mpv",
		},
		Resume: ResumeConfig{
			Enabled:      true,
			SaveEveryS:   15,
			MinPositionS: 30,
			ClearPct:     95,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rove", "rove.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "rove", "rove.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rove")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "rove")
	}
}

// DefaultDataPath returns the directory holding the resume/history database
func DefaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "rove")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "rove")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("ROVE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("scanner.workers", cfg.Scanner.Workers)

	viper.Set("playback.volume", cfg.Playback.Volume)
	viper.Set("playback.rate", cfg.Playback.Rate)
	viper.Set("playback.loop_mode", cfg.Playback.LoopMode)
	viper.Set("playback.poll_ms", cfg.Playback.PollMS)
	viper.Set("playback.start_timeout_s", cfg.Playback.StartTimeoutS)
	viper.Set("playback.settle_ms", cfg.Playback.SettleMS)
	viper.Set("playback.seek_step_s", cfg.Playback.SeekStepS)

	viper.Set("engine.command", cfg.Engine.Command)
	viper.Set("engine.args", cfg.Engine.Args)
	viper.Set("engine.socket_dir", cfg.Engine.SocketDir)

	viper.Set("resume.enabled", cfg.Resume.Enabled)
	viper.Set("resume.save_every_s", cfg.Resume.SaveEveryS)
	viper.Set("resume.min_position_s", cfg.Resume.MinPositionS)
	viper.Set("resume.clear_pct", cfg.Resume.ClearPct)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
