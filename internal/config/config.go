package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir        string
	SessionTimeout time.Duration
	DraftDebounce  time.Duration
	DraftRetention time.Duration
	ReplyDelayMin  time.Duration
	ReplyDelayMax  time.Duration
	GroupAdminCap  int
	FlushInterval  time.Duration
}

// DefaultDataDir returns the path to the application data directory
// (~/.palabre).
func DefaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".palabre")
}

// Load reads config.yaml from the data directory, falling back to defaults
// when the file is absent. The defaults match the behavior of the original
// application and must not drift.
func Load() *Config {
	return LoadFrom(DefaultDataDir())
}

// LoadFrom reads the configuration from the given directory.
func LoadFrom(dir string) *Config {
	cfg := defaults()
	cfg.DataDir = dir

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfg.DataDir)

	v.SetDefault("session_timeout", cfg.SessionTimeout)
	v.SetDefault("draft_debounce", cfg.DraftDebounce)
	v.SetDefault("draft_retention", cfg.DraftRetention)
	v.SetDefault("reply_delay_min", cfg.ReplyDelayMin)
	v.SetDefault("reply_delay_max", cfg.ReplyDelayMax)
	v.SetDefault("group_admin_cap", cfg.GroupAdminCap)
	v.SetDefault("flush_interval", cfg.FlushInterval)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("unable to read config, using defaults", "err", err)
		}
		return cfg
	}

	cfg.SessionTimeout = v.GetDuration("session_timeout")
	cfg.DraftDebounce = v.GetDuration("draft_debounce")
	cfg.DraftRetention = v.GetDuration("draft_retention")
	cfg.ReplyDelayMin = v.GetDuration("reply_delay_min")
	cfg.ReplyDelayMax = v.GetDuration("reply_delay_max")
	cfg.GroupAdminCap = v.GetInt("group_admin_cap")
	cfg.FlushInterval = v.GetDuration("flush_interval")
	return cfg
}

func defaults() *Config {
	return &Config{
		DataDir:        DefaultDataDir(),
		SessionTimeout: 30 * time.Minute,
		DraftDebounce:  500 * time.Millisecond,
		DraftRetention: 30 * 24 * time.Hour,
		ReplyDelayMin:  1200 * time.Millisecond,
		ReplyDelayMax:  3200 * time.Millisecond,
		GroupAdminCap:  3,
		FlushInterval:  60 * time.Second,
	}
}
