package config

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon settings. Values come from an optional YAML
// file, overridden by IVD_* environment variables.
type Config struct {
	Bind           string
	LogLevel       zerolog.Level
	CORSOrigin     string
	MetricsEnabled bool
	// RescanSpec is the cron spec for the periodic local disk rescan;
	// empty disables it.
	RescanSpec string
	// EventsDBPath is the sqlite path for the storage event log;
	// empty keeps the log in memory.
	EventsDBPath string
	// StateFile is the JSON file the machine inventory is persisted
	// to; empty disables persistence.
	StateFile string
}

type fileConfig struct {
	HTTP struct {
		Bind string `yaml:"bind"`
	} `yaml:"http"`
	CORS struct {
		Origin string `yaml:"origin"`
	} `yaml:"cors"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Rescan struct {
		Spec string `yaml:"spec"`
	} `yaml:"rescan"`
	Events struct {
		DBPath string `yaml:"dbPath"`
	} `yaml:"events"`
	State struct {
		File string `yaml:"file"`
	} `yaml:"state"`
}

func defaults() Config {
	return Config{
		Bind:           "127.0.0.1:9030",
		LogLevel:       zerolog.InfoLevel,
		CORSOrigin:     "http://localhost:5173",
		MetricsEnabled: true,
	}
}

// Load reads the YAML file at path (missing file is fine), then applies
// environment overrides.
func Load(path string) Config {
	cfg := defaults()

	if b, err := os.ReadFile(path); err == nil {
		var fc fileConfig
		if yaml.Unmarshal(b, &fc) == nil {
			if fc.HTTP.Bind != "" {
				cfg.Bind = fc.HTTP.Bind
			}
			if fc.CORS.Origin != "" {
				cfg.CORSOrigin = fc.CORS.Origin
			}
			if fc.Logging.Level != "" {
				if l, err := zerolog.ParseLevel(fc.Logging.Level); err == nil {
					cfg.LogLevel = l
				}
			}
			if fc.Metrics.Enabled != nil {
				cfg.MetricsEnabled = *fc.Metrics.Enabled
			}
			if fc.Rescan.Spec != "" {
				cfg.RescanSpec = fc.Rescan.Spec
			}
			if fc.Events.DBPath != "" {
				cfg.EventsDBPath = fc.Events.DBPath
			}
			if fc.State.File != "" {
				cfg.StateFile = fc.State.File
			}
		}
	}

	if v := os.Getenv("IVD_HTTP_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("IVD_CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("IVD_LOG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		}
	}
	if v := os.Getenv("IVD_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MetricsEnabled = b
		}
	}
	if v := os.Getenv("IVD_RESCAN_SPEC"); v != "" {
		cfg.RescanSpec = v
	}
	if v := os.Getenv("IVD_EVENTS_DB"); v != "" {
		cfg.EventsDBPath = v
	}
	if v := os.Getenv("IVD_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}

	return cfg
}

// FromEnv builds the config from environment variables alone.
func FromEnv() Config {
	return Load(os.Getenv("IVD_CONFIG"))
}
