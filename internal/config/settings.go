package config

import (
	"github.com/spf13/viper"
)

// Settings is the daemon's global, environment-driven configuration layer.
type Settings struct {
	EventsDir string
	LogLevel  string

	// LogFile is optional; when set, logs are additionally written to this
	// path through a rotating file appender, alongside stdout.
	LogFile string
}

// LoadSettings reads WEBHOOK_EVENTS_DIR, WEBHOOK_LOG_LEVEL, and
// WEBHOOK_LOG_FILE from the environment, applying sane defaults.
func LoadSettings() Settings {
	v := viper.New()
	v.SetEnvPrefix("webhook")
	v.AutomaticEnv()

	v.SetDefault("events_dir", "events")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")

	return Settings{
		EventsDir: v.GetString("events_dir"),
		LogLevel:  v.GetString("log_level"),
		LogFile:   v.GetString("log_file"),
	}
}
