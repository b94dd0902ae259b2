package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_EVENTS_DIR", "")
	t.Setenv("WEBHOOK_LOG_LEVEL", "")
	t.Setenv("WEBHOOK_LOG_FILE", "")

	s := LoadSettings()
	assert.Equal(t, "events", s.EventsDir)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Empty(t, s.LogFile)
}

func TestLoadSettingsHonorsEnvironment(t *testing.T) {
	t.Setenv("WEBHOOK_EVENTS_DIR", "/etc/webhookd/events")
	t.Setenv("WEBHOOK_LOG_LEVEL", "debug")
	t.Setenv("WEBHOOK_LOG_FILE", "/var/log/webhookd.log")

	s := LoadSettings()
	assert.Equal(t, "/etc/webhookd/events", s.EventsDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "/var/log/webhookd.log", s.LogFile)
}
