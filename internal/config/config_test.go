package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchDeviceTopics(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "trash/sensors", cfg.MQTT.TelemetryTopic)
	assert.Equal(t, "trash/events", cfg.MQTT.EventTopic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, 8, cfg.Ingestion.Workers)
	assert.Equal(t, 10*time.Second, cfg.Ingestion.MessageTimeout)
	assert.Zero(t, cfg.Offline.After)
	require.NoError(t, cfg.Validate())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("INGESTION_WORKERS", "3")
	t.Setenv("MQTT_TELEMETRY_TOPIC", "bins/telemetry")
	t.Setenv("OFFLINE_AFTER", "15m")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)

	assert.Equal(t, 3, cfg.Ingestion.Workers)
	assert.Equal(t, "bins/telemetry", cfg.MQTT.TelemetryTopic)
	assert.Equal(t, 15*time.Minute, cfg.Offline.After)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Ingestion.Workers = 0 }},
		{"no queue", func(c *Config) { c.Ingestion.QueueSize = -1 }},
		{"no timeout", func(c *Config) { c.Ingestion.MessageTimeout = 0 }},
		{"no source", func(c *Config) { c.MQTT.Enabled = false; c.NATS.Enabled = false }},
		{"negative offline", func(c *Config) { c.Offline.After = -time.Second }},
		{"sweep without interval", func(c *Config) { c.Offline.After = time.Minute; c.Offline.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fromViper(v)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "bins", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=bins sslmode=disable", db.DSN())
}
