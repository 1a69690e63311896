package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
panel:
  host: 10.0.0.5
  account: 1
  remote_key: "1A2B3C4D"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Panel.Host)
	assert.Equal(t, 2011, cfg.Panel.Port)
	assert.Equal(t, 1, cfg.Panel.Account)
	assert.Equal(t, "1A2B3C4D", cfg.Panel.RemoteKey)
	assert.Equal(t, 10, cfg.Panel.Timeout)
	assert.Equal(t, 300, cfg.Panel.RateLimitMS)
	assert.Equal(t, 32, cfg.Panel.MaxPages)
	assert.Equal(t, 30, cfg.Panel.Keepalive)

	assert.Equal(t, 5001, cfg.Listen.Port)
	assert.False(t, cfg.Listen.Enabled)

	assert.Equal(t, "dmp2mqtt", cfg.MQTT.ClientID)
	assert.Equal(t, "localhost", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, 60, cfg.MQTT.Keepalive)
	assert.Equal(t, "dmp2mqtt", cfg.MQTT.Prefix)
	assert.Equal(t, "homeassistant", cfg.HomeAssistant.Prefix)
	assert.Equal(t, "info", cfg.Log)
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
panel:
  host: panel.example.com
  port: 2500
  account: 91234
  rate_limit_ms: 500
listen:
  enabled: true
  port: 6001
mqtt:
  host: broker.example.com
  port: 8883
  username: bridge
  password: secret
  prefix: alarm
homeassistant:
  discovery: true
log: debug
cache: true
zones:
  - id: front-door
    name: Front Door
    device_class: door
areas:
  - id: main-floor
    name: Main Floor
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2500, cfg.Panel.Port)
	assert.Equal(t, 91234, cfg.Panel.Account)
	assert.Equal(t, 500, cfg.Panel.RateLimitMS)
	assert.True(t, cfg.Listen.Enabled)
	assert.Equal(t, 6001, cfg.Listen.Port)
	assert.Equal(t, "alarm", cfg.MQTT.Prefix)
	assert.True(t, cfg.HomeAssistant.Discovery)
	assert.Equal(t, "debug", cfg.Log)
	assert.True(t, cfg.Cache)

	require.Len(t, cfg.Zones, 1)
	assert.Equal(t, "door", cfg.Zones[0].DeviceClass)
	require.Len(t, cfg.Areas, 1)
	assert.Equal(t, "Main Floor", cfg.Areas[0].Name)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "panel: [not: a map")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
