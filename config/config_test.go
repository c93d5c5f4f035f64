package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vrkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
physics:
  fixed_hz: 100
interaction:
  backend: autohand
mqtt:
  enabled: true
  broker: tcp://props:1883
logging:
  level: debug
  format: json
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Physics.FixedHz)
	assert.InDelta(t, 0.01, cfg.Physics.FixedDT(), 1e-12)
	assert.Equal(t, 60, cfg.Physics.FrameHz, "unset keys keep defaults")
	assert.Equal(t, profile.BackendAutoHand, cfg.Backend())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://props:1883", cfg.MQTT.Broker)
	assert.Equal(t, "vrkit", cfg.MQTT.Prefix)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "physics:\n  fixed_hz: 100\n")
	t.Setenv("VRKIT_PHYSICS_FIXED_HZ", "90")
	t.Setenv("VRKIT_METRICS_ADDR", ":9102")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Physics.FixedHz)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidationCollectsEveryProblem(t *testing.T) {
	path := writeConfig(t, `
physics:
  fixed_hz: 0
interaction:
  backend: steamvr
mqtt:
  enabled: true
  broker: ""
  qos: 3
logging:
  level: loud
  format: xml
`)
	_, err := LoadFile(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"physics.fixed_hz",
		"interaction.backend",
		"mqtt.broker",
		"mqtt.qos",
		"logging.level",
		"logging.format",
	}, fields)
	assert.Contains(t, err.Error(), "6 validation errors")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	log := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("dropped")
	log.Warn("kept", "component", "valve")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "valve", line["component"])

	buf.Reset()
	LoggingConfig{Level: "info", Format: "text"}.NewLogger(&buf).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=1")
}
