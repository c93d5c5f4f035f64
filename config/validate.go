package config

import (
	"fmt"
	"strings"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate reports every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Physics.FixedHz <= 0 {
		add("physics.fixed_hz", c.Physics.FixedHz, "must be positive")
	}
	if c.Physics.FrameHz <= 0 {
		add("physics.frame_hz", c.Physics.FrameHz, "must be positive")
	}
	if c.Physics.MaxFixedSteps <= 0 {
		add("physics.max_fixed_steps", c.Physics.MaxFixedSteps, "must be positive")
	}
	if _, err := profile.ParseBackend(c.Interaction.Backend); err != nil {
		add("interaction.backend", c.Interaction.Backend, "must be xri or autohand")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			add("mqtt.broker", c.MQTT.Broker, "required when mqtt is enabled")
		}
		if c.MQTT.Prefix == "" {
			add("mqtt.prefix", c.MQTT.Prefix, "required when mqtt is enabled")
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		add("mqtt.qos", c.MQTT.QoS, "must be 0, 1 or 2")
	}
	if c.MQTT.TimeoutMs < 0 {
		add("mqtt.timeout_ms", c.MQTT.TimeoutMs, "must not be negative")
	}
	if _, ok := levels[strings.ToLower(c.Logging.Level)]; !ok {
		add("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", c.Logging.Format, "must be text or json")
	}
	return errs
}
