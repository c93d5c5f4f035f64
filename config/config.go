package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// Config is the runtime configuration of the kit, read from vrkit.yaml and
// VRKIT_* environment variables.
type Config struct {
	Physics     PhysicsConfig     `mapstructure:"physics"`
	Interaction InteractionConfig `mapstructure:"interaction"`
	Profiles    ProfilesConfig    `mapstructure:"profiles"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type PhysicsConfig struct {
	// FixedHz is the physics step rate.
	FixedHz int `mapstructure:"fixed_hz"`
	// FrameHz is the render/input rate used by headless runs.
	FrameHz       int     `mapstructure:"frame_hz"`
	MaxFixedSteps int     `mapstructure:"max_fixed_steps"`
	Gravity       float64 `mapstructure:"gravity"`
}

// FixedDT returns the fixed step in seconds.
func (c PhysicsConfig) FixedDT() float64 {
	return 1 / float64(c.FixedHz)
}

// FrameDT returns the frame step in seconds.
func (c PhysicsConfig) FrameDT() float64 {
	return 1 / float64(c.FrameHz)
}

type InteractionConfig struct {
	Backend string `mapstructure:"backend"`
}

type ProfilesConfig struct {
	Dirs  []string `mapstructure:"dirs"`
	Watch bool     `mapstructure:"watch"`
}

type MQTTConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Broker    string `mapstructure:"broker"`
	ClientID  string `mapstructure:"client_id"`
	Prefix    string `mapstructure:"prefix"`
	QoS       int    `mapstructure:"qos"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// Timeout returns the per-operation timeout as a time.Duration.
func (c MQTTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type MetricsConfig struct {
	// Addr is where /metrics is served; empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Default() *Config {
	return &Config{
		Physics: PhysicsConfig{
			FixedHz:       50,
			FrameHz:       60,
			MaxFixedSteps: 5,
			Gravity:       -9.81,
		},
		Interaction: InteractionConfig{Backend: string(profile.BackendXRI)},
		Profiles:    ProfilesConfig{Dirs: []string{"profiles"}},
		MQTT: MQTTConfig{
			Broker:    "tcp://localhost:1883",
			ClientID:  "vrkit",
			Prefix:    "vrkit",
			QoS:       1,
			TimeoutMs: 5000,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("physics.fixed_hz", d.Physics.FixedHz)
	v.SetDefault("physics.frame_hz", d.Physics.FrameHz)
	v.SetDefault("physics.max_fixed_steps", d.Physics.MaxFixedSteps)
	v.SetDefault("physics.gravity", d.Physics.Gravity)

	v.SetDefault("interaction.backend", d.Interaction.Backend)

	v.SetDefault("profiles.dirs", d.Profiles.Dirs)
	v.SetDefault("profiles.watch", d.Profiles.Watch)

	v.SetDefault("mqtt.enabled", d.MQTT.Enabled)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.prefix", d.MQTT.Prefix)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)
	v.SetDefault("mqtt.timeout_ms", d.MQTT.TimeoutMs)

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// New returns a viper instance with defaults and the VRKIT_ environment
// binding. When path is empty, vrkit.yaml is searched for in the working
// directory and the user config directory; a missing file is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("VRKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vrkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vrkit")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// LoadFile is New followed by Load.
func LoadFile(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// Backend returns the configured grab backend.
func (c *Config) Backend() profile.Backend {
	b, err := profile.ParseBackend(c.Interaction.Backend)
	if err != nil {
		return profile.BackendXRI
	}
	return b
}
