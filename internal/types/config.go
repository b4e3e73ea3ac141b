package types

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the base configuration object
type Config struct {
	Device       DeviceConfig     `yaml:"device"`
	Channels     []ChannelConfig  `yaml:"channels,omitempty"`
	Publishers   PublishersConfig `yaml:"publishers,omitempty"`
	REST         RESTConfig       `yaml:"rest,omitempty"`
	Notify       NotifyConfig     `yaml:"notify,omitempty"`
	Retained     RetainedConfig   `yaml:"retained,omitempty"`
	DebugPublish bool             `yaml:"debug-publish,omitempty"`
}

// DeviceConfig holds configuration for the sensor head attached to this agent
type DeviceConfig struct {
	Name            string  `yaml:"name"`
	SensorSource    string  `yaml:"sensor-source,omitempty"` // "serial" or "simulator"
	SerialDevice    string  `yaml:"serialdevice,omitempty"`
	Baud            int     `yaml:"baud,omitempty"`
	EmptyDistanceCM float64 `yaml:"empty-distance-cm,omitempty"`
	MaxDistanceCM   float64 `yaml:"max-distance-cm,omitempty"`
	WatchdogTimeout string  `yaml:"watchdog-timeout,omitempty"`
}

// ChannelConfig holds per-channel tuning overrides. Any field left at its
// zero value falls back to the built-in deployment default for that channel.
type ChannelConfig struct {
	Name         string         `yaml:"name"`
	Mode         string         `yaml:"mode,omitempty"` // "value", "trend" or "none"
	BurstSize    int            `yaml:"burst-size,omitempty"`
	Cadence      string         `yaml:"cadence,omitempty"`
	FilterFactor float64        `yaml:"filter-factor,omitempty"`
	TrendEvery   int            `yaml:"trend-every,omitempty"`
	Hysteresis   float64        `yaml:"hysteresis,omitempty"`
	TrendMargin  float64        `yaml:"trend-margin,omitempty"`
	Buckets      []BucketConfig `yaml:"buckets,omitempty"`
}

// BucketConfig is one ordinal status bucket with its ascending upper bound.
// The bound of the last bucket is ignored; it catches everything above.
type BucketConfig struct {
	Status string  `yaml:"status"`
	Below  float64 `yaml:"below,omitempty"`
}

// PublishersConfig holds the configuration for various publisher backends.
// More than one publisher backend can be used simultaneously.
type PublishersConfig struct {
	ThingSpeak  ThingSpeakConfig  `yaml:"thingspeak,omitempty"`
	MQTT        MQTTConfig        `yaml:"mqtt,omitempty"`
	TimescaleDB TimescaleDBConfig `yaml:"timescaledb,omitempty"`
}

type ThingSpeakConfig struct {
	APIKey         string `yaml:"api-key,omitempty"`
	ChannelID      int64  `yaml:"channel-id,omitempty"`
	APIEndpoint    string `yaml:"api-endpoint,omitempty"`
	UploadInterval string `yaml:"upload-interval,omitempty"`
}

type MQTTConfig struct {
	BrokerAddr  string `yaml:"broker-addr,omitempty"`
	TopicPrefix string `yaml:"topic-prefix,omitempty"`
	ClientID    string `yaml:"client-id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

type TimescaleDBConfig struct {
	ConnectionString string `yaml:"connection-string,omitempty"`
}

type RESTConfig struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}

// NotifyConfig enables status-change event publication per channel
type NotifyConfig struct {
	Light bool `yaml:"light,omitempty"`
	Rain  bool `yaml:"rain,omitempty"`
	Water bool `yaml:"water,omitempty"`
}

// Enabled reports whether status-change events are published for the named channel.
func (n NotifyConfig) Enabled(channel string) bool {
	switch channel {
	case "light":
		return n.Light
	case "rain":
		return n.Rain
	case "water":
		return n.Water
	}
	return false
}

// RetainedConfig locates the reset-surviving state database
type RetainedConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NewConfig creates a new config object from the given filename.
func NewConfig(filename string) (Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	c := Config{}
	err = yaml.Unmarshal(cfgFile, &c)
	if err != nil {
		return Config{}, err
	}
	return c, nil
}
