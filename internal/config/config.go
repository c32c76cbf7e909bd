package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS    GPSConfig    `yaml:"gps"`
	Replay ReplayConfig `yaml:"replay"`
	Alert  AlertConfig  `yaml:"alert"`
	Zones  ZonesConfig  `yaml:"zones"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Web    WebConfig    `yaml:"web"`
}

type GPSConfig struct {
	Enable bool `yaml:"enable"`
	// Device may be empty to auto-detect.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// ReadTimeout is how long a serial read waits on a silent line before
	// returning. The tty counts it in tenths of a second.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// TCPAddr (host:port) reads sentences from a TCP stream instead of
	// the serial device.
	TCPAddr string `yaml:"tcp_addr"`
	Debug   bool   `yaml:"debug"`
	// RecordPath, when set, logs every received sentence in replay format.
	RecordPath string `yaml:"record_path"`
}

type ReplayConfig struct {
	Enable bool    `yaml:"enable"`
	Path   string  `yaml:"path"`
	Speed  float64 `yaml:"speed"`
	Loop   bool    `yaml:"loop"`
}

type AlertConfig struct {
	Backend    string        `yaml:"backend"`
	LeftPin    string        `yaml:"left_pin"`
	RightPin   string        `yaml:"right_pin"`
	BuzzerPin  string        `yaml:"buzzer_pin"`
	ActiveLow  *bool         `yaml:"active_low"`
	BasePeriod time.Duration `yaml:"base_period"`
	MinPeriod  time.Duration `yaml:"min_period"`
	RampPeriod time.Duration `yaml:"ramp_period"`
	NightDim   float64       `yaml:"night_dim"`
	ToneHz     int           `yaml:"tone_hz"`
	LightHz    int           `yaml:"light_hz"`
}

type ZonesConfig struct {
	Path                string  `yaml:"path"`
	HeadingToleranceDeg float64 `yaml:"heading_tolerance_deg"`
}

type MQTTConfig struct {
	Enable      bool   `yaml:"enable"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

type WebConfig struct {
	// Listen is the HTTP listen address. Empty disables the web server.
	Listen string `yaml:"listen"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Zones.Path) == "" {
		return Config{}, fmt.Errorf("zones.path is required")
	}
	if cfg.Zones.HeadingToleranceDeg == 0 {
		cfg.Zones.HeadingToleranceDeg = 45
	}
	if cfg.Zones.HeadingToleranceDeg < 0 || cfg.Zones.HeadingToleranceDeg > 180 {
		return Config{}, fmt.Errorf("zones.heading_tolerance_deg must be within 0..180")
	}

	if cfg.GPS.Baud == 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.ReadTimeout == 0 {
		cfg.GPS.ReadTimeout = time.Second
	}
	if cfg.GPS.ReadTimeout < 100*time.Millisecond || cfg.GPS.ReadTimeout > 25500*time.Millisecond {
		return Config{}, fmt.Errorf("gps.read_timeout must be within 100ms..25.5s")
	}

	if cfg.Replay.Enable {
		if cfg.Replay.Path == "" {
			return Config{}, fmt.Errorf("replay.path is required when replay.enable is true")
		}
		if cfg.Replay.Speed == 0 {
			cfg.Replay.Speed = 1
		}
		if cfg.Replay.Speed < 0 {
			return Config{}, fmt.Errorf("replay.speed must be > 0")
		}
		if cfg.GPS.Enable {
			return Config{}, fmt.Errorf("gps and replay cannot both be enabled")
		}
		if cfg.GPS.RecordPath != "" {
			return Config{}, fmt.Errorf("gps.record_path cannot be used with replay")
		}
	}

	if err := applyAlertDefaults(&cfg.Alert); err != nil {
		return Config{}, err
	}

	if cfg.MQTT.Enable {
		if cfg.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "zonealert"
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = "zonealert"
		}
		cfg.MQTT.TopicPrefix = strings.TrimSuffix(cfg.MQTT.TopicPrefix, "/")
	}

	return cfg, nil
}

func applyAlertDefaults(a *AlertConfig) error {
	a.Backend = strings.ToLower(strings.TrimSpace(a.Backend))
	switch a.Backend {
	case "":
		a.Backend = "periph"
	case "periph", "gpiod", "log":
	default:
		return fmt.Errorf("alert.backend must be one of periph, gpiod, log")
	}
	if a.LeftPin == "" {
		a.LeftPin = "GPIO12"
	}
	if a.RightPin == "" {
		a.RightPin = "GPIO14"
	}
	if a.BuzzerPin == "" {
		a.BuzzerPin = "GPIO13"
	}
	if a.ActiveLow == nil {
		v := true
		a.ActiveLow = &v
	}
	if a.BasePeriod <= 0 {
		a.BasePeriod = 50 * time.Millisecond
	}
	if a.MinPeriod <= 0 {
		a.MinPeriod = time.Millisecond
	}
	if a.MinPeriod > a.BasePeriod {
		return fmt.Errorf("alert.min_period must not exceed alert.base_period")
	}
	if a.RampPeriod <= 0 {
		a.RampPeriod = 100 * time.Millisecond
	}
	if a.NightDim == 0 {
		a.NightDim = 0.05
	}
	if a.NightDim < 0 || a.NightDim > 1 {
		return fmt.Errorf("alert.night_dim must be within 0..1")
	}
	if a.ToneHz <= 0 {
		a.ToneHz = 1000
	}
	if a.LightHz <= 0 {
		a.LightHz = 1000
	}
	return nil
}
