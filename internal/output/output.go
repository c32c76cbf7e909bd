// Package output implements alert.Output on real and fake hardware.
package output

import (
	"fmt"
	"strings"

	"zonealert/internal/alert"
)

// Driver is an alert output that holds hardware resources.
type Driver interface {
	alert.Output
	// Close turns every channel off and releases the pins.
	Close() error
}

type Config struct {
	// Backend is "periph" (hardware PWM), "gpiod" (digital on/off) or
	// "log" (in-memory, logs transitions).
	Backend   string
	LeftPin   string
	RightPin  string
	BuzzerPin string
	// ActiveLow is set when a pin drives its load by pulling low.
	ActiveLow bool
	// LightHz is the PWM frequency used for the lights.
	LightHz int
}

var (
	openPeriphFn = openPeriph
	openGPIODFn  = openGPIOD
)

// Open returns the configured backend.
func Open(cfg Config) (Driver, error) {
	if cfg.LightHz <= 0 {
		cfg.LightHz = 1000
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "periph":
		return openPeriphFn(cfg)
	case "gpiod":
		return openGPIODFn(cfg)
	case "log":
		return NewRecorder(true), nil
	default:
		return nil, fmt.Errorf("output: unknown backend %q", cfg.Backend)
	}
}

func (c Config) pinNames() map[alert.Channel]string {
	return map[alert.Channel]string{
		alert.Left:   c.LeftPin,
		alert.Right:  c.RightPin,
		alert.Buzzer: c.BuzzerPin,
	}
}
