package output

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"zonealert/internal/alert"
)

// pwmPin is the part of gpio.PinIO the PWM backend uses.
type pwmPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

var hostInitFn = func() error {
	_, err := host.Init()
	return err
}

var pinByNameFn = func(name string) pwmPin {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil
	}
	return p
}

// periphOutput drives each channel with hardware or software PWM through
// periph.io. Full-on lights and every off channel are driven as plain
// digital levels.
type periphOutput struct {
	activeLow bool
	lightHz   int

	mu     sync.Mutex
	pins   map[alert.Channel]pwmPin
	levels map[alert.Channel]alert.Level
	toneHz int
}

func openPeriph(cfg Config) (Driver, error) {
	if err := hostInitFn(); err != nil {
		return nil, fmt.Errorf("output: periph host init: %w", err)
	}
	pins := make(map[alert.Channel]pwmPin, 3)
	for ch, name := range cfg.pinNames() {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("output: %s pin is not configured", ch)
		}
		p := pinByNameFn(name)
		if p == nil {
			return nil, fmt.Errorf("output: %s pin %q not found", ch, name)
		}
		pins[ch] = p
	}
	o := newPeriphOutput(pins, cfg.ActiveLow, cfg.LightHz)
	for ch := range pins {
		if err := o.apply(ch); err != nil {
			return nil, fmt.Errorf("output: init %s: %w", ch, err)
		}
	}
	return o, nil
}

func newPeriphOutput(pins map[alert.Channel]pwmPin, activeLow bool, lightHz int) *periphOutput {
	return &periphOutput{
		activeLow: activeLow,
		lightHz:   lightHz,
		pins:      pins,
		levels:    make(map[alert.Channel]alert.Level, len(pins)),
		toneHz:    1000,
	}
}

func (o *periphOutput) Set(ch alert.Channel, l alert.Level) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.pins[ch]; !ok {
		return fmt.Errorf("output: no pin for %s", ch)
	}
	o.levels[ch] = l
	return o.apply(ch)
}

func (o *periphOutput) SetTone(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("output: invalid tone %dHz", hz)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toneHz = hz
	if o.levels[alert.Buzzer] == 0 {
		return nil
	}
	return o.apply(alert.Buzzer)
}

func (o *periphOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var first error
	for ch := range o.pins {
		o.levels[ch] = 0
		if err := o.apply(ch); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (o *periphOutput) apply(ch alert.Channel) error {
	pin := o.pins[ch]
	l := o.levels[ch]
	switch {
	case l == 0:
		return pin.Out(o.digital(false))
	case l >= alert.MaxLevel && ch != alert.Buzzer:
		return pin.Out(o.digital(true))
	}
	hz := o.lightHz
	if ch == alert.Buzzer {
		hz = o.toneHz
	}
	return pin.PWM(dutyFor(l, o.activeLow), physic.Frequency(hz)*physic.Hertz)
}

func (o *periphOutput) digital(on bool) gpio.Level {
	return gpio.Level(on != o.activeLow)
}

// dutyFor scales a level onto the periph duty range.
func dutyFor(l alert.Level, activeLow bool) gpio.Duty {
	if l > alert.MaxLevel {
		l = alert.MaxLevel
	}
	d := gpio.Duty(int64(l) * int64(gpio.DutyMax) / int64(alert.MaxLevel))
	if activeLow {
		d = gpio.DutyMax - d
	}
	return d
}
