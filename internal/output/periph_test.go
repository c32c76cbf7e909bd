package output

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"zonealert/internal/alert"
)

type pinCall struct {
	out   *gpio.Level
	duty  gpio.Duty
	freq  physic.Frequency
	isPWM bool
}

type fakePin struct {
	calls []pinCall
}

func (p *fakePin) Out(l gpio.Level) error {
	p.calls = append(p.calls, pinCall{out: &l})
	return nil
}

func (p *fakePin) PWM(d gpio.Duty, f physic.Frequency) error {
	p.calls = append(p.calls, pinCall{duty: d, freq: f, isPWM: true})
	return nil
}

func (p *fakePin) last(t *testing.T) pinCall {
	t.Helper()
	if len(p.calls) == 0 {
		t.Fatalf("no calls")
	}
	return p.calls[len(p.calls)-1]
}

func newFakePins() (map[alert.Channel]pwmPin, map[alert.Channel]*fakePin) {
	fakes := map[alert.Channel]*fakePin{
		alert.Left:   {},
		alert.Right:  {},
		alert.Buzzer: {},
	}
	pins := make(map[alert.Channel]pwmPin, len(fakes))
	for ch, p := range fakes {
		pins[ch] = p
	}
	return pins, fakes
}

func TestDutyFor(t *testing.T) {
	if got := dutyFor(0, false); got != 0 {
		t.Fatalf("dutyFor(0)=%d", got)
	}
	if got := dutyFor(alert.MaxLevel, false); got != gpio.DutyMax {
		t.Fatalf("dutyFor(max)=%d want %d", got, gpio.DutyMax)
	}
	if got := dutyFor(alert.MaxLevel, true); got != 0 {
		t.Fatalf("dutyFor(max, activeLow)=%d want 0", got)
	}
	half := dutyFor(alert.HalfLevel, false)
	if half < gpio.DutyHalf || half > gpio.DutyHalf+gpio.DutyMax/1000 {
		t.Fatalf("dutyFor(half)=%d want about %d", half, gpio.DutyHalf)
	}
	if got := dutyFor(alert.HalfLevel, true); got != gpio.DutyMax-half {
		t.Fatalf("active low half=%d", got)
	}
}

func TestPeriphOutput_LevelsAndPolarity(t *testing.T) {
	pins, fakes := newFakePins()
	o := newPeriphOutput(pins, true, 2000)

	if err := o.Set(alert.Left, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c := fakes[alert.Left].last(t); c.isPWM || *c.out != gpio.High {
		t.Fatalf("active-low off should drive high, got %+v", c)
	}

	_ = o.Set(alert.Left, alert.MaxLevel)
	if c := fakes[alert.Left].last(t); c.isPWM || *c.out != gpio.Low {
		t.Fatalf("active-low full should drive low, got %+v", c)
	}

	_ = o.Set(alert.Right, 51)
	c := fakes[alert.Right].last(t)
	if !c.isPWM || c.freq != 2*physic.KiloHertz || c.duty != dutyFor(51, true) {
		t.Fatalf("dimmed light call=%+v", c)
	}
}

func TestPeriphOutput_BuzzerFollowsTone(t *testing.T) {
	pins, fakes := newFakePins()
	o := newPeriphOutput(pins, false, 1000)
	buz := fakes[alert.Buzzer]

	// Silent buzzer: tone is stored, nothing written.
	if err := o.SetTone(440); err != nil {
		t.Fatalf("SetTone: %v", err)
	}
	if len(buz.calls) != 0 {
		t.Fatalf("calls=%+v", buz.calls)
	}

	_ = o.Set(alert.Buzzer, alert.HalfLevel)
	if c := buz.last(t); !c.isPWM || c.freq != 440*physic.Hertz {
		t.Fatalf("buzzer call=%+v", c)
	}
	_ = o.SetTone(880)
	if c := buz.last(t); !c.isPWM || c.freq != 880*physic.Hertz {
		t.Fatalf("retune call=%+v", c)
	}

	// A full-level buzzer is still modulated.
	_ = o.Set(alert.Buzzer, alert.MaxLevel)
	if c := buz.last(t); !c.isPWM {
		t.Fatalf("full buzzer call=%+v", c)
	}

	if err := o.SetTone(0); err == nil {
		t.Fatalf("expected error for 0Hz")
	}
}

func TestPeriphOutput_CloseTurnsOff(t *testing.T) {
	pins, fakes := newFakePins()
	o := newPeriphOutput(pins, false, 1000)
	_ = o.Set(alert.Left, 700)
	_ = o.Set(alert.Buzzer, 512)

	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for ch, p := range fakes {
		if c := p.last(t); c.isPWM || *c.out != gpio.Low {
			t.Fatalf("%s not off after Close: %+v", ch, c)
		}
	}
}

func TestOpenPeriph_MissingPin(t *testing.T) {
	origInit, origByName := hostInitFn, pinByNameFn
	t.Cleanup(func() { hostInitFn, pinByNameFn = origInit, origByName })

	hostInitFn = func() error { return nil }
	pinByNameFn = func(name string) pwmPin {
		if name == "GPIO13" {
			return nil
		}
		return &fakePin{}
	}

	_, err := openPeriph(Config{LeftPin: "GPIO12", RightPin: "GPIO14", BuzzerPin: "GPIO13", LightHz: 1000})
	if err == nil {
		t.Fatalf("expected error")
	}

	hostInitFn = func() error { return errors.New("no /dev/mem") }
	if _, err := openPeriph(Config{}); err == nil {
		t.Fatalf("expected host init error")
	}
}

func TestOpenPeriph_InitialisesPinsOff(t *testing.T) {
	origInit, origByName := hostInitFn, pinByNameFn
	t.Cleanup(func() { hostInitFn, pinByNameFn = origInit, origByName })

	byName := map[string]*fakePin{"GPIO12": {}, "GPIO14": {}, "GPIO13": {}}
	hostInitFn = func() error { return nil }
	pinByNameFn = func(name string) pwmPin { return byName[name] }

	d, err := openPeriph(Config{LeftPin: "GPIO12", RightPin: "GPIO14", BuzzerPin: "GPIO13", ActiveLow: true, LightHz: 1000})
	if err != nil {
		t.Fatalf("openPeriph: %v", err)
	}
	defer d.Close()
	for name, p := range byName {
		if c := p.last(t); c.isPWM || *c.out != gpio.High {
			t.Fatalf("%s initial call=%+v want high", name, c)
		}
	}
}
