//go:build linux

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"zonealert/internal/alert"
)

// gpiodOutput drives each channel as a digital line through the GPIO
// character device. Any level above zero is on; tones are ignored, so a
// buzzer on this backend must be an active one.
type gpiodOutput struct {
	mu    sync.Mutex
	chips []*gpiocdev.Chip
	lines map[alert.Channel]*gpiocdev.Line
}

func openGPIOD(cfg Config) (Driver, error) {
	o := &gpiodOutput{lines: make(map[alert.Channel]*gpiocdev.Line, 3)}
	for ch, name := range cfg.pinNames() {
		name = strings.TrimSpace(name)
		if name == "" {
			_ = o.Close()
			return nil, fmt.Errorf("output: %s pin is not configured", ch)
		}
		chip, line, err := requestLine(name, cfg.ActiveLow)
		if err != nil {
			_ = o.Close()
			return nil, err
		}
		o.chips = append(o.chips, chip)
		o.lines[ch] = line
	}
	return o, nil
}

// requestLine finds the named line on any gpiochip. Pi 5 kernels may
// expose the header on gpiochip4 rather than gpiochip0.
func requestLine(name string, activeLow bool) (*gpiocdev.Chip, *gpiocdev.Line, error) {
	candidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			candidates = append(candidates, filepath.Join("/dev", e.Name()))
		}
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0), gpiocdev.WithConsumer("zonealert")}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	for _, path := range candidates {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(name)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, opts...)
		if err != nil {
			_ = chip.Close()
			continue
		}
		return chip, line, nil
	}
	return nil, nil, fmt.Errorf("output: gpio line %q not found (or busy)", name)
}

func (o *gpiodOutput) Set(ch alert.Channel, l alert.Level) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	line := o.lines[ch]
	if line == nil {
		return fmt.Errorf("output: no line for %s", ch)
	}
	v := 0
	if l > 0 {
		v = 1
	}
	return line.SetValue(v)
}

func (o *gpiodOutput) SetTone(int) error { return nil }

func (o *gpiodOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var first error
	for ch, line := range o.lines {
		_ = line.SetValue(0)
		if err := line.Close(); err != nil && first == nil {
			first = err
		}
		delete(o.lines, ch)
	}
	for _, c := range o.chips {
		_ = c.Close()
	}
	o.chips = nil
	return first
}
