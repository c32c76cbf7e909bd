// Package alert renders a speed-limit alert on two lights and a buzzer.
//
// An alert magnitude (speed minus limit, km/h) is classified into a
// Severity. Each severity owns a fixed keyframe animation that a render
// tick steps through; warnings speed the tick up as the magnitude grows.
// Reception changes play a short buzzer frequency ramp on a second timer.
package alert

import (
	"fmt"
	"time"
)

type Severity int

const (
	None Severity = iota
	Info1
	Info2
	Info3
	Warning
	Danger
)

func (s Severity) String() string {
	switch s {
	case None:
		return "none"
	case Info1:
		return "info1"
	case Info2:
		return "info2"
	case Info3:
		return "info3"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	for v := None; v <= Danger; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("alert: unknown severity %q", b)
}

// Classify maps a signed magnitude onto a severity. It is total: every
// integer has exactly one severity, and None is never returned.
func Classify(m int) Severity {
	switch {
	case m <= -10:
		return Info1
	case m < -5:
		return Info2
	case m <= 0:
		return Info3
	case m <= 15:
		return Warning
	default:
		return Danger
	}
}

// TickPeriod returns the render period for a severity. Warnings tick
// 3ms faster per km/h over the limit, never faster than min.
func TickPeriod(s Severity, m int, base, min time.Duration) time.Duration {
	if s != Warning {
		return base
	}
	p := base - time.Duration(3*m)*time.Millisecond
	if p < min {
		p = min
	}
	return p
}
