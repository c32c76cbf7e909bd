package alert

import (
	"fmt"
	"log"
	"sync"
	"time"

	"zonealert/internal/events"
	"zonealert/internal/schedule"
)

type Channel int

const (
	Left Channel = iota
	Right
	Buzzer
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	case Buzzer:
		return "buzzer"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Output drives the two lights and the buzzer. Implementations handle pin
// polarity; Level 0 always means off.
type Output interface {
	Set(ch Channel, level Level) error
	// SetTone sets the buzzer PWM frequency.
	SetTone(hz int) error
}

// Timer is a periodic callback source. *schedule.Task implements it.
type Timer interface {
	Start(period time.Duration)
	Stop()
}

var newTimerFn = func(fn func()) Timer { return schedule.NewTask(fn) }

const (
	rampStepHz   = 88
	rampLowStep  = 1
	rampHighStep = 10
)

type Config struct {
	BasePeriod time.Duration
	MinPeriod  time.Duration
	RampPeriod time.Duration
	// NightDim scales light levels at night. The buzzer is never dimmed.
	NightDim float64
	// ToneHz is the buzzer frequency used for alert animations.
	ToneHz int
}

func (c Config) withDefaults() Config {
	if c.BasePeriod <= 0 {
		c.BasePeriod = 50 * time.Millisecond
	}
	if c.MinPeriod <= 0 {
		c.MinPeriod = time.Millisecond
	}
	if c.RampPeriod <= 0 {
		c.RampPeriod = 100 * time.Millisecond
	}
	if c.NightDim <= 0 || c.NightDim > 1 {
		c.NightDim = 0.05
	}
	if c.ToneHz <= 0 {
		c.ToneHz = 1000
	}
	return c
}

type Snapshot struct {
	Severity   Severity      `json:"severity"`
	Magnitude  int           `json:"magnitude"`
	Cursor     int           `json:"cursor"`
	Period     time.Duration `json:"period_ns"`
	Reception  bool          `json:"reception"`
	RampActive bool          `json:"ramp_active"`
	RampHz     int           `json:"ramp_hz,omitempty"`
	Writes     uint64        `json:"writes"`
	LastError  string        `json:"last_error,omitempty"`
}

// Renderer owns severity, the animation cursor and the reception ramp.
// Event handlers and both timer callbacks serialize on one mutex.
type Renderer struct {
	cfg   Config
	out   Output
	night func() bool

	render Timer
	ramp   Timer

	mu        sync.Mutex
	severity  Severity
	magnitude int
	cursor    int
	// dirty is set while outputs may hold a non-off animation frame.
	dirty     bool
	period    time.Duration
	reception bool
	rampOn    bool
	rampStep  int
	writes    uint64
	lastError string
}

// NewRenderer builds a renderer writing to out. night may be nil, in
// which case it is always day.
func NewRenderer(cfg Config, out Output, night func() bool) *Renderer {
	cfg = cfg.withDefaults()
	if night == nil {
		night = func() bool { return false }
	}
	r := &Renderer{cfg: cfg, out: out, night: night, period: cfg.BasePeriod}
	r.render = newTimerFn(r.Tick)
	r.ramp = newTimerFn(r.RampTick)
	return r
}

// Attach subscribes the renderer to alert and reception events.
func (r *Renderer) Attach(bus *events.Bus) {
	bus.Subscribe(events.AlertTriggered, func(ev events.Event) { r.Trigger(ev.Param) })
	bus.Subscribe(events.AlertReset, func(events.Event) { r.Reset() })
	bus.Subscribe(events.ReceptionChanged, func(ev events.Event) { r.SetReception(ev.Param != 0) })
}

// Start turns every channel off and starts the render timer.
func (r *Renderer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setToneLocked(r.cfg.ToneHz)
	r.allOffLocked(true)
	r.render.Start(r.period)
	log.Printf("alert renderer started period=%s night_dim=%.2f tone_hz=%d", r.period, r.cfg.NightDim, r.cfg.ToneHz)
}

// Close stops both timers and leaves every channel off.
func (r *Renderer) Close() {
	r.render.Stop()
	r.ramp.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rampOn = false
	r.allOffLocked(true)
}

// Trigger classifies m and switches the animation and tick period.
func (r *Renderer) Trigger(m int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sev := Classify(m)
	if sev != r.severity {
		log.Printf("alert severity=%s magnitude=%d", sev, m)
	}
	r.setSeverityLocked(sev)
	r.magnitude = m
	r.dirty = true
	r.setPeriodLocked(TickPeriod(sev, m, r.cfg.BasePeriod, r.cfg.MinPeriod))
}

// Reset returns to None. The outputs are turned off by the next tick.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Renderer) resetLocked() {
	if r.severity != None {
		log.Printf("alert reset from=%s", r.severity)
	}
	r.setSeverityLocked(None)
	r.magnitude = 0
	r.setPeriodLocked(r.cfg.BasePeriod)
}

// SetReception handles a reception change. Losing reception clears the
// alert. A value equal to the current one does not restart the ramp.
func (r *Renderer) SetReception(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !on {
		r.resetLocked()
	}
	if on == r.reception {
		return
	}
	r.reception = on
	r.cursor = 0

	r.rampStep = rampLowStep
	if !on {
		r.rampStep = rampHighStep
	}
	r.rampOn = true
	r.setToneLocked(r.rampStep * rampStepHz)
	r.setLocked(Buzzer, HalfLevel)
	r.ramp.Start(r.cfg.RampPeriod)
}

// Tick renders one animation frame. It is the render timer callback.
func (r *Renderer) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.severity == None {
		if !r.dirty {
			return
		}
		r.cursor = 0
		// A running ramp owns the buzzer.
		r.allOffLocked(!r.rampOn)
		return
	}

	frames := animations[r.severity]
	if len(frames) == 0 {
		return
	}
	if r.cursor >= len(frames) {
		r.cursor = 0
	}
	k := frames[r.cursor]

	mult := 1.0
	if r.night() {
		mult = r.cfg.NightDim
	}
	r.setLocked(Left, Level(float64(k.Left)*mult))
	r.setLocked(Right, Level(float64(k.Right)*mult))
	r.setLocked(Buzzer, k.Buzzer)
	r.cursor++
	r.dirty = true
}

// RampTick steps the reception ramp. It is the ramp timer callback.
func (r *Renderer) RampTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rampOn {
		return
	}

	target := rampLowStep
	if r.reception {
		r.rampStep++
		target = rampHighStep
	} else {
		r.rampStep--
	}
	r.setToneLocked(r.rampStep * rampStepHz)

	if r.rampStep == target {
		r.ramp.Stop()
		r.rampOn = false
		r.setLocked(Buzzer, 0)
		r.setToneLocked(r.cfg.ToneHz)
	}
}

func (r *Renderer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		Severity:   r.severity,
		Magnitude:  r.magnitude,
		Cursor:     r.cursor,
		Period:     r.period,
		Reception:  r.reception,
		RampActive: r.rampOn,
		Writes:     r.writes,
		LastError:  r.lastError,
	}
	if r.rampOn {
		s.RampHz = r.rampStep * rampStepHz
	}
	return s
}

func (r *Renderer) setSeverityLocked(sev Severity) {
	if sev != r.severity {
		r.cursor = 0
	}
	r.severity = sev
}

func (r *Renderer) setPeriodLocked(p time.Duration) {
	r.period = p
	r.render.Start(p)
}

func (r *Renderer) allOffLocked(buzzer bool) {
	r.setLocked(Left, 0)
	r.setLocked(Right, 0)
	if buzzer {
		r.setLocked(Buzzer, 0)
	}
	r.dirty = false
}

func (r *Renderer) setLocked(ch Channel, l Level) {
	if l > MaxLevel {
		l = MaxLevel
	}
	r.writes++
	if err := r.out.Set(ch, l); err != nil {
		r.errorLocked(fmt.Sprintf("alert set %s=%d: %v", ch, l, err))
	}
}

func (r *Renderer) setToneLocked(hz int) {
	if err := r.out.SetTone(hz); err != nil {
		r.errorLocked(fmt.Sprintf("alert tone %dHz: %v", hz, err))
	}
}

// errorLocked keeps the last output error, logging only when it changes.
func (r *Renderer) errorLocked(msg string) {
	if msg != r.lastError {
		log.Printf("%s", msg)
	}
	r.lastError = msg
}
