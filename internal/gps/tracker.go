package gps

import (
	"log"
	"strings"
	"sync"
	"time"

	"zonealert/internal/events"
)

// Invalid marks an unknown speed or heading.
const Invalid = -1.0

const knotsToKmh = 1.852

// Fix is the latest positioning snapshot.
type Fix struct {
	LatDeg     float64 `json:"lat_deg"`
	LonDeg     float64 `json:"lon_deg"`
	HeadingDeg float64 `json:"heading_deg"`
	SpeedKmh   float64 `json:"speed_kmh"`
	// LastValid is when the receiver last reported an active fix.
	LastValid time.Time `json:"last_valid,omitempty"`
	// TimeOfDay is minutes since midnight UTC.
	TimeOfDay int `json:"time_of_day_min"`
	// DayOfYear is the coarse day index used for the sunrise table.
	DayOfYear int `json:"day_index"`
}

// Stats counts what the tracker did with incoming lines.
type Stats struct {
	Accepted       uint64 `json:"accepted"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	Ignored        uint64 `json:"ignored"`
	LastError      string `json:"last_error,omitempty"`
}

type Snapshot struct {
	Fix       Fix   `json:"fix"`
	Reception bool  `json:"reception"`
	Night     bool  `json:"night"`
	Stats     Stats `json:"stats"`
}

// Tracker owns the device's fix and reception state.
type Tracker struct {
	q     events.Queuer
	now   func() time.Time
	debug bool

	mu        sync.RWMutex
	fix       Fix
	reception bool
	stats     Stats
}

type TrackerOption func(*Tracker)

// WithClock overrides the clock used for Fix.LastValid.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithDebug logs every decoded sentence and every rejected one.
func WithDebug(on bool) TrackerOption {
	return func(t *Tracker) { t.debug = on }
}

func NewTracker(q events.Queuer, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		q:   q,
		now: time.Now,
		fix: Fix{HeadingDeg: Invalid, SpeedKmh: Invalid, DayOfYear: -1},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Attach subscribes the tracker to SentenceReceived events.
func (t *Tracker) Attach(bus *events.Bus) {
	bus.Subscribe(events.SentenceReceived, func(ev events.Event) {
		t.HandleSentence(ev.Line)
	})
}

// HandleSentence validates and decodes one NMEA line. The buffer is not
// retained.
func (t *Tracker) HandleSentence(line []byte) {
	s := strings.TrimSpace(string(line))

	if err := ValidateChecksum(s); err != nil {
		t.mu.Lock()
		t.stats.ChecksumErrors++
		t.stats.LastError = err.Error()
		t.mu.Unlock()
		if t.debug {
			log.Printf("gps rejected line=%q err=%v", s, err)
		}
		return
	}
	if !isRMC(s) {
		t.mu.Lock()
		t.stats.Ignored++
		t.mu.Unlock()
		return
	}

	var out []events.Event
	t.mu.Lock()
	out = t.applyRMCLocked(rmcFields(s), out)
	t.stats.Accepted++
	fix, reception := t.fix, t.reception
	t.mu.Unlock()

	if t.debug {
		log.Printf("gps rmc line=%q lat=%.6f lon=%.6f spd=%.1f hdg=%.1f reception=%t night=%t day=%d",
			s, fix.LatDeg, fix.LonDeg, fix.SpeedKmh, fix.HeadingDeg, reception, fix.IsNight(), fix.DayOfYear)
	}

	for _, ev := range out {
		if t.q != nil && !t.q.Queue(ev) {
			log.Printf("gps event dropped code=%s", ev.Code)
		}
	}
}

func (t *Tracker) applyRMCLocked(f []string, out []events.Event) []events.Event {
	t.fix.TimeOfDay = minutesOfDay(f[0])

	old := t.reception
	switch firstByte(f[1]) {
	case 'A':
		t.reception = true
		t.fix.LastValid = t.now()
	case 'V':
		t.reception = false
	}
	if old != t.reception {
		out = append(out, events.Event{Code: events.ReceptionChanged, Param: boolParam(t.reception)})
	}

	// A zero coordinate means the field was empty; keep the last position.
	if raw := leadingFloat(f[2]); raw != 0 {
		t.fix.LatDeg = toDecimalDegrees(raw, firstByte(f[3]))
	}
	if raw := leadingFloat(f[4]); raw != 0 {
		t.fix.LonDeg = toDecimalDegrees(raw, firstByte(f[5]))
	}

	if f[6] == "" {
		t.fix.SpeedKmh = Invalid
	} else {
		t.fix.SpeedKmh = leadingFloat(f[6]) * knotsToKmh
	}
	if f[7] == "" {
		t.fix.HeadingDeg = Invalid
	} else {
		t.fix.HeadingDeg = leadingFloat(f[7])
	}

	t.fix.DayOfYear = coarseDayIndex(f[8])

	if t.reception {
		out = append(out, events.Event{Code: events.FixUpdated})
	}
	return out
}

func (t *Tracker) Fix() Fix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fix
}

func (t *Tracker) Reception() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reception
}

// IsNight reports whether the current fix time falls outside daylight.
func (t *Tracker) IsNight() bool {
	return t.Fix().IsNight()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{Fix: t.fix, Reception: t.reception, Night: t.fix.IsNight(), Stats: t.stats}
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func boolParam(b bool) int {
	if b {
		return 1
	}
	return 0
}
