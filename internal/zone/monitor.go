// Package zone decides which geofence applies to the current fix and
// raises speed alerts for it.
package zone

import (
	"log"
	"sync"

	"zonealert/internal/events"
	"zonealert/internal/geofence"
	"zonealert/internal/gps"
)

// FixSource is the read side of gps.Tracker.
type FixSource interface {
	Fix() gps.Fix
}

type Snapshot struct {
	Zones       int    `json:"zones"`
	Active      bool   `json:"active"`
	Zone        string `json:"zone,omitempty"`
	LimitKmh    int    `json:"limit_kmh,omitempty"`
	Magnitude   int    `json:"magnitude"`
	Evaluations uint64 `json:"evaluations"`
}

// Monitor evaluates every fix update against an ordered zone list. The
// first matching zone wins.
type Monitor struct {
	src FixSource
	q   events.Queuer
	tol float64

	mu    sync.Mutex
	zones []geofence.Zone
	snap  Snapshot
}

func NewMonitor(zones []geofence.Zone, src FixSource, q events.Queuer, headingToleranceDeg float64) *Monitor {
	if headingToleranceDeg <= 0 {
		headingToleranceDeg = geofence.DefaultHeadingToleranceDeg
	}
	m := &Monitor{src: src, q: q, tol: headingToleranceDeg}
	m.SetZones(zones)
	return m
}

// Attach evaluates on every FixUpdated and forgets the active alert when
// reception is lost, since the renderer clears itself then.
func (m *Monitor) Attach(bus *events.Bus) {
	bus.Subscribe(events.FixUpdated, func(events.Event) { m.Evaluate() })
	bus.Subscribe(events.ReceptionChanged, func(ev events.Event) {
		if ev.Param == 0 {
			m.mu.Lock()
			m.clearLocked()
			m.mu.Unlock()
		}
	})
}

// SetZones replaces the zone list.
func (m *Monitor) SetZones(zones []geofence.Zone) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = append([]geofence.Zone(nil), zones...)
	m.snap.Zones = len(m.zones)
}

// Evaluate checks the current fix. Inside a zone with a known speed it
// queues AlertTriggered with magnitude = speed - limit (truncated to
// km/h); leaving the last matched zone queues a single AlertReset.
func (m *Monitor) Evaluate() {
	fix := m.src.Fix()

	m.mu.Lock()
	m.snap.Evaluations++
	z, ok := m.matchLocked(fix)
	var ev events.Event
	switch {
	case ok && fix.SpeedKmh >= 0:
		mag := int(fix.SpeedKmh - float64(z.LimitKmh))
		if !m.snap.Active || m.snap.Zone != z.Name {
			log.Printf("zone enter name=%s limit=%d speed=%.1f", z.Name, z.LimitKmh, fix.SpeedKmh)
		}
		m.snap.Active = true
		m.snap.Zone = z.Name
		m.snap.LimitKmh = z.LimitKmh
		m.snap.Magnitude = mag
		ev = events.Event{Code: events.AlertTriggered, Param: mag}
	case m.snap.Active:
		log.Printf("zone leave name=%s", m.snap.Zone)
		m.clearLocked()
		ev = events.Event{Code: events.AlertReset}
	default:
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if m.q != nil && !m.q.Queue(ev) {
		log.Printf("zone event dropped code=%s", ev.Code)
	}
}

func (m *Monitor) matchLocked(fix gps.Fix) (geofence.Zone, bool) {
	for _, z := range m.zones {
		if z.Match(fix.LatDeg, fix.LonDeg, fix.HeadingDeg, m.tol) {
			return z, true
		}
	}
	return geofence.Zone{}, false
}

func (m *Monitor) clearLocked() {
	m.snap.Active = false
	m.snap.Zone = ""
	m.snap.LimitKmh = 0
	m.snap.Magnitude = 0
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
