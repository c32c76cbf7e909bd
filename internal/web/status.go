package web

import (
	"sync/atomic"
	"time"

	"zonealert/internal/alert"
	"zonealert/internal/gps"
	"zonealert/internal/mqttbridge"
	"zonealert/internal/zone"
)

// Sources returns the current snapshot of each service. Any of them may be
// nil when the service is not running.
type Sources struct {
	Fix    func() gps.Snapshot
	Reader func() gps.ServiceSnapshot
	Alert  func() alert.Snapshot
	Zone   func() zone.Snapshot
	MQTT   func() mqttbridge.Snapshot
}

type Status struct {
	startUnixNano int64
	events        uint64
	mode          atomic.Value // string
	src           Sources
}

func NewStatus(src Sources) *Status {
	s := &Status{src: src}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.mode.Store("")
	return s
}

// SetMode records how sentences reach the device ("live" or "replay").
func (s *Status) SetMode(mode string) {
	s.mode.Store(mode)
}

// MarkEvent counts one dispatched bus event.
func (s *Status) MarkEvent() {
	atomic.AddUint64(&s.events, 1)
}

type StatusSnapshot struct {
	Service   string               `json:"service"`
	NowUTC    string               `json:"now_utc"`
	UptimeSec int64                `json:"uptime_sec"`
	Mode      string               `json:"mode"`
	Events    uint64               `json:"events"`
	GPS       *gps.Snapshot        `json:"gps,omitempty"`
	Reader    *gps.ServiceSnapshot `json:"reader,omitempty"`
	Alert     *alert.Snapshot      `json:"alert,omitempty"`
	Zone      *zone.Snapshot       `json:"zone,omitempty"`
	MQTT      *mqttbridge.Snapshot `json:"mqtt,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "zonealert",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Mode:      s.mode.Load().(string),
		Events:    atomic.LoadUint64(&s.events),
	}
	if s.src.Fix != nil {
		v := s.src.Fix()
		snap.GPS = &v
	}
	if s.src.Reader != nil {
		v := s.src.Reader()
		snap.Reader = &v
	}
	if s.src.Alert != nil {
		v := s.src.Alert()
		snap.Alert = &v
	}
	if s.src.Zone != nil {
		v := s.src.Zone()
		snap.Zone = &v
	}
	if s.src.MQTT != nil {
		v := s.src.MQTT()
		snap.MQTT = &v
	}
	return snap
}
