package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"zonealert/internal/alert"
	"zonealert/internal/config"
	"zonealert/internal/events"
	"zonealert/internal/geofence"
	"zonealert/internal/gps"
	"zonealert/internal/mqttbridge"
	"zonealert/internal/output"
	"zonealert/internal/replay"
	"zonealert/internal/web"
	"zonealert/internal/zone"
)

const busQueueSize = 256

var openOutputFn = output.Open

type liveRuntime struct {
	cfg config.Config

	bus      *events.Bus
	tracker  *gps.Tracker
	out      output.Driver
	renderer *alert.Renderer
	monitor  *zone.Monitor
	bridge   *mqttbridge.Bridge
	gpsSvc   *gps.Service
	recorder *replay.Writer

	status *web.Status
	bc     *web.Broadcaster
	logs   *web.LogBuffer
}

// newLiveRuntime builds every component and subscribes it to the bus. Nothing
// runs until Run is called; Close releases what was opened.
func newLiveRuntime(cfg config.Config, logs *web.LogBuffer) (*liveRuntime, error) {
	zones, err := geofence.LoadZones(cfg.Zones.Path)
	if err != nil {
		return nil, fmt.Errorf("zones load failed: %w", err)
	}
	log.Printf("zones loaded path=%s count=%d heading_tolerance_deg=%.0f", cfg.Zones.Path, len(zones), cfg.Zones.HeadingToleranceDeg)

	r := &liveRuntime{cfg: cfg, bus: events.NewBus(busQueueSize), logs: logs}

	r.tracker = gps.NewTracker(r.bus, gps.WithDebug(cfg.GPS.Debug))
	r.tracker.Attach(r.bus)

	activeLow := cfg.Alert.ActiveLow == nil || *cfg.Alert.ActiveLow
	out, err := openOutputFn(output.Config{
		Backend:   cfg.Alert.Backend,
		LeftPin:   cfg.Alert.LeftPin,
		RightPin:  cfg.Alert.RightPin,
		BuzzerPin: cfg.Alert.BuzzerPin,
		ActiveLow: activeLow,
		LightHz:   cfg.Alert.LightHz,
	})
	if err != nil {
		return nil, fmt.Errorf("alert output open failed: %w", err)
	}
	r.out = out

	r.renderer = alert.NewRenderer(alert.Config{
		BasePeriod: cfg.Alert.BasePeriod,
		MinPeriod:  cfg.Alert.MinPeriod,
		RampPeriod: cfg.Alert.RampPeriod,
		NightDim:   cfg.Alert.NightDim,
		ToneHz:     cfg.Alert.ToneHz,
	}, out, r.tracker.IsNight)
	r.renderer.Attach(r.bus)

	r.monitor = zone.NewMonitor(zones, r.tracker, r.bus, cfg.Zones.HeadingToleranceDeg)
	r.monitor.Attach(r.bus)

	if cfg.MQTT.Enable {
		r.bridge = mqttbridge.New(mqttbridge.Config{
			Enable:      true,
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, r.bus, r.tracker)
		r.bridge.Attach(r.bus)
	}

	if cfg.GPS.Enable {
		var rec gps.LineRecorder
		if p := strings.TrimSpace(cfg.GPS.RecordPath); p != "" {
			w, err := replay.CreateWriter(p)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("gps record open failed: %w", err)
			}
			r.recorder = w
			rec = w
			log.Printf("gps recording path=%s", p)
		}
		r.gpsSvc = gps.NewService(gps.Config{
			Enable:      true,
			Device:      cfg.GPS.Device,
			Baud:        cfg.GPS.Baud,
			ReadTimeout: cfg.GPS.ReadTimeout,
			Addr:        cfg.GPS.TCPAddr,
		}, r.bus, rec)
	}

	r.status = web.NewStatus(r.sources())
	r.status.SetMode(r.mode())
	r.bc = web.NewBroadcaster(r.status, 250*time.Millisecond)
	r.bc.Attach(r.bus)

	return r, nil
}

func (r *liveRuntime) mode() string {
	switch {
	case r.cfg.Replay.Enable:
		return "replay"
	case r.cfg.GPS.Enable:
		return "live"
	default:
		return "idle"
	}
}

func (r *liveRuntime) sources() web.Sources {
	src := web.Sources{
		Fix:   r.tracker.Snapshot,
		Alert: r.renderer.Snapshot,
		Zone:  r.monitor.Snapshot,
	}
	if r.gpsSvc != nil {
		src.Reader = r.gpsSvc.Snapshot
	}
	if r.bridge != nil {
		src.MQTT = r.bridge.Snapshot
	}
	return src
}

// Run starts the renderer, the sentence source and the optional network
// surfaces, then dispatches bus events until ctx is done. A finished
// non-looping replay ends Run with a nil error.
func (r *liveRuntime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.renderer.Start()

	if r.bridge != nil {
		if err := r.bridge.Start(ctx); err != nil {
			// Keep alerting even without a broker.
			log.Printf("mqtt init failed: %v", err)
		}
	}

	if r.gpsSvc != nil {
		if err := r.gpsSvc.Start(ctx); err != nil {
			// Keep running; the status page reports the error.
			log.Printf("gps init failed: %v", err)
		}
	}

	go func() { _ = r.bc.Run(ctx) }()

	if addr := strings.TrimSpace(r.cfg.Web.Listen); addr != "" {
		go func() {
			log.Printf("web listening addr=%s", addr)
			if err := web.Serve(ctx, addr, r.status, r.bc, r.logs); err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
			}
		}()
	}

	replayDone := make(chan error, 1)
	if r.cfg.Replay.Enable {
		go func() {
			replayDone <- runReplay(ctx, r.cfg.Replay, nil, func(line []byte) error {
				r.queueSentence(line)
				return nil
			})
		}()
	}

	busDone := make(chan error, 1)
	go func() { busDone <- r.bus.Run(ctx) }()

	select {
	case err := <-busDone:
		return err
	case err := <-replayDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Printf("replay finished")
		// Let the last sentences reach every listener.
		cancel()
		<-busDone
		r.bus.Drain()
		return nil
	}
}

// queueSentence copies line onto the bus, retrying briefly when the queue
// is full so replay at high speed does not lose sentences.
func (r *liveRuntime) queueSentence(line []byte) {
	ev := events.Event{Code: events.SentenceReceived, Line: append([]byte(nil), line...)}
	for i := 0; i < 50; i++ {
		if r.bus.Queue(ev) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	log.Printf("replay sentence dropped: bus queue full")
}

func (r *liveRuntime) Close() {
	if r == nil {
		return
	}
	if r.gpsSvc != nil {
		r.gpsSvc.Close()
		r.gpsSvc = nil
	}
	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			log.Printf("gps record close failed: %v", err)
		}
		r.recorder = nil
	}
	if r.bridge != nil {
		r.bridge.Close()
		r.bridge = nil
	}
	if r.renderer != nil {
		r.renderer.Close()
	}
	if r.out != nil {
		if err := r.out.Close(); err != nil {
			log.Printf("alert output close failed: %v", err)
		}
		r.out = nil
	}
}

// runReplay plays the configured log, calling send for every sentence.
func runReplay(ctx context.Context, cfg config.ReplayConfig, sleeper replay.Sleeper, send func(line []byte) error) error {
	if send == nil {
		return fmt.Errorf("send is nil")
	}
	recs, err := replay.ReadFile(cfg.Path)
	if err != nil {
		return fmt.Errorf("replay read failed: %w", err)
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	log.Printf("replay path=%s records=%d speed=%.2f loop=%t", cfg.Path, len(recs), speed, cfg.Loop)
	return replay.Play(ctx, recs, speed, cfg.Loop, sleeper, send)
}
