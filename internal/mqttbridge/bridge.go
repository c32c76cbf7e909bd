// Package mqttbridge mirrors the device state onto an MQTT broker and
// accepts remote alert commands for bench testing.
//
// Topics, relative to the configured prefix:
//
//	<prefix>/fix        JSON gps.Fix, retained
//	<prefix>/reception  "true" / "false", retained
//	<prefix>/alert      JSON {"severity":..., "magnitude":...}
//	<prefix>/alert/set  inbound: an integer magnitude or "reset"
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"zonealert/internal/alert"
	"zonealert/internal/events"
	"zonealert/internal/gps"
)

type Config struct {
	Enable      bool
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// FixSource is the read side of gps.Tracker.
type FixSource interface {
	Fix() gps.Fix
}

// conn is the part of an MQTT client the bridge needs.
type conn interface {
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, h func(payload []byte)) error
	Disconnect()
}

var dialFn = dialPaho

type AlertMessage struct {
	Severity  alert.Severity `json:"severity"`
	Magnitude int            `json:"magnitude"`
}

type Snapshot struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
	Published uint64 `json:"published"`
	Commands  uint64 `json:"commands"`
	LastError string `json:"last_error,omitempty"`
}

type Bridge struct {
	cfg Config
	q   events.Queuer
	src FixSource

	published atomic.Uint64
	commands  atomic.Uint64

	mu        sync.Mutex
	c         conn
	lastError string
}

func New(cfg Config, q events.Queuer, src FixSource) *Bridge {
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "zonealert"
	}
	return &Bridge{cfg: cfg, q: q, src: src}
}

func (b *Bridge) topic(name string) string {
	return b.cfg.TopicPrefix + "/" + name
}

// Start connects and subscribes to the command topic. The connection is
// closed when ctx is done.
func (b *Bridge) Start(ctx context.Context) error {
	if b == nil {
		return fmt.Errorf("mqttbridge: bridge is nil")
	}
	if !b.cfg.Enable {
		return nil
	}
	c, err := dialFn(b.cfg)
	if err != nil {
		b.setError(err.Error())
		return fmt.Errorf("mqttbridge: connect %s: %w", b.cfg.Broker, err)
	}
	if err := c.Subscribe(b.topic("alert/set"), b.handleCommand); err != nil {
		c.Disconnect()
		b.setError(err.Error())
		return fmt.Errorf("mqttbridge: subscribe: %w", err)
	}

	b.mu.Lock()
	b.c = c
	b.mu.Unlock()
	log.Printf("mqtt connected broker=%s prefix=%s", b.cfg.Broker, b.cfg.TopicPrefix)

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return nil
}

func (b *Bridge) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	c := b.c
	b.c = nil
	b.mu.Unlock()
	if c != nil {
		c.Disconnect()
	}
}

// Attach publishes state changes seen on the bus.
func (b *Bridge) Attach(bus *events.Bus) {
	bus.Subscribe(events.FixUpdated, func(events.Event) { b.PublishFix(b.src.Fix()) })
	bus.Subscribe(events.ReceptionChanged, func(ev events.Event) { b.PublishReception(ev.Param != 0) })
	bus.Subscribe(events.AlertTriggered, func(ev events.Event) {
		b.PublishAlert(AlertMessage{Severity: alert.Classify(ev.Param), Magnitude: ev.Param})
	})
	bus.Subscribe(events.AlertReset, func(events.Event) {
		b.PublishAlert(AlertMessage{Severity: alert.None})
	})
}

func (b *Bridge) PublishFix(fix gps.Fix) {
	payload, err := json.Marshal(fix)
	if err != nil {
		b.setError(fmt.Sprintf("mqttbridge: marshal fix: %v", err))
		return
	}
	b.publish("fix", true, payload)
}

func (b *Bridge) PublishReception(on bool) {
	b.publish("reception", true, []byte(strconv.FormatBool(on)))
}

func (b *Bridge) PublishAlert(m AlertMessage) {
	payload, err := json.Marshal(m)
	if err != nil {
		b.setError(fmt.Sprintf("mqttbridge: marshal alert: %v", err))
		return
	}
	b.publish("alert", false, payload)
}

func (b *Bridge) publish(name string, retained bool, payload []byte) {
	b.mu.Lock()
	c := b.c
	b.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.Publish(b.topic(name), retained, payload); err != nil {
		b.setError(fmt.Sprintf("mqttbridge: publish %s: %v", name, err))
		return
	}
	b.published.Add(1)
}

// handleCommand runs on the MQTT client's goroutine; it only queues.
func (b *Bridge) handleCommand(payload []byte) {
	s := strings.TrimSpace(string(payload))
	var ev events.Event
	if strings.EqualFold(s, "reset") {
		ev = events.Event{Code: events.AlertReset}
	} else {
		m, err := strconv.Atoi(s)
		if err != nil {
			log.Printf("mqtt ignored command payload=%q", s)
			return
		}
		ev = events.Event{Code: events.AlertTriggered, Param: m}
	}
	b.commands.Add(1)
	if b.q == nil || !b.q.Queue(ev) {
		log.Printf("mqtt command dropped code=%s", ev.Code)
	}
}

func (b *Bridge) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Enabled:   b.cfg.Enable,
		Connected: b.c != nil,
		Broker:    b.cfg.Broker,
		Published: b.published.Load(),
		Commands:  b.commands.Load(),
		LastError: b.lastError,
	}
}

func (b *Bridge) setError(msg string) {
	b.mu.Lock()
	if msg != b.lastError {
		log.Printf("%s", msg)
	}
	b.lastError = msg
	b.mu.Unlock()
}
