package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"zonealert/internal/events"
)

// Config controls the serial NMEA reader.
//
// Device may be empty to auto-detect the first /dev/ttyACM* or /dev/ttyUSB*.
// Addr (host:port) replaces the serial port with a TCP NMEA stream, such
// as a ser2net bridge. ReadTimeout bounds how long one serial read waits
// on a silent line; zero means one second.
type Config struct {
	Enable      bool
	Device      string
	Baud        int
	ReadTimeout time.Duration
	Addr        string
}

// LineRecorder receives every sentence read from the device.
type LineRecorder interface {
	WriteLine(now time.Time, line []byte) error
}

type ServiceSnapshot struct {
	Enabled   bool   `json:"enabled"`
	Device    string `json:"device,omitempty"`
	Baud      int    `json:"baud,omitempty"`
	Lines     uint64 `json:"lines"`
	Dropped   uint64 `json:"dropped"`
	Oversized uint64 `json:"oversized"`
	LastError string `json:"last_error,omitempty"`
}

// Service reads sentences from a serial receiver and queues them as
// SentenceReceived events.
type Service struct {
	cfg Config
	q   events.Queuer
	rec LineRecorder

	cancel context.CancelFunc
	wg     sync.WaitGroup

	lines     atomic.Uint64
	dropped   atomic.Uint64
	oversized atomic.Uint64

	mu        sync.Mutex
	closer    io.Closer
	device    string
	baud      int
	lastError string
}

var openSerialFn = openSerial

func NewService(cfg Config, q events.Queuer, rec LineRecorder) *Service {
	return &Service{cfg: cfg, q: q, rec: rec, device: cfg.Device, baud: cfg.Baud}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if addr := strings.TrimSpace(s.cfg.Addr); addr != "" {
		s.startTCPLocked(ctx, addr)
		return nil
	}

	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.lastError = "gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found"
			return fmt.Errorf("gps auto-detect failed")
		}
	}
	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}
	s.device, s.baud = device, baud
	timeout := s.cfg.ReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	port, err := openSerialFn(device, baud, timeout)
	if err != nil {
		s.lastError = fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err)
		return fmt.Errorf("gps open %s: %w", device, err)
	}
	s.closer = port

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = port.Close() }()

		log.Printf("gps enabled device=%s baud=%d", device, baud)
		if err := s.ReadLines(childCtx, port); err != nil && childCtx.Err() == nil {
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
		}
	}()
	return nil
}

// maxSentenceBytes bounds one line. NMEA sentences are at most 82 chars;
// the rest is room for chatty receivers.
const maxSentenceBytes = 4096

// ReadLines reads r until EOF, a read error or ctx cancellation, queueing
// one SentenceReceived event per '$' line. Each event owns its line. Runs
// longer than maxSentenceBytes without a newline (line noise, wrong baud)
// are discarded up to the next newline.
func (s *Service) ReadLines(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, maxSentenceBytes)
	oversized := false

	for {
		if ctx.Err() != nil {
			return nil
		}
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !oversized {
				s.oversized.Add(1)
			}
			oversized = true
			continue
		}
		if oversized {
			// Tail of a discarded run.
			oversized = false
		} else if len(chunk) > 0 {
			s.handleLine(chunk)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Service) handleLine(chunk []byte) {
	line := strings.TrimSpace(string(chunk))
	if !strings.HasPrefix(line, "$") {
		return
	}
	s.lines.Add(1)
	buf := []byte(line)

	if s.rec != nil {
		if err := s.rec.WriteLine(time.Now(), buf); err != nil {
			s.setError(fmt.Sprintf("gps record failed: %v", err))
		}
	}
	if s.q == nil || !s.q.Queue(events.Event{Code: events.SentenceReceived, Line: buf}) {
		s.dropped.Add(1)
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Closing the port unblocks a pending read.
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

func (s *Service) Snapshot() ServiceSnapshot {
	if s == nil {
		return ServiceSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ServiceSnapshot{
		Enabled:   s.cfg.Enable,
		Device:    s.device,
		Baud:      s.baud,
		Lines:     s.lines.Load(),
		Dropped:   s.dropped.Load(),
		Oversized: s.oversized.Load(),
		LastError: s.lastError,
	}
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func autoDetectDevice() string {
	for _, pattern := range []string{"/dev/ttyACM%d", "/dev/ttyUSB%d"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf(pattern, i)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// silenceTenths converts d to the tty's VTIME unit, keeping it within 1..255.
func silenceTenths(d time.Duration) uint8 {
	n := (d + 50*time.Millisecond) / (100 * time.Millisecond)
	switch {
	case n < 1:
		return 1
	case n > 255:
		return 255
	}
	return uint8(n)
}
