package output

import (
	"log"
	"sync"

	"zonealert/internal/alert"
)

const recorderHistory = 256

type Write struct {
	Channel alert.Channel
	Level   alert.Level
}

// Recorder is an in-memory output. It keeps the current level of every
// channel and the most recent writes.
type Recorder struct {
	verbose bool

	mu     sync.Mutex
	levels [3]alert.Level
	tone   int
	writes []Write
}

// NewRecorder returns a Recorder. When verbose is set, every level change
// is logged.
func NewRecorder(verbose bool) *Recorder {
	return &Recorder{verbose: verbose}
}

func (r *Recorder) Set(ch alert.Channel, l alert.Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch < alert.Left || ch > alert.Buzzer {
		return nil
	}
	if r.verbose && r.levels[ch] != l {
		log.Printf("output %s=%d", ch, l)
	}
	r.levels[ch] = l
	r.writes = append(r.writes, Write{Channel: ch, Level: l})
	if len(r.writes) > recorderHistory {
		r.writes = append(r.writes[:0:0], r.writes[len(r.writes)-recorderHistory:]...)
	}
	return nil
}

func (r *Recorder) SetTone(hz int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.verbose && r.tone != hz {
		log.Printf("output tone=%dHz", hz)
	}
	r.tone = hz
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = [3]alert.Level{}
	return nil
}

func (r *Recorder) Level(ch alert.Channel) alert.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch < alert.Left || ch > alert.Buzzer {
		return 0
	}
	return r.levels[ch]
}

func (r *Recorder) Tone() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tone
}

// Writes returns a copy of the recent write history, oldest first.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}
