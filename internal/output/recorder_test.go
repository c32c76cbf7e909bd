package output

import (
	"testing"

	"zonealert/internal/alert"
)

func TestRecorder_TracksLevelsAndHistory(t *testing.T) {
	r := NewRecorder(false)
	_ = r.Set(alert.Left, 10)
	_ = r.Set(alert.Buzzer, 512)
	_ = r.SetTone(880)

	if r.Level(alert.Left) != 10 || r.Level(alert.Right) != 0 || r.Level(alert.Buzzer) != 512 {
		t.Fatalf("levels: %d %d %d", r.Level(alert.Left), r.Level(alert.Right), r.Level(alert.Buzzer))
	}
	if r.Tone() != 880 {
		t.Fatalf("tone=%d", r.Tone())
	}
	w := r.Writes()
	if len(w) != 2 || w[1] != (Write{Channel: alert.Buzzer, Level: 512}) {
		t.Fatalf("writes=%+v", w)
	}

	_ = r.Close()
	if r.Level(alert.Buzzer) != 0 {
		t.Fatalf("Close should zero levels")
	}
}

func TestRecorder_HistoryIsBounded(t *testing.T) {
	r := NewRecorder(false)
	for i := 0; i < recorderHistory+10; i++ {
		_ = r.Set(alert.Right, alert.Level(i))
	}
	w := r.Writes()
	if len(w) != recorderHistory {
		t.Fatalf("len=%d want %d", len(w), recorderHistory)
	}
	if w[0].Level != 10 {
		t.Fatalf("oldest=%d want 10", w[0].Level)
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	d, err := Open(Config{Backend: "log"})
	if err != nil {
		t.Fatalf("Open(log): %v", err)
	}
	if _, ok := d.(*Recorder); !ok {
		t.Fatalf("log backend is %T", d)
	}

	if _, err := Open(Config{Backend: "pigpio"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}

	origP, origG := openPeriphFn, openGPIODFn
	t.Cleanup(func() { openPeriphFn, openGPIODFn = origP, origG })
	var got Config
	openPeriphFn = func(c Config) (Driver, error) { got = c; return NewRecorder(false), nil }
	openGPIODFn = func(c Config) (Driver, error) { return nil, nil }

	if _, err := Open(Config{}); err != nil {
		t.Fatalf("Open(default): %v", err)
	}
	if got.LightHz != 1000 {
		t.Fatalf("default light hz=%d", got.LightHz)
	}
}
