package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonealert/internal/events"
)

type fakeTimer struct {
	starts  []time.Duration
	stops   int
	running bool
}

func (f *fakeTimer) Start(p time.Duration) {
	f.starts = append(f.starts, p)
	f.running = true
}

func (f *fakeTimer) Stop() {
	f.stops++
	f.running = false
}

func (f *fakeTimer) period() time.Duration {
	if len(f.starts) == 0 {
		return 0
	}
	return f.starts[len(f.starts)-1]
}

type write struct {
	ch    Channel
	level Level
}

type fakeOutput struct {
	writes []write
	tones  []int
	err    error
}

func (o *fakeOutput) Set(ch Channel, l Level) error {
	o.writes = append(o.writes, write{ch, l})
	return o.err
}

func (o *fakeOutput) SetTone(hz int) error {
	o.tones = append(o.tones, hz)
	return o.err
}

func (o *fakeOutput) reset() {
	o.writes = nil
	o.tones = nil
}

type harness struct {
	r      *Renderer
	out    *fakeOutput
	render *fakeTimer
	ramp   *fakeTimer
	night  bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var timers []*fakeTimer
	orig := newTimerFn
	newTimerFn = func(func()) Timer {
		ft := &fakeTimer{}
		timers = append(timers, ft)
		return ft
	}
	t.Cleanup(func() { newTimerFn = orig })

	h := &harness{out: &fakeOutput{}}
	h.r = NewRenderer(Config{}, h.out, func() bool { return h.night })
	require.Len(t, timers, 2)
	h.render, h.ramp = timers[0], timers[1]
	return h
}

func frameWrites(k Keyframe) []write {
	return []write{{Left, k.Left}, {Right, k.Right}, {Buzzer, k.Buzzer}}
}

var allOff = []write{{Left, 0}, {Right, 0}, {Buzzer, 0}}

func TestRenderer_StartTurnsEverythingOff(t *testing.T) {
	h := newHarness(t)
	h.r.Start()

	assert.Equal(t, allOff, h.out.writes)
	assert.Equal(t, []int{1000}, h.out.tones)
	assert.Equal(t, 50*time.Millisecond, h.render.period())
	assert.True(t, h.render.running)
}

func TestRenderer_WarningSpeedsUpTick(t *testing.T) {
	h := newHarness(t)
	h.r.Start()

	h.r.Trigger(5)
	assert.Equal(t, Warning, h.r.Snapshot().Severity)
	assert.Equal(t, 35*time.Millisecond, h.render.period())

	h.r.Trigger(15)
	assert.Equal(t, 5*time.Millisecond, h.render.period())

	h.r.Trigger(20)
	assert.Equal(t, Danger, h.r.Snapshot().Severity)
	assert.Equal(t, 50*time.Millisecond, h.render.period())

	h.r.Trigger(8)
	h.r.Reset()
	assert.Equal(t, 50*time.Millisecond, h.render.period())
}

func TestRenderer_DefaultClampKeepsEveryWarningPeriod(t *testing.T) {
	h := newHarness(t)
	h.r.Start()

	for m := 1; m <= 15; m++ {
		h.r.Trigger(m)
		want := 50*time.Millisecond - time.Duration(3*m)*time.Millisecond
		assert.Equal(t, want, h.r.Snapshot().Period, "m=%d", m)
		assert.Equal(t, want, h.render.period(), "m=%d", m)
	}
	h.r.Trigger(14)
	assert.Equal(t, 8*time.Millisecond, h.r.Snapshot().Period)
	h.r.Trigger(15)
	assert.Equal(t, 5*time.Millisecond, h.r.Snapshot().Period)
}

func TestRenderer_DangerThenResetZeroesOnce(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.out.reset()

	h.r.Trigger(20)
	h.r.Reset()
	assert.Equal(t, None, h.r.Snapshot().Severity)

	h.r.Tick()
	assert.Equal(t, allOff, h.out.writes)

	h.r.Tick()
	h.r.Tick()
	assert.Equal(t, allOff, h.out.writes, "quiesced renderer must not write again")
}

func TestRenderer_ResetAfterAnimationZeroesOnce(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.Trigger(20)
	h.r.Tick()
	h.r.Tick()
	h.out.reset()

	h.r.Reset()
	h.r.Reset()
	h.r.Tick()
	h.r.Tick()
	assert.Equal(t, allOff, h.out.writes)
	assert.Equal(t, 0, h.r.Snapshot().Cursor)
}

func TestRenderer_RepeatedResetInNoneWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.out.reset()

	for i := 0; i < 3; i++ {
		h.r.Reset()
		h.r.Tick()
	}
	assert.Empty(t, h.out.writes)
}

func TestRenderer_AnimationWraps(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.Trigger(20)
	h.out.reset()

	frames := Animation(Danger)
	for range frames {
		h.r.Tick()
	}
	var want []write
	for _, k := range frames {
		want = append(want, frameWrites(k)...)
	}
	assert.Equal(t, want, h.out.writes)
	assert.Equal(t, len(frames), h.r.Snapshot().Cursor)

	h.out.reset()
	h.r.Tick()
	assert.Equal(t, frameWrites(frames[0]), h.out.writes)
	assert.Equal(t, 1, h.r.Snapshot().Cursor)
}

func TestRenderer_SeverityChangeResetsCursor(t *testing.T) {
	h := newHarness(t)
	h.r.Start()

	h.r.Trigger(20)
	h.r.Tick()
	h.r.Tick()
	require.Equal(t, 2, h.r.Snapshot().Cursor)

	h.r.Trigger(30)
	assert.Equal(t, 2, h.r.Snapshot().Cursor, "same severity keeps its place")

	h.r.Trigger(5)
	assert.Equal(t, 0, h.r.Snapshot().Cursor)
	assert.Equal(t, 5, h.r.Snapshot().Magnitude)

	h.out.reset()
	h.r.Tick()
	assert.Equal(t, frameWrites(Animation(Warning)[0]), h.out.writes)
}

func TestRenderer_NightDimsLightsOnly(t *testing.T) {
	h := newHarness(t)
	h.night = true
	h.r.Start()
	h.r.Trigger(20)
	h.out.reset()

	h.r.Tick()
	k := Animation(Danger)[0]
	require.Equal(t, MaxLevel, k.Left)
	assert.Equal(t, []write{{Left, 51}, {Right, 51}, {Buzzer, k.Buzzer}}, h.out.writes)

	h.night = false
	h.out.reset()
	h.r.Tick()
	assert.Equal(t, frameWrites(Animation(Danger)[1]), h.out.writes)
}

func TestRenderer_ReceptionAcquiredRamp(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.out.reset()

	h.r.SetReception(true)
	assert.Equal(t, []int{88}, h.out.tones)
	assert.Equal(t, []write{{Buzzer, HalfLevel}}, h.out.writes)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, h.ramp.starts)
	assert.Equal(t, 88, h.r.Snapshot().RampHz)

	for i := 0; i < 9; i++ {
		h.r.RampTick()
	}
	assert.Equal(t, []int{88, 176, 264, 352, 440, 528, 616, 704, 792, 880, 1000}, h.out.tones)
	assert.False(t, h.ramp.running)
	assert.Equal(t, 1, h.ramp.stops)
	assert.Equal(t, []write{{Buzzer, HalfLevel}, {Buzzer, 0}}, h.out.writes)

	snap := h.r.Snapshot()
	assert.True(t, snap.Reception)
	assert.False(t, snap.RampActive)

	h.r.RampTick()
	assert.Len(t, h.out.tones, 11, "finished ramp ignores stray ticks")
}

func TestRenderer_ReceptionLostRampAndReset(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.SetReception(true)
	for i := 0; i < 9; i++ {
		h.r.RampTick()
	}
	h.r.Trigger(20)
	h.out.reset()

	h.r.SetReception(false)
	assert.Equal(t, None, h.r.Snapshot().Severity)
	assert.Equal(t, []int{880}, h.out.tones)

	for i := 0; i < 9; i++ {
		h.r.RampTick()
	}
	assert.Equal(t, []int{880, 792, 704, 616, 528, 440, 352, 264, 176, 88, 1000}, h.out.tones)
	assert.False(t, h.ramp.running)
}

func TestRenderer_SameReceptionTwiceIsNoop(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.out.reset()

	h.r.SetReception(true)
	h.r.RampTick()
	h.r.SetReception(true)

	assert.Len(t, h.ramp.starts, 1)
	assert.Equal(t, []write{{Buzzer, HalfLevel}}, h.out.writes)
	assert.Equal(t, 176, h.r.Snapshot().RampHz)
}

func TestRenderer_LossWhileAlreadyLostClearsAlert(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.Trigger(-7)

	h.r.SetReception(false)
	assert.Equal(t, None, h.r.Snapshot().Severity)
	assert.Empty(t, h.ramp.starts)
}

func TestRenderer_OffTickLeavesRampBuzzerAlone(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.SetReception(true)
	for i := 0; i < 9; i++ {
		h.r.RampTick()
	}
	h.r.Trigger(20)
	h.r.Tick()

	h.r.SetReception(false)
	h.out.reset()
	h.r.Tick()
	assert.Equal(t, []write{{Left, 0}, {Right, 0}}, h.out.writes)
}

func TestRenderer_OutputErrorsInSnapshot(t *testing.T) {
	h := newHarness(t)
	h.out.err = errors.New("pin busy")
	h.r.Start()
	assert.Contains(t, h.r.Snapshot().LastError, "pin busy")
}

func TestRenderer_CloseStopsTimersAndTurnsOff(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.r.Trigger(20)
	h.r.Tick()
	h.out.reset()

	h.r.Close()
	assert.False(t, h.render.running)
	assert.False(t, h.ramp.running)
	assert.Equal(t, allOff, h.out.writes)
}

func TestRenderer_AttachToBus(t *testing.T) {
	h := newHarness(t)
	bus := events.NewBus(8)
	h.r.Attach(bus)

	bus.Queue(events.Event{Code: events.AlertTriggered, Param: 3})
	bus.Drain()
	assert.Equal(t, Warning, h.r.Snapshot().Severity)

	bus.Queue(events.Event{Code: events.ReceptionChanged, Param: 1})
	bus.Queue(events.Event{Code: events.AlertReset})
	bus.Drain()
	snap := h.r.Snapshot()
	assert.Equal(t, None, snap.Severity)
	assert.True(t, snap.Reception)
	assert.True(t, snap.RampActive)
}
