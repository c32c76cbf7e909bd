package alert

// Level is an output intensity. 0 is off, MaxLevel is fully on.
type Level uint16

const (
	MaxLevel  Level = 1023
	HalfLevel Level = 512
)

// Keyframe is one render tick worth of output.
type Keyframe struct {
	Left   Level `json:"left"`
	Right  Level `json:"right"`
	Buzzer Level `json:"buzzer"`
}

const (
	dim  Level = 256
	mid  Level = 640
	full       = MaxLevel
	beep       = HalfLevel
)

var (
	off       = Keyframe{}
	both      = func(l Level) Keyframe { return Keyframe{Left: l, Right: l} }
	bothBeep  = func(l Level) Keyframe { return Keyframe{Left: l, Right: l, Buzzer: beep} }
	leftBeep  = Keyframe{Left: full, Buzzer: beep}
	rightBeep = Keyframe{Right: full, Buzzer: beep}
	leftOnly  = Keyframe{Left: full}
	rightOnly = Keyframe{Right: full}
)

// animations holds one looping keyframe sequence per active severity.
// At the default 50ms tick the info patterns repeat every 1.2s.
var animations = map[Severity][]Keyframe{
	// One soft blink.
	Info1: {
		both(dim), both(dim), off, off, off, off,
		off, off, off, off, off, off,
		off, off, off, off, off, off,
		off, off, off, off, off, off,
	},
	// Two blinks.
	Info2: {
		both(mid), both(mid), off, off, both(mid), both(mid),
		off, off, off, off, off, off,
		off, off, off, off, off, off,
		off, off, off, off, off, off,
	},
	// Three bright blinks.
	Info3: {
		both(full), both(full), off, off, both(full), both(full),
		off, off, both(full), both(full), off, off,
		off, off, off, off, off, off,
		off, off, off, off, off, off,
	},
	// Left/right alternation with a chirp on every swap.
	Warning: {
		leftBeep, leftOnly, leftOnly, off,
		rightBeep, rightOnly, rightOnly, off,
	},
	// Both lights strobing over a continuous beep.
	Danger: {
		bothBeep(full), bothBeep(full), bothBeep(0), bothBeep(0),
	},
}

// Animation returns a copy of the keyframe sequence for s. None has no
// animation.
func Animation(s Severity) []Keyframe {
	return append([]Keyframe(nil), animations[s]...)
}
