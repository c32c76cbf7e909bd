package replay

import (
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// Summary describes the contents of a log.
type Summary struct {
	Segments    int
	Sentences   int
	Invalid     int
	ActiveFixes int
	MaxDuration time.Duration
	TypeCounts  map[string]int
}

// Summarize parses every sentence and counts them by type. Sentences the
// parser rejects (bad checksum, unsupported type) are counted as invalid.
func Summarize(records []Record) Summary {
	s := Summary{TypeCounts: map[string]int{}}
	origin := time.Duration(0)
	hasLines := false

	for _, r := range records {
		if r.Line == nil {
			s.Segments++
			origin = r.At
			continue
		}
		hasLines = true
		s.Sentences++

		at := r.At - origin
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		sent, err := nmea.Parse(string(r.Line))
		if err != nil {
			s.Invalid++
			continue
		}
		s.TypeCounts[sent.DataType()]++
		if rmc, ok := sent.(nmea.RMC); ok && rmc.Validity == nmea.ValidRMC {
			s.ActiveFixes++
		}
	}
	if s.Segments == 0 && hasLines {
		s.Segments = 1
	}
	return s
}
