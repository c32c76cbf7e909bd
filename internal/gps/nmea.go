package gps

import (
	"errors"
	"math"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

var (
	ErrMissingChecksum  = errors.New("nmea: missing checksum")
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")
)

// ValidateChecksum checks the XOR of every byte between the leading '$'
// and the last '*' against the two characters following the '*'. The
// comparison is against uppercase, zero-padded hex.
func ValidateChecksum(line string) error {
	star := strings.LastIndexByte(line, '*')
	if star < 0 {
		return ErrMissingChecksum
	}
	payload := ""
	if star > 1 {
		payload = line[1:star]
	}
	got := line[star+1:]
	if len(got) > 2 {
		got = got[:2]
	}
	if got != nmea.Checksum(payload) {
		return ErrChecksumMismatch
	}
	return nil
}

var rmcTalkers = []string{"GP", "GN"}

// isRMC reports whether line is an RMC sentence from a supported talker.
func isRMC(line string) bool {
	if len(line) < 7 || line[0] != '$' || line[6] != ',' {
		return false
	}
	if line[3:6] != nmea.TypeRMC {
		return false
	}
	talker := line[1:3]
	for _, t := range rmcTalkers {
		if talker == t {
			return true
		}
	}
	return false
}

// rmcFields returns the comma-split fields after the sentence type and
// before the checksum delimiter.
//
//	0: time (hhmmss.sss)
//	1: status (A=active, V=void)
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: speed over ground (knots)
//	7: course over ground (deg)
//	8: date (ddmmyy)
func rmcFields(line string) []string {
	end := strings.LastIndexByte(line, '*')
	if end < 7 {
		end = len(line)
	}
	f := strings.Split(line[7:end], ",")
	for len(f) < 9 {
		f = append(f, "")
	}
	return f
}

// toDecimalDegrees converts ddmm.mmmm / dddmm.mmmm to signed degrees.
func toDecimalDegrees(raw float64, hemi byte) float64 {
	deg := math.Floor(raw / 100)
	dec := deg + (raw-deg*100)/60
	if hemi == 'S' || hemi == 'W' {
		dec = -dec
	}
	return dec
}

// minutesOfDay decodes hhmm from an hhmmss field.
func minutesOfDay(f string) int {
	return leadingInt(substr(f, 0, 2))*60 + leadingInt(substr(f, 2, 4))
}

// coarseDayIndex maps ddmmyy to day + (month-1)*30. It is the index into
// the sunrise table, not a calendar ordinal.
func coarseDayIndex(f string) int {
	return leadingInt(substr(f, 0, 2)) + (leadingInt(substr(f, 2, 4))-1)*30
}

func substr(s string, i, j int) string {
	if i > len(s) {
		return ""
	}
	if j > len(s) {
		j = len(s)
	}
	return s[i:j]
}

// leadingInt parses an optional sign and leading digits, ignoring the
// rest. Text without leading digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " ")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// leadingFloat parses the longest numeric prefix of s. Text without a
// numeric prefix yields 0.
func leadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " ")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
