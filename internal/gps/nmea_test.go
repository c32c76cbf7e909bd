package gps

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

const munichRMC = "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"

func TestValidateChecksum_OK(t *testing.T) {
	if err := ValidateChecksum(nmeaLine(munichRMC)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// The reference sentence from the receiver manual.
	if err := ValidateChecksum("$" + munichRMC + "*6A"); err != nil {
		t.Fatalf("reference sentence: %v", err)
	}
}

func TestValidateChecksum_ZeroPadded(t *testing.T) {
	// 'A' ^ 'B' == 0x03
	if err := ValidateChecksum("$AB*03"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := ValidateChecksum("$AB*3"); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("single digit checksum accepted, err=%v", err)
	}
}

func TestValidateChecksum_Missing(t *testing.T) {
	if err := ValidateChecksum("$" + munichRMC); !errors.Is(err, ErrMissingChecksum) {
		t.Fatalf("err=%v want ErrMissingChecksum", err)
	}
}

func TestValidateChecksum_Mismatch(t *testing.T) {
	good := nmeaLine(munichRMC)
	bad := good[:len(good)-2] + "00"
	if err := ValidateChecksum(bad); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err=%v want ErrChecksumMismatch", err)
	}
}

func TestValidateChecksum_LowercaseRejected(t *testing.T) {
	if err := ValidateChecksum("$" + munichRMC + "*6a"); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err=%v want ErrChecksumMismatch", err)
	}
}

func TestValidateChecksum_SingleCharacterCorruption(t *testing.T) {
	good := nmeaLine(munichRMC)
	star := len(good) - 3
	for i := 1; i < star; i++ {
		b := []byte(good)
		b[i] ^= 0x01
		if err := ValidateChecksum(string(b)); err == nil {
			t.Fatalf("corruption at %d (%q) not detected", i, b)
		}
	}
}

func TestToDecimalDegrees(t *testing.T) {
	cases := []struct {
		raw  float64
		hemi byte
		want float64
	}{
		{4807.038, 'N', 48.1173},
		{4807.038, 'S', -48.1173},
		{1131.000, 'E', 11.516667},
		{12228.5, 'W', -122.475},
		{30.0, 'N', 0.5},
	}
	for _, c := range cases {
		got := toDecimalDegrees(c.raw, c.hemi)
		if math.Abs(got-c.want) > 1e-4 {
			t.Fatalf("toDecimalDegrees(%v, %c)=%v want %v", c.raw, c.hemi, got, c.want)
		}
	}
}

func TestFieldHelpers(t *testing.T) {
	if got := minutesOfDay("123519.00"); got != 12*60+35 {
		t.Fatalf("minutesOfDay=%d", got)
	}
	if got := minutesOfDay(""); got != 0 {
		t.Fatalf("minutesOfDay(empty)=%d", got)
	}
	if got := coarseDayIndex("230394"); got != 23+2*30 {
		t.Fatalf("coarseDayIndex=%d", got)
	}
	if got := coarseDayIndex("311299"); got != 31+11*30 {
		t.Fatalf("coarseDayIndex(dec)=%d", got)
	}
	if got := leadingFloat("022.4"); got != 22.4 {
		t.Fatalf("leadingFloat=%v", got)
	}
	if got := leadingFloat("abc"); got != 0 {
		t.Fatalf("leadingFloat(abc)=%v", got)
	}
	if got := leadingFloat("12.5xyz"); got != 12.5 {
		t.Fatalf("leadingFloat(12.5xyz)=%v", got)
	}
	if got := leadingInt("x1"); got != 0 {
		t.Fatalf("leadingInt(x1)=%d", got)
	}
}

func TestIsRMC(t *testing.T) {
	cases := map[string]bool{
		"$GPRMC,1,A*00": true,
		"$GNRMC,1,A*00": true,
		"$GPGGA,1,2*00": false,
		"$GPRMCX,1*00":  false,
		"GPRMC,1,A*00":  false,
		"$GLRMC,1,A*00": false,
		"$GP":           false,
	}
	for line, want := range cases {
		if got := isRMC(line); got != want {
			t.Fatalf("isRMC(%q)=%t want %t", line, got, want)
		}
	}
}
