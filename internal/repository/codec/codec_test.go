package codec

import (
	"testing"
	"time"
)

func TestStrings(t *testing.T) {
	if got := EncodeStrings(nil); got != "[]" {
		t.Errorf("EncodeStrings(nil) = %q", got)
	}
	s, err := DecodeStrings(`["u1","u2"]`)
	if err != nil || len(s) != 2 || s[1] != "u2" {
		t.Errorf("DecodeStrings = %v, %v", s, err)
	}
	s, err = DecodeStrings("")
	if err != nil || s == nil || len(s) != 0 {
		t.Errorf("DecodeStrings(\"\") = %v, %v", s, err)
	}
	if _, err := DecodeStrings("not json"); err == nil {
		t.Error("expected error for malformed list")
	}
}

func TestDecodeVector(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		dim     int
		wantLen int
		wantErr bool
	}{
		{"ok", "[0.5,1,-2]", 3, 3, false},
		{"absent", "", 3, 0, false},
		{"empty array", "[]", 3, 0, false},
		{"wrong dim", "[1,2]", 3, 0, true},
		{"any dim", "[1,2]", 0, 2, false},
		{"garbage", "[1,", 3, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := DecodeVector(tc.raw, tc.dim)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if len(v) != tc.wantLen {
				t.Errorf("len = %d, want %d", len(v), tc.wantLen)
			}
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	out, err := DecodeVector(EncodeVector(in), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("component %d: %v != %v", i, in[i], out[i])
		}
	}
}

func TestFloat(t *testing.T) {
	if got := EncodeFloat(3.4); got != "3.4" {
		t.Errorf("EncodeFloat = %q", got)
	}
	f, err := DecodeFloat("3.4")
	if err != nil || f == nil || *f != 3.4 {
		t.Errorf("DecodeFloat = %v, %v", f, err)
	}
	f, err = DecodeFloat("")
	if err != nil || f != nil {
		t.Errorf("DecodeFloat(\"\") = %v, %v", f, err)
	}
	if _, err := DecodeFloat("NaN"); err == nil {
		t.Error("expected error for NaN")
	}
}

func TestTime(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 15, 999, time.FixedZone("X", 3600))
	enc := EncodeTime(ts)
	if enc != "2025-03-01T11:30:15Z" {
		t.Errorf("EncodeTime = %q", enc)
	}
	dec, err := DecodeTime(enc)
	if err != nil || !dec.Equal(ts.Truncate(time.Second)) {
		t.Errorf("DecodeTime = %v, %v", dec, err)
	}
	if EncodeTime(time.Time{}) != "" {
		t.Error("zero time must encode empty")
	}
}
