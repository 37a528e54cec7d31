package cmd

import (
	"testing"
	"time"
)

func TestParseExport(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"FOO=bar", "FOO", "bar", false},
		{"FOO=", "FOO", "", false},
		{"FOO=a=b", "FOO", "a=b", false},
		{"=bar", "", "", true},
		{"FOO", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseExport(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if key != tt.wantKey || value != tt.wantValue {
				t.Errorf("got (%q, %q), want (%q, %q)", key, value, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{0, 0},
		{42, 42},
		{255, 255},
		{-1, 1},
		{300, 1},
	}

	for _, tt := range tests {
		if got := exitStatus(tt.code); got != tt.want {
			t.Errorf("exitStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d      time.Duration
		expect string
	}{
		{200 * time.Millisecond, "200ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m"},
		{2 * time.Hour, "2h"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.expect {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.expect)
			}
		})
	}
}
