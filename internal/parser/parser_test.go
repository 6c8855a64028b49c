package parser

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestParser() *Parser {
	p := NewParser(slog.Default())
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1714564800000", 1714564800000, false},
		{"1714564800000.0", 1714564800000, false},
		{"-5", -5, false},
		{"1.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSample(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name     string
		args     []string
		lat, lon float64
		acc      float64
		ts       time.Time
		provider string
	}{
		{"minimal", []string{"52.52", "13.405", "5"}, 52.52, 13.405, 5, fixedNow, DefaultProvider},
		{"quoted", []string{`"52.52"`, `"13.405"`, `"5.5"`}, 52.52, 13.405, 5.5, fixedNow, DefaultProvider},
		{"unix millis", []string{"1", "2", "3", "1714564830000"}, 1, 2, 3, fixedNow.Add(30 * time.Second), DefaultProvider},
		{"rfc3339", []string{"1", "2", "3", "2024-05-01T12:01:00Z"}, 1, 2, 3, fixedNow.Add(time.Minute), DefaultProvider},
		{"empty timestamp", []string{"1", "2", "3", ""}, 1, 2, 3, fixedNow, DefaultProvider},
		{"provider", []string{"1", "2", "3", "1714564800000", "gps"}, 1, 2, 3, fixedNow, "gps"},
		{"blank provider", []string{"1", "2", "3", "1714564800000", " "}, 1, 2, 3, fixedNow, DefaultProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := p.ParseSample(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.lat, s.Latitude)
			assert.Equal(t, tt.lon, s.Longitude)
			assert.Equal(t, tt.acc, s.Accuracy)
			assert.True(t, tt.ts.Equal(s.Timestamp), "timestamp %v", s.Timestamp)
			assert.Equal(t, tt.provider, s.Provider)
		})
	}
}

func TestParseSample_Errors(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"too few", []string{"1", "2"}},
		{"too many", []string{"1", "2", "3", "4", "5", "6"}},
		{"bad latitude", []string{"north", "2", "3"}},
		{"bad longitude", []string{"1", "", "3"}},
		{"bad accuracy", []string{"1", "2", "x"}},
		{"bad timestamp", []string{"1", "2", "3", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseSample(tt.args)
			assert.ErrorIs(t, err, ErrBadArguments)
		})
	}
}

func TestParseSample_NaNPassesThrough(t *testing.T) {
	s, err := newTestParser().ParseSample([]string{"NaN", "1", "1"})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Latitude))
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single", []string{"Cafe"}, "Cafe"},
		{"joined", []string{"Corner", "Cafe"}, "Corner Cafe"},
		{"quoted", []string{`"Corner Cafe"`}, "Corner Cafe"},
		{"escaped", []string{`"Joe""s"`}, `Joe"s`},
		{"empty", nil, ""},
		{"blank", []string{" ", " "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabel(tt.args))
		})
	}
}
