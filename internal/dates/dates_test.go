package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessFormat(t *testing.T) {
	tests := []struct {
		sample string
		want   string
	}{
		{"2023-02-05 11:00:00", Canonical},
		{"2023-02-05", "2006-01-02"},
		{"01/02/2023 10:00", "02/01/2006 15:04"},
		{"15/02/2023", "02/01/2006"},
		{"2023/02/05", "2006/01/02"},
		{"05.02.2023", "02.01.2006"},
		{"2023-02-05T11:00:00Z", time.RFC3339},
	}
	for _, tt := range tests {
		layout, ok := GuessFormat(tt.sample)
		require.True(t, ok, "sample %q", tt.sample)
		assert.Equal(t, tt.want, layout, "sample %q", tt.sample)
	}
}

func TestGuessFormatRejectsNonDates(t *testing.T) {
	for _, sample := range []string{"acme.com", "hello", "", "a@b.com", "12345"} {
		_, ok := GuessFormat(sample)
		assert.False(t, ok, "sample %q", sample)
	}
}

func TestReparse(t *testing.T) {
	out, err := Reparse("05/02/2023 11:00", "02/01/2006 15:04")
	require.NoError(t, err)
	assert.Equal(t, "2023-02-05 11:00:00", out)
}

func TestReparseFallsBackToCanonical(t *testing.T) {
	// Incoming value is already canonical but the stored document used a
	// slash layout; the fallback keeps it intact.
	out, err := Reparse("2023-02-05 11:00:00", "02/01/2006 15:04")
	require.NoError(t, err)
	assert.Equal(t, "2023-02-05 11:00:00", out)
}

func TestReparseUnparseable(t *testing.T) {
	_, err := Reparse("not a date", "02/01/2006")
	assert.Error(t, err)
}

func TestCanonicalOutputIsStable(t *testing.T) {
	samples := []struct{ value, format string }{
		{"01/02/2023 10:00", "02/01/2006 15:04"},
		{"2023-02-05", "2006-01-02"},
		{"2023-02-05T11:00:00Z", time.RFC3339},
	}
	for _, s := range samples {
		out, err := Reparse(s.value, s.format)
		require.NoError(t, err)

		layout, ok := GuessFormat(out)
		require.True(t, ok)

		parsed, err := time.Parse(layout, out)
		require.NoError(t, err)
		assert.Equal(t, out, parsed.Format(Canonical), "value %q", s.value)
	}
}
