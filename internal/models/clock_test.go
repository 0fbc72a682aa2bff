package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	parsed, err := ParseClockTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(9*60+30), parsed)

	parsed, err = ParseClockTime("14:00:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(14*60), parsed)

	for _, raw := range []string{"24:00", "09:60", "9am", ""} {
		_, err := ParseClockTime(raw)
		assert.Error(t, err, raw)
	}
}

func TestClockTimeJSON(t *testing.T) {
	payload, err := json.Marshal(ClockTime(9*60 + 5))
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(payload))

	var parsed ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"17:45"`), &parsed))
	assert.Equal(t, ClockTime(17*60+45), parsed)

	assert.Error(t, json.Unmarshal([]byte(`"late"`), &parsed))
}

func TestClockTimeScan(t *testing.T) {
	var ct ClockTime
	require.NoError(t, ct.Scan("10:30:00"))
	assert.Equal(t, ClockTime(10*60+30), ct)

	require.NoError(t, ct.Scan([]byte("08:15:00")))
	assert.Equal(t, ClockTime(8*60+15), ct)

	require.NoError(t, ct.Scan(time.Date(2026, 9, 7, 11, 20, 0, 0, time.UTC)))
	assert.Equal(t, ClockTime(11*60+20), ct)

	assert.Error(t, ct.Scan(42))
}

func TestClockTimeAt(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	instant := ClockTime(9*60 + 30).At(day)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC), instant)
}

func TestDateOnlyParseAndWeekday(t *testing.T) {
	d, err := ParseDateOnly("2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2026-09-07", d.String())

	_, err = ParseDateOnly("07/09/2026")
	assert.Error(t, err)
}

func TestDateOnlyArithmetic(t *testing.T) {
	d, _ := ParseDateOnly("2026-09-07")
	assert.Equal(t, "2026-09-14", d.AddDays(7).String())

	to, _ := ParseDateOnly("2026-09-21")
	assert.Equal(t, 14, d.DaysUntil(to))
}
