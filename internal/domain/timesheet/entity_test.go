package timesheet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "09:00"},
		{in: "23:59", want: "23:59"},
		{in: "07:45:30", want: "07:45"},
		{in: " 08:15 ", want: "08:15"},
		{in: "24:00", wantErr: true},
		{in: "9am", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestClockTime_JSON(t *testing.T) {
	var payload struct {
		Start ClockTime  `json:"start"`
		End   *ClockTime `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"22:30","end":"06:00:00"}`), &payload))
	assert.Equal(t, NewClockTime(22, 30, 0), payload.Start)
	require.NotNil(t, payload.End)
	assert.Equal(t, 6*time.Hour, payload.End.Duration())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"22:30","end":"06:00"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"late"}`), &payload))
}

func TestEntryType(t *testing.T) {
	typ, ok := ParseEntryType("annual_leave_halfday")
	require.True(t, ok)
	assert.True(t, typ.IsHalfDay())
	assert.Equal(t, "Annual Leave Halfday", typ.Label())

	assert.Equal(t, "Working Hours", EntryTypeWorkingHours.Label())
	assert.True(t, EntryTypeWorkingHours.IsWorkingHours())
	assert.False(t, EntryTypeMedicalLeave.IsHalfDay())

	_, ok = ParseEntryType("sick_day")
	assert.False(t, ok)
	assert.Len(t, EntryTypes, 16)
}

func TestPeriodKey(t *testing.T) {
	key := PeriodOf("user-1", time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, PeriodKey{UserID: "user-1", Year: 2025, Month: 12}, key)
	assert.Equal(t, "timesheet:period:user-1:2025-12", key.LockKey())

	start, end := key.Bounds()
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	assert.True(t, key.Contains(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, key.Contains(end))
}

func TestStatusParsing(t *testing.T) {
	for _, s := range []string{"draft", "submitted", "approved", "rejected"} {
		got, ok := ParseStatus(s)
		assert.True(t, ok)
		assert.Equal(t, Status(s), got)
	}
	_, ok := ParseStatus("pending")
	assert.False(t, ok)

	_, ok = ParseHalfDayPeriod("am")
	assert.False(t, ok)
	p, ok := ParseHalfDayPeriod("AM")
	assert.True(t, ok)
	assert.Equal(t, HalfDayAM, p)
}
