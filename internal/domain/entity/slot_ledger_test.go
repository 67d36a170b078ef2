package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotLedger_ReserveThenRelease(t *testing.T) {
	l := SlotLedger{}
	assert.True(t, l.IsAvailable("15_6_2025", "10:00 AM"))

	require.NoError(t, l.Reserve("15_6_2025", "10:00 AM"))
	assert.False(t, l.IsAvailable("15_6_2025", "10:00 AM"))
	assert.True(t, l.IsAvailable("15_6_2025", "10:30 AM"))
	assert.True(t, l.IsAvailable("16_6_2025", "10:00 AM"))

	err := l.Reserve("15_6_2025", "10:00 AM")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Len(t, l["15_6_2025"], 1)

	l.Release("15_6_2025", "10:00 AM")
	assert.True(t, l.IsAvailable("15_6_2025", "10:00 AM"))
	_, ok := l["15_6_2025"]
	assert.False(t, ok, "empty date keys are dropped")
}

func TestSlotLedger_ReleaseIsIdempotent(t *testing.T) {
	l := SlotLedger{"15_6_2025": {"10:00 AM", "11:00 AM"}}

	l.Release("15_6_2025", "10:00 AM")
	l.Release("15_6_2025", "10:00 AM")
	l.Release("1_1_2030", "9:00 AM")

	assert.Equal(t, []string{"11:00 AM"}, l["15_6_2025"])
}

func TestSlotLedger_ExactStringComparison(t *testing.T) {
	l := SlotLedger{}
	require.NoError(t, l.Reserve("5_6_2025", "9:00 AM"))

	// zero-padded variants are different keys
	assert.True(t, l.IsAvailable("05_06_2025", "9:00 AM"))
	assert.True(t, l.IsAvailable("5_6_2025", "09:00 AM"))
}

func TestSlotLedger_CloneIsDeep(t *testing.T) {
	l := SlotLedger{"15_6_2025": {"10:00 AM"}}
	c := l.Clone()
	require.NoError(t, c.Reserve("15_6_2025", "11:00 AM"))
	assert.Len(t, l["15_6_2025"], 1)
}

func TestSlotValidation(t *testing.T) {
	tests := []struct {
		date, clock string
		dateOK      bool
		clockOK     bool
	}{
		{"15_6_2025", "10:00 AM", true, true},
		{"1_12_2025", "12:30 PM", true, true},
		{"31_2_2025", "9:00 AM", false, true},
		{"2025-06-15", "10:00", false, false},
		{"15_13_2025", "13:00 PM", false, false},
		{"15_6_2025", "0:15 AM", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			assert.Equal(t, tt.dateOK, ValidSlotDate(tt.date))
			assert.Equal(t, tt.clockOK, ValidSlotTime(tt.clock))
		})
	}
}

func TestSlotDateTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	got, err := SlotDateTime("15_6_2025", "12:00 AM", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), got)

	got, err = SlotDateTime("15_6_2025", "12:45 PM", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 45, 0, 0, loc), got)

	got, err = SlotDateTime("15_6_2025", "7:05 PM", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 19, 5, 0, 0, time.UTC), got)

	_, err = SlotDateTime("bad", "7:05 PM", nil)
	assert.Error(t, err)
}

func TestSlotDateKey(t *testing.T) {
	assert.Equal(t, "5_6_2025", SlotDateKey(time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)))
}

func TestAppointmentTerminal(t *testing.T) {
	a := &Appointment{}
	assert.False(t, a.Terminal())
	a.Cancelled = true
	assert.True(t, a.Terminal())
	a = &Appointment{IsCompleted: true, Payment: true}
	assert.True(t, a.Terminal())
}

func TestSnapshotsDropCredentials(t *testing.T) {
	u := &User{ID: "u1", Name: "Pat", Email: "p@x.io", Password: "hash", ResetPasswordToken: "tok"}
	s := u.Snapshot()
	assert.Equal(t, "Pat", s.Name)
	assert.Equal(t, "p@x.io", s.Email)

	d := &Doctor{ID: "d1", Name: "Dr. A", Password: "hash", Fees: 500, SlotsBooked: SlotLedger{"1_1_2030": {"9:00 AM"}}}
	ds := d.Snapshot()
	assert.Equal(t, int64(500), ds.Fees)
	assert.Equal(t, "Dr. A", ds.Name)
}

func TestResetTokenValid(t *testing.T) {
	now := time.Now()
	u := &User{ResetPasswordToken: "abc", ResetPasswordExpires: now.Add(time.Hour)}
	assert.True(t, u.ResetTokenValid("abc", now))
	assert.False(t, u.ResetTokenValid("abd", now))
	assert.False(t, u.ResetTokenValid("abc", now.Add(2*time.Hour)))
	assert.False(t, (&User{}).ResetTokenValid("", now))
}
