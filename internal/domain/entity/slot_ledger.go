package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrSlotTaken = errors.New("slot not available")

var (
	slotDatePattern = regexp.MustCompile(`^(\d{1,2})_(\d{1,2})_(\d{4})$`)
	slotTimePattern = regexp.MustCompile(`^(\d{1,2}):([0-5]\d) (AM|PM)$`)
)

// SlotLedger maps a date key (day_month_year, no zero padding) to the times
// already booked on that date. Keys and times are compared as exact strings.
type SlotLedger map[string][]string

// IsAvailable reports whether clock is free on date.
func (l SlotLedger) IsAvailable(date, clock string) bool {
	for _, t := range l[date] {
		if t == clock {
			return false
		}
	}
	return true
}

// Reserve books clock on date, failing with ErrSlotTaken if it is already held.
func (l SlotLedger) Reserve(date, clock string) error {
	if !l.IsAvailable(date, clock) {
		return ErrSlotTaken
	}
	l[date] = append(l[date], clock)
	return nil
}

// Release frees clock on date. Releasing a slot that is not held is a no-op.
func (l SlotLedger) Release(date, clock string) {
	times, ok := l[date]
	if !ok {
		return
	}
	kept := times[:0]
	for _, t := range times {
		if t != clock {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l, date)
		return
	}
	l[date] = kept
}

// Clone returns a deep copy.
func (l SlotLedger) Clone() SlotLedger {
	out := make(SlotLedger, len(l))
	for d, times := range l {
		out[d] = append([]string(nil), times...)
	}
	return out
}

// ValidSlotDate reports whether s looks like day_month_year and names a real calendar day.
func ValidSlotDate(s string) bool {
	_, err := parseSlotDate(s)
	return err == nil
}

// ValidSlotTime reports whether s looks like H:MM AM/PM.
func ValidSlotTime(s string) bool {
	_, _, err := parseSlotTime(s)
	return err == nil
}

// SlotDateTime resolves a ledger (date, time) pair to an instant in loc.
func SlotDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := parseSlotDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := parseSlotTime(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}

// SlotDateKey formats t as a ledger date key.
func SlotDateKey(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

func parseSlotDate(s string) (time.Time, error) {
	m := slotDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid slot date %q", s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, so 31_2_2025 would silently become March.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid slot date %q", s)
	}
	return t, nil
}

func parseSlotTime(s string) (hour, minute int, err error) {
	m := slotTimePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid slot time %q", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("invalid slot time %q", s)
	}
	switch {
	case m[3] == "PM" && hour != 12:
		hour += 12
	case m[3] == "AM" && hour == 12:
		hour = 0
	}
	return hour, minute, nil
}
