// Package schedule provides pure wall-clock threshold arithmetic for the
// automation sweeps. Callers inject "now"; nothing here reads the system
// clock, so every comparison is reproducible in tests.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used by appointment rows.
const DateLayout = "2006-01-02"

// MinutesSinceMidnight converts an "HH:MM" clock string to minutes past
// midnight.
func MinutesSinceMidnight(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("schedule: malformed time %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("schedule: malformed time %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("schedule: malformed time %q", clock)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("schedule: time %q out of range", clock)
	}
	return hours*60 + minutes, nil
}

// IsPastThreshold reports whether now has reached the scheduled minute
// plus the window and buffer.
func IsPastThreshold(scheduledMinutes, windowMinutes, bufferMinutes, nowMinutes int) bool {
	return nowMinutes >= scheduledMinutes+windowMinutes+bufferMinutes
}

// IsSlotStillBookable reports whether a vacated slot can return to the
// bookable pool: any future date qualifies; today qualifies only while
// slotTime minus the buffer is still strictly ahead of now; past dates
// never qualify. Malformed inputs are treated as not bookable.
func IsSlotStillBookable(slotDate, slotTime string, bufferMinutes int, now time.Time) bool {
	if _, err := time.ParseInLocation(DateLayout, slotDate, now.Location()); err != nil {
		return false
	}

	today := now.Format(DateLayout)
	switch {
	case slotDate > today:
		return true
	case slotDate < today:
		return false
	}

	slotMinutes, err := MinutesSinceMidnight(slotTime)
	if err != nil {
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	return slotMinutes-bufferMinutes > nowMinutes
}
