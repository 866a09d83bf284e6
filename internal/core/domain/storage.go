package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StoredTime is the store-native representation of a timestamp: the instant
// in UTC plus the offset it was written with, as "Z" or "+HH:MM".
type StoredTime struct {
	Instant  time.Time
	Timezone string
}

// OffsetMinutes parses the timezone into minutes east of UTC.
func (t StoredTime) OffsetMinutes() (int, error) {
	return ParseOffset(t.Timezone)
}

// In returns the instant in the stored offset.
func (t StoredTime) In() (time.Time, error) {
	minutes, err := t.OffsetMinutes()
	if err != nil {
		return time.Time{}, err
	}
	return t.Instant.In(FixedZone(minutes)), nil
}

// ParseOffset converts "Z", "+HH:MM", "-HH:MM" or "+HHMM" into minutes east of UTC.
func ParseOffset(tz string) (int, error) {
	if tz == "" || tz == "Z" || tz == "z" {
		return 0, nil
	}
	sign := 1
	switch tz[0] {
	case '-':
		sign = -1
	case '+':
	default:
		return 0, fmt.Errorf("%w: timezone %q", ErrInvalidInput, tz)
	}
	body := strings.ReplaceAll(tz[1:], ":", "")
	if len(body) != 4 && len(body) != 2 {
		return 0, fmt.Errorf("%w: timezone %q", ErrInvalidInput, tz)
	}
	hours, err := strconv.Atoi(body[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: timezone %q", ErrInvalidInput, tz)
	}
	minutes := 0
	if len(body) == 4 {
		if minutes, err = strconv.Atoi(body[2:]); err != nil {
			return 0, fmt.Errorf("%w: timezone %q", ErrInvalidInput, tz)
		}
	}
	return sign * (hours*60 + minutes), nil
}

// FormatOffset renders minutes east of UTC as "Z" or "+HH:MM".
func FormatOffset(minutes int) string {
	if minutes == 0 {
		return "Z"
	}
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}

// FixedZone returns a location with the given offset, named after it.
func FixedZone(minutes int) *time.Location {
	if minutes == 0 {
		return time.UTC
	}
	return time.FixedZone(FormatOffset(minutes), minutes*60)
}

// StoredGeometry is the store-native representation of a geometry value:
// its GeoJSON type and the well-known-binary encoding of its coordinates.
type StoredGeometry struct {
	Type string
	WKB  []byte
}
