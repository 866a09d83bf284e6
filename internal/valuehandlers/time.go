package valuehandlers

import (
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// layouts are tried in order when parsing wire strings. Layouts without an
// offset are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Time serves timestamp properties.
//
// Native values are time.Time in a fixed-offset location, wire values are
// RFC 3339 strings and storage values are domain.StoredTime, which keeps the
// offset the value was written with. Epoch seconds and
// {year, month, day, hour, minute, second, timezone} objects are accepted
// as input too.
type Time struct {
	timezone string
	offset   int
}

var _ Handler = (*Time)(nil)

// NewTime creates a timestamp handler. An empty timezone keeps each value's
// own offset; otherwise values are converted to the given offset ("Z",
// "+02:00") before storage.
func NewTime(timezone string) (*Time, error) {
	offset, err := domain.ParseOffset(timezone)
	if err != nil {
		return nil, domain.NewConfigurationError("datetime handler", "invalid timezone %q", timezone)
	}
	return &Time{timezone: timezone, offset: offset}, nil
}

// Name returns "datetime".
func (h *Time) Name() string { return "datetime" }

// Timezone returns the configured storage timezone, empty when values keep
// their own offset.
func (h *Time) Timezone() string { return h.timezone }

// ToStorage converts the value to a domain.StoredTime.
func (h *Time) ToStorage(v any) (any, error) {
	t, err := toTime(v)
	if err != nil {
		return nil, err
	}
	if h.timezone != "" {
		t = t.In(domain.FixedZone(h.offset))
	}
	_, seconds := t.Zone()
	return domain.StoredTime{
		Instant:  t.UTC(),
		Timezone: domain.FormatOffset(seconds / 60),
	}, nil
}

// ToWire renders the value as an RFC 3339 string in its own offset.
func (h *Time) ToWire(v any) (any, error) {
	t, err := toTime(v)
	if err != nil {
		return nil, err
	}
	return t.Format(time.RFC3339Nano), nil
}

// ToNative returns a time.Time carrying the value's offset.
func (h *Time) ToNative(v any) (any, error) {
	return toTime(v)
}

// Now is a Time handler that supplies the current UTC time for absent values.
type Now struct {
	*Time
	clock func() time.Time
}

var (
	_ Handler   = (*Now)(nil)
	_ Defaulter = (*Now)(nil)
)

// NewNow creates a Now handler. The timezone applies as for NewTime.
func NewNow(timezone string) (*Now, error) {
	t, err := NewTime(timezone)
	if err != nil {
		return nil, err
	}
	return &Now{Time: t, clock: time.Now}, nil
}

// Name returns "now".
func (h *Now) Name() string { return "now" }

// Default returns the current time in UTC.
func (h *Now) Default() any {
	return h.clock().UTC().Round(0)
}

// toTime accepts every supported input form and returns the instant in a
// fixed-offset location named after its offset.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return normalizeZone(t), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, domain.NewValidationError("", "nil time")
		}
		return normalizeZone(*t), nil
	case domain.StoredTime:
		out, err := t.In()
		if err != nil {
			return time.Time{}, &domain.ValidationError{Reason: "invalid stored timezone", Err: err}
		}
		return out, nil
	case string:
		return parseTime(t)
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case map[string]any:
		return timeFromFields(t)
	default:
		return time.Time{}, domain.NewValidationError("", "cannot convert %T to a time", v)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeZone(t), nil
		}
	}
	return time.Time{}, domain.NewValidationError("", "%q is not an ISO-8601 timestamp", s)
}

// timeFromFields builds a time from an object of calendar fields.
func timeFromFields(m map[string]any) (time.Time, error) {
	field := func(name string, def int) (int, error) {
		raw, ok := m[name]
		if !ok || raw == nil {
			return def, nil
		}
		switch n := raw.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		default:
			return 0, domain.NewValidationError(name, "must be a number, got %T", raw)
		}
	}

	var parts [7]int
	names := []string{"year", "month", "day", "hour", "minute", "second", "microsecond"}
	defaults := []int{0, 1, 1, 0, 0, 0, 0}
	for i, name := range names {
		n, err := field(name, defaults[i])
		if err != nil {
			return time.Time{}, err
		}
		parts[i] = n
	}
	if _, ok := m["year"]; !ok {
		return time.Time{}, domain.NewValidationError("year", "is required")
	}

	tz, _ := m["timezone"].(string)
	offset, err := domain.ParseOffset(tz)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Path: "timezone", Reason: fmt.Sprintf("invalid timezone %q", tz), Err: err}
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5],
		parts[6]*1000, domain.FixedZone(offset)), nil
}

// normalizeZone moves t into a fixed zone with the same offset so that
// equal offsets compare and format identically.
func normalizeZone(t time.Time) time.Time {
	_, seconds := t.Zone()
	return t.In(domain.FixedZone(seconds / 60))
}
