package valuehandlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

func offsetMinutes(t time.Time) int {
	_, seconds := t.Zone()
	return seconds / 60
}

func TestTime_StoredOffsetIsRecovered(t *testing.T) {
	h, err := NewTime("")
	require.NoError(t, err)

	stored := domain.StoredTime{
		Instant:  time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC),
		Timezone: "-05:00",
	}

	native, err := h.ToNative(stored)
	require.NoError(t, err)

	ts := native.(time.Time)
	assert.Equal(t, -300, offsetMinutes(ts))
	assert.Equal(t, 12, ts.Hour())
	assert.True(t, ts.Equal(stored.Instant))
}

func TestTime_ToStorageKeepsOffset(t *testing.T) {
	h, err := NewTime("")
	require.NoError(t, err)

	stored, err := h.ToStorage("2024-03-01T12:30:00-05:00")
	require.NoError(t, err)

	st := stored.(domain.StoredTime)
	assert.Equal(t, "-05:00", st.Timezone)
	assert.True(t, st.Instant.Equal(time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, st.Instant.Location())
}

func TestTime_ConfiguredTimezoneConverts(t *testing.T) {
	h, err := NewTime("+02:00")
	require.NoError(t, err)

	stored, err := h.ToStorage("2024-03-01T12:30:00Z")
	require.NoError(t, err)

	st := stored.(domain.StoredTime)
	assert.Equal(t, "+02:00", st.Timezone)
	native, err := h.ToNative(st)
	require.NoError(t, err)
	assert.Equal(t, 14, native.(time.Time).Hour())
}

func TestTime_RoundTrip(t *testing.T) {
	h, err := NewTime("")
	require.NoError(t, err)

	inputs := []any{
		time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("EST", -5*3600)),
		"2024-01-02T03:04:05.5+05:30",
		"2024-01-02",
		"2024-01-02T03:04:05",
		int64(1700000000),
		1700000000.25,
		map[string]any{"year": 2024, "month": 6, "day": 7, "hour": 8, "timezone": "-03:00"},
	}

	for _, in := range inputs {
		native, err := h.ToNative(in)
		require.NoError(t, err)
		wire, err := h.ToWire(native)
		require.NoError(t, err)
		again, err := h.ToNative(wire)
		require.NoError(t, err)

		a, b := native.(time.Time), again.(time.Time)
		assert.True(t, a.Equal(b), "instant changed for %v", in)
		assert.Equal(t, offsetMinutes(a), offsetMinutes(b))
		assert.Equal(t, a.Location().String(), b.Location().String())
	}
}

func TestTime_DateOnlyIsUTC(t *testing.T) {
	h, err := NewTime("")
	require.NoError(t, err)

	native, err := h.ToNative("2024-01-02")
	require.NoError(t, err)

	assert.Equal(t, 0, offsetMinutes(native.(time.Time)))
}

func TestTime_Errors(t *testing.T) {
	_, err := NewTime("EST")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	h, err := NewTime("")
	require.NoError(t, err)

	_, err = h.ToNative("yesterday")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.ToNative(true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.ToNative(map[string]any{"month": 2})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNow_Default(t *testing.T) {
	h, err := NewNow("")
	require.NoError(t, err)
	fixed := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	h.clock = func() time.Time { return fixed }

	assert.Equal(t, fixed, h.Default())
	assert.Equal(t, "now", h.Name())
}
