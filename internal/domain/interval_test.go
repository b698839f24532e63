package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhollstein/timeledger/internal/domain"
)

var t0 = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func closed(start time.Time, d time.Duration) domain.Interval {
	end := start.Add(d)
	return domain.Interval{Start: start, End: &end}
}

func open(start time.Time) domain.Interval {
	return domain.Interval{Start: start}
}

// ---- Overlaps ----------------------------------------------------------------

func TestInterval_Overlaps_ClosedClosed(t *testing.T) {
	a := closed(t0, time.Hour)

	assert.True(t, a.Overlaps(closed(t0.Add(30*time.Minute), time.Hour)), "partial intersection")
	assert.True(t, a.Overlaps(closed(t0.Add(-30*time.Minute), time.Hour)), "intersects from the left")
	assert.True(t, a.Overlaps(closed(t0.Add(10*time.Minute), 10*time.Minute)), "fully contained")
	assert.True(t, a.Overlaps(closed(t0.Add(-time.Hour), 3*time.Hour)), "fully containing")
}

func TestInterval_Overlaps_BackToBackDoesNot(t *testing.T) {
	a := closed(t0, time.Hour)

	// Half-open ranges: [t0, t0+60m) and [t0+60m, t0+90m) share only the
	// boundary instant and must not count as overlapping.
	assert.False(t, a.Overlaps(closed(t0.Add(time.Hour), 30*time.Minute)))
	assert.False(t, closed(t0.Add(time.Hour), 30*time.Minute).Overlaps(a))
}

func TestInterval_Overlaps_Disjoint(t *testing.T) {
	a := closed(t0, time.Hour)

	assert.False(t, a.Overlaps(closed(t0.Add(2*time.Hour), time.Hour)))
	assert.False(t, a.Overlaps(closed(t0.Add(-2*time.Hour), time.Hour)))
}

func TestInterval_Overlaps_OpenEnd(t *testing.T) {
	running := open(t0)

	// An open interval extends to +infinity: everything after its start overlaps.
	assert.True(t, running.Overlaps(closed(t0.Add(24*time.Hour), time.Hour)))
	assert.True(t, closed(t0.Add(24*time.Hour), time.Hour).Overlaps(running))

	// But a closed interval that ends at or before the open start does not.
	assert.False(t, running.Overlaps(closed(t0.Add(-time.Hour), time.Hour)))

	// Two open intervals always overlap.
	assert.True(t, running.Overlaps(open(t0.Add(100*time.Hour))))
}

// ---- Validate ----------------------------------------------------------------

func TestInterval_Validate_OK(t *testing.T) {
	require.NoError(t, closed(t0, time.Minute).Validate())
	require.NoError(t, open(t0).Validate())
}

func TestInterval_Validate_EndNotAfterStart(t *testing.T) {
	end := t0
	err := domain.Interval{Start: t0, End: &end}.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	before := t0.Add(-time.Minute)
	err = domain.Interval{Start: t0, End: &before}.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestInterval_Validate_ZeroStart(t *testing.T) {
	err := domain.Interval{}.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

// ---- DurationMinutes ---------------------------------------------------------

func TestInterval_DurationMinutes(t *testing.T) {
	d := closed(t0, 65*time.Minute).DurationMinutes()
	require.NotNil(t, d)
	assert.Equal(t, 65, *d)

	// Partial minutes round down.
	d = closed(t0, 59*time.Second).DurationMinutes()
	require.NotNil(t, d)
	assert.Equal(t, 0, *d)

	d = closed(t0, 90*time.Second).DurationMinutes()
	require.NotNil(t, d)
	assert.Equal(t, 1, *d)

	assert.Nil(t, open(t0).DurationMinutes())
}

// ---- TimeEntry.Recompute -----------------------------------------------------

func TestTimeEntry_Recompute(t *testing.T) {
	e := domain.TimeEntry{StartTime: t0}
	e.Recompute()
	assert.True(t, e.IsRunning)
	assert.Nil(t, e.DurationMinutes)

	end := t0.Add(2 * time.Hour)
	e.EndTime = &end
	e.Recompute()
	assert.False(t, e.IsRunning)
	require.NotNil(t, e.DurationMinutes)
	assert.Equal(t, 120, *e.DurationMinutes)
}
