package driver_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(t *testing.T) *driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(kernel.NewUUID(), "Ada", "+15550111")
	require.NoError(t, err)
	return d
}

func TestNewDriver(t *testing.T) {
	t.Run("active with no load", func(t *testing.T) {
		d := newDriver(t)

		assert.True(t, d.IsActive())
		assert.Equal(t, 0, d.Load())
		assert.Nil(t, d.LastGpsPing())
		require.NoError(t, d.Validate())
	})

	t.Run("joins validation errors", func(t *testing.T) {
		_, err := driver.NewDriver(kernel.NewUUID(), "", "")

		require.ErrorIs(t, err, driver.ErrNameIsRequired)
		require.ErrorIs(t, err, driver.ErrContactIsRequired)
	})
}

func TestDriver_TakeTask(t *testing.T) {
	t.Run("respects load cap", func(t *testing.T) {
		d := newDriver(t)

		require.NoError(t, d.TakeTask(2))
		require.NoError(t, d.TakeTask(2))
		err := d.TakeTask(2)

		require.ErrorIs(t, err, driver.ErrLoadCapReached)
		require.ErrorIs(t, err, errs.ErrNoDriverAvailable)
		assert.Equal(t, 2, d.Load())
		assert.False(t, d.CanTakeTask(2))
	})

	t.Run("inactive driver takes nothing", func(t *testing.T) {
		d := newDriver(t)
		d.Deactivate()

		require.ErrorIs(t, d.TakeTask(3), driver.ErrDriverInactive)
		require.ErrorIs(t, d.ForceTakeTask(), driver.ErrDriverInactive)
		assert.False(t, d.CanTakeTask(3))
	})

	t.Run("force bypasses cap", func(t *testing.T) {
		d := newDriver(t)
		require.NoError(t, d.TakeTask(1))

		require.NoError(t, d.ForceTakeTask())

		assert.Equal(t, 2, d.Load())
	})

	t.Run("release never goes negative", func(t *testing.T) {
		d := newDriver(t)
		require.NoError(t, d.TakeTask(1))

		d.ReleaseTask()
		d.ReleaseTask()

		assert.Equal(t, 0, d.Load())
	})
}

func TestDriver_RecordPosition(t *testing.T) {
	d := newDriver(t)
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	p1, _ := kernel.NewGeoPoint(1, 1)
	p2, _ := kernel.NewGeoPoint(2, 2)

	applied, err := d.RecordPosition(p1, at)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = d.RecordPosition(p2, at.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.InDelta(t, 1.0, d.Position().Lat(), 1e-9)

	_, err = d.RecordPosition(kernel.GeoPoint{}, at)
	require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
}

func TestRestore(t *testing.T) {
	d := newDriver(t)
	require.NoError(t, d.TakeTask(3))
	d.MarkSaved()

	restored, err := driver.Restore(d.Snapshot())

	require.NoError(t, err)
	assert.True(t, d.IsEqual(restored))
	assert.Equal(t, 1, restored.Load())
	assert.Equal(t, 1, restored.Version())

	s := d.Snapshot()
	s.Load = -1
	_, err = driver.Restore(s)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
