package guard_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPingNotConstructed = errors.New("ping must be created via newPing")

// ping mimics a command object guarded the same way as the use case commands.
type ping struct {
	driverID string
	guard    guard.ConstructorGuard
}

func newPing(driverID string) ping {
	return ping{driverID: driverID, guard: guard.NewConstructorGuard()}
}

func (p ping) Validate() error {
	return p.guard.Validate(errPingNotConstructed)
}

func TestConstructorGuard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		guard   guard.ConstructorGuard
		err     error
		wantErr error
	}{
		{name: "constructed ignores custom error", guard: guard.NewConstructorGuard(), err: errPingNotConstructed},
		{name: "constructed ignores nil error", guard: guard.NewConstructorGuard()},
		{name: "zero value returns custom error", err: errPingNotConstructed, wantErr: errPingNotConstructed},
		{name: "zero value falls back to default", wantErr: guard.ErrDefaultConstructorGuard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guard.Validate(tt.err)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConstructorGuard_CatchesStructLiterals(t *testing.T) {
	require.NoError(t, newPing("driver-1").Validate())

	literal := ping{driverID: "driver-1"}
	assert.ErrorIs(t, literal.Validate(), errPingNotConstructed)

	var zero ping
	assert.ErrorIs(t, zero.Validate(), errPingNotConstructed)
}

func TestConstructorGuard_SurvivesCopies(t *testing.T) {
	original := newPing("driver-1")
	copied := original
	copied.driverID = "driver-2"

	assert.NoError(t, copied.Validate())
	assert.Equal(t, "driver-1", original.driverID)
}
