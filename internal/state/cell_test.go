package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

func TestCellMachine_OccupyRelease(t *testing.T) {
	ctx := context.Background()

	m := NewCellMachine(models.CellAvailable)
	require.NoError(t, m.Occupy(ctx))
	assert.Equal(t, models.CellOccupied, m.Current())

	require.NoError(t, m.Release(ctx))
	assert.Equal(t, models.CellAvailable, m.Current())
}

func TestCellMachine_OccupyOccupied(t *testing.T) {
	ctx := context.Background()

	m := NewCellMachine(models.CellOccupied)
	err := m.Occupy(ctx)
	assert.ErrorIs(t, err, models.ErrCellUnavailable)
	assert.Equal(t, models.CellOccupied, m.Current())
}

func TestCellMachine_ReleaseAvailableIsNoop(t *testing.T) {
	ctx := context.Background()

	m := NewCellMachine(models.CellAvailable)
	require.NoError(t, m.Release(ctx))
	assert.Equal(t, models.CellAvailable, m.Current())
}

func TestCellMachine_EmptyStatusDefaultsToAvailable(t *testing.T) {
	m := NewCellMachine("")
	assert.Equal(t, models.CellAvailable, m.Current())
}
