package lifecycle

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/lib/fee"
	"github.com/magabrotheeeer/parking-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

type HandoffMock struct{ mock.Mock }

func (m *HandoffMock) SetCurrentPlate(ctx context.Context, plate string) error {
	return m.Called(ctx, plate).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishExit(event rabbitmq.ExitEvent) error {
	return m.Called(event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(t *testing.T, store storage.Store, handoff Handoff, publisher ExitPublisher) *LifecycleService {
	t.Helper()
	return NewLifecycleService(store, handoff, publisher, fee.DefaultRates(), newNoopLogger(), &sync.Mutex{})
}

func seed(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, storage.CollectionUsers, []models.User{
		{ID: "u1", Name: "Carlos", Plate: "ABC123", Plan: models.PlanOcasional},
		{ID: "u2", Name: "Maria", Plate: "XYZ789", Plan: models.PlanMensual},
	}))
	require.NoError(t, store.Save(ctx, storage.CollectionCells, []models.Cell{
		{ID: "c1", Type: "car", Status: models.CellAvailable},
		{ID: "c2", Type: "car", Status: models.CellAvailable},
	}))
}

func TestRegisterEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	entry, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "abc123", CellID: "c1"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "ABC123", entry.Plate)
	assert.True(t, entry.Open())

	var cells []models.Cell
	require.NoError(t, store.Load(ctx, storage.CollectionCells, &cells))
	assert.Equal(t, models.CellOccupied, cells[0].Status)
	assert.Equal(t, "ABC123", cells[0].Plate)
}

func TestRegisterEntry_Preconditions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         models.DummyEntry
		prepare     func(t *testing.T, svc *LifecycleService)
		expectedErr error
	}{
		{
			name:        "незарегистрированный номер",
			req:         models.DummyEntry{Plate: "NOUSER", CellID: "c1"},
			prepare:     func(_ *testing.T, _ *LifecycleService) {},
			expectedErr: models.ErrUnknownUser,
		},
		{
			name: "повторный въезд без выезда",
			req:  models.DummyEntry{Plate: "ABC123", CellID: "c2"},
			prepare: func(t *testing.T, svc *LifecycleService) {
				_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
				require.NoError(t, err)
			},
			expectedErr: models.ErrDuplicateActiveEntry,
		},
		{
			name: "занятая ячейка",
			req:  models.DummyEntry{Plate: "XYZ789", CellID: "c1"},
			prepare: func(t *testing.T, svc *LifecycleService) {
				_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
				require.NoError(t, err)
			},
			expectedErr: models.ErrCellUnavailable,
		},
		{
			name:        "несуществующая ячейка",
			req:         models.DummyEntry{Plate: "ABC123", CellID: "missing"},
			prepare:     func(_ *testing.T, _ *LifecycleService) {},
			expectedErr: models.ErrCellUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			seed(t, store)
			svc := newService(t, store, nil, nil)
			tt.prepare(t, svc)

			_, err := svc.RegisterEntry(ctx, tt.req)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestRegisterExit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)

	handoff := new(HandoffMock)
	handoff.On("SetCurrentPlate", mock.Anything, "ABC123").Return(nil)
	publisher := new(PublisherMock)
	publisher.On("PublishExit", mock.MatchedBy(func(e rabbitmq.ExitEvent) bool {
		return e.Plate == "ABC123" && e.CellID == "c1" && e.Amount > 0
	})).Return(nil)

	svc := newService(t, store, handoff, publisher)

	_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	entry, amount, err := svc.RegisterExit(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, entry.ExitTime)
	// Доля часа округляется вверх, поэтому минимум один час.
	assert.Equal(t, 5000, amount)

	var cells []models.Cell
	require.NoError(t, store.Load(ctx, storage.CollectionCells, &cells))
	assert.Equal(t, models.CellAvailable, cells[0].Status)
	assert.Empty(t, cells[0].Plate)

	handoff.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRegisterExit_NoActiveEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	_, _, err := svc.RegisterExit(ctx, "ABC123")
	assert.ErrorIs(t, err, models.ErrNoActiveEntry)
}

func TestRegisterExit_HandoffFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)

	handoff := new(HandoffMock)
	handoff.On("SetCurrentPlate", mock.Anything, "ABC123").Return(assert.AnError)
	svc := newService(t, store, handoff, nil)

	_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	_, _, err = svc.RegisterExit(ctx, "ABC123")
	assert.NoError(t, err)
	handoff.AssertExpectations(t)
}

func TestDeleteEntry_ReleasesCell(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	entry, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))

	var entries []models.Entry
	require.NoError(t, store.Load(ctx, storage.CollectionEntries, &entries))
	assert.Empty(t, entries)

	var cells []models.Cell
	require.NoError(t, store.Load(ctx, storage.CollectionCells, &cells))
	assert.Equal(t, models.CellAvailable, cells[0].Status)
}

func TestDeleteEntry_NotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	err := svc.DeleteEntry(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFindActiveEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	_, err := svc.FindActiveEntry(ctx, "ABC123")
	assert.ErrorIs(t, err, models.ErrNoActiveEntry)

	created, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	found, err := svc.FindActiveEntry(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	// Закрытая запись больше не находится.
	_, _, err = svc.RegisterExit(ctx, "ABC123")
	require.NoError(t, err)
	_, err = svc.FindActiveEntry(ctx, "ABC123")
	assert.ErrorIs(t, err, models.ErrNoActiveEntry)
}

func TestLookupVehicle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	info, err := svc.LookupVehicle(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Carlos", info.User.Name)
	assert.Equal(t, "c1", info.Cell.ID)
	assert.Equal(t, models.CellOccupied, info.Cell.Status)

	_, err = svc.LookupVehicle(ctx, "NOUSER")
	assert.ErrorIs(t, err, models.ErrUnknownUser)
}

func TestListActiveEntries(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	active, err := svc.ListActiveEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)
	_, err = svc.RegisterEntry(ctx, models.DummyEntry{Plate: "XYZ789", CellID: "c2"})
	require.NoError(t, err)
	_, _, err = svc.RegisterExit(ctx, "XYZ789")
	require.NoError(t, err)

	active, err = svc.ListActiveEntries(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ABC123", active[0].Plate)
}

func TestRegisterEntry_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store)
	svc := newService(t, store, nil, nil)

	_, err := svc.RegisterEntry(ctx, models.DummyEntry{Plate: "ABC123", CellID: "c1"})
	require.NoError(t, err)

	before := snapshot(t, store)
	_, err = svc.RegisterEntry(ctx, models.DummyEntry{Plate: "XYZ789", CellID: "c1"})
	require.ErrorIs(t, err, models.ErrCellUnavailable)
	assert.Equal(t, before, snapshot(t, store))
}

func snapshot(t *testing.T, store storage.Store) [2]string {
	t.Helper()
	ctx := context.Background()
	var entries []models.Entry
	require.NoError(t, store.Load(ctx, storage.CollectionEntries, &entries))
	var cells []models.Cell
	require.NoError(t, store.Load(ctx, storage.CollectionCells, &cells))
	return [2]string{dump(t, entries), dump(t, cells)}
}

func dump(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
