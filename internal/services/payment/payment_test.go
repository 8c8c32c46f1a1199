package payment

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/cache"
	"github.com/magabrotheeeer/parking-manager/internal/lib/fee"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

type HandoffMock struct{ mock.Mock }

func (m *HandoffMock) ConsumeCurrentPlate(ctx context.Context) (string, bool, error) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1), args.Error(2)
}

type ViewsMock struct{ mock.Mock }

func (m *ViewsMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *ViewsMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *ViewsMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(store storage.Store, handoff Handoff) *PaymentService {
	return NewPaymentService(store, handoff, nil, fee.DefaultRates(), newNoopLogger(), &sync.Mutex{})
}

func newServiceWithViews(store storage.Store, views Views) *PaymentService {
	return NewPaymentService(store, nil, views, fee.DefaultRates(), newNoopLogger(), &sync.Mutex{})
}

func seedUsers(t *testing.T, store storage.Store) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), storage.CollectionUsers, []models.User{
		{ID: "u1", Name: "Carlos", Plate: "ABC123", Plan: models.PlanMensual},
		{ID: "u2", Name: "Maria", Plate: "XYZ789", Plan: models.PlanOcasional},
	}))
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	p, err := svc.RecordPayment(ctx, models.DummyPayment{
		Plate:  "abc123",
		Amount: 300000,
		Method: "efectivo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "ABC123", p.Plate)
	// Имя и идентификатор владельца денормализуются на момент оплаты.
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Carlos", p.UserName)
}

func TestRecordPayment_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         models.DummyPayment
		expectedErr error
	}{
		{
			name:        "пустой номер",
			req:         models.DummyPayment{Amount: 1000, Method: "efectivo"},
			expectedErr: models.ErrMissingField,
		},
		{
			name:        "нулевая сумма",
			req:         models.DummyPayment{Plate: "ABC123", Method: "efectivo"},
			expectedErr: models.ErrMissingField,
		},
		{
			name:        "без способа оплаты",
			req:         models.DummyPayment{Plate: "ABC123", Amount: 1000},
			expectedErr: models.ErrMissingField,
		},
		{
			name:        "незарегистрированный номер",
			req:         models.DummyPayment{Plate: "NOUSER", Amount: 1000, Method: "efectivo"},
			expectedErr: models.ErrUnknownUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			seedUsers(t, store)
			svc := newService(store, nil)

			_, err := svc.RecordPayment(ctx, tt.req)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestListPayments_PendingProjection(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	// Carlos оплатил, Maria — нет.
	_, err := svc.RecordPayment(ctx, models.DummyPayment{
		Plate:  "ABC123",
		Amount: 300000,
		Method: "efectivo",
	})
	require.NoError(t, err)

	views, err := svc.ListPayments(ctx, FilterAll)
	require.NoError(t, err)
	require.Len(t, views, 2)

	pending, err := svc.ListPayments(ctx, FilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.PaymentPending, pending[0].Status)
	assert.Equal(t, "XYZ789", pending[0].Plate)
	// Сумма ocasional известна только после выезда.
	assert.Equal(t, 0, pending[0].Amount)
	assert.Nil(t, pending[0].Payment)

	paid, err := svc.ListPayments(ctx, FilterPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, models.PaymentPaid, paid[0].Status)
	assert.NotNil(t, paid[0].Payment)
}

func TestListPayments_PendingMensualUsesMonthlyRate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	pending, err := svc.ListPayments(ctx, FilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byPlate := map[string]int{}
	for _, v := range pending {
		byPlate[v.Plate] = v.Amount
	}
	assert.Equal(t, 300000, byPlate["ABC123"])
	assert.Equal(t, 0, byPlate["XYZ789"])
}

func TestDeletePayment(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	p, err := svc.RecordPayment(ctx, models.DummyPayment{
		Plate:  "ABC123",
		Amount: 300000,
		Method: "tarjeta",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(ctx, p.ID))
	assert.ErrorIs(t, svc.DeletePayment(ctx, p.ID), models.ErrNotFound)
}

func TestCurrentPayment(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	exit := entry.Add(90 * time.Minute)
	require.NoError(t, store.Save(ctx, storage.CollectionEntries, []models.Entry{
		{ID: "e1", Plate: "XYZ789", CellID: "c1", EntryTime: entry, ExitTime: &exit},
	}))

	handoff := new(HandoffMock)
	handoff.On("ConsumeCurrentPlate", mock.Anything).Return("XYZ789", true, nil)
	svc := newService(store, handoff)

	current, err := svc.CurrentPayment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", current.Plate)
	assert.Equal(t, "Maria", current.UserName)
	assert.Equal(t, 2, current.Hours)
	assert.Equal(t, 2*5000, current.Amount)
	handoff.AssertExpectations(t)
}

func TestCurrentPayment_NothingPending(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	handoff := new(HandoffMock)
	handoff.On("ConsumeCurrentPlate", mock.Anything).Return("", false, nil)
	svc := newService(store, handoff)

	_, err := svc.CurrentPayment(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Без Redis форма оплаты всегда пуста.
	svc = newService(store, nil)
	_, err = svc.CurrentPayment(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComputeForPlate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	_, err := svc.ComputeForPlate(ctx, "NOUSER")
	assert.ErrorIs(t, err, models.ErrUnknownUser)

	_, err = svc.ComputeForPlate(ctx, "XYZ789")
	assert.ErrorIs(t, err, models.ErrNoActiveEntry)

	// Открытая запись без времени выезда не даёт рассчитать сумму.
	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, storage.CollectionEntries, []models.Entry{
		{ID: "e1", Plate: "XYZ789", CellID: "c1", EntryTime: entry},
	}))
	_, err = svc.ComputeForPlate(ctx, "XYZ789")
	assert.ErrorIs(t, err, models.ErrInvalidTimeRange)
}

func TestComputeForPlate_UsesLatestEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)
	svc := newService(store, nil)

	first := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)
	firstExit := first.Add(3 * time.Hour)
	second := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	secondExit := second.Add(1 * time.Hour)
	require.NoError(t, store.Save(ctx, storage.CollectionEntries, []models.Entry{
		{ID: "e1", Plate: "XYZ789", CellID: "c1", EntryTime: first, ExitTime: &firstExit},
		{ID: "e2", Plate: "XYZ789", CellID: "c1", EntryTime: second, ExitTime: &secondExit},
	}))

	current, err := svc.ComputeForPlate(ctx, "XYZ789")
	require.NoError(t, err)
	assert.Equal(t, 1, current.Hours)
	assert.Equal(t, 5000, current.Amount)
}

func TestListPayments_CacheHitSkipsStore(t *testing.T) {
	ctx := context.Background()
	// Пустое хранилище: результат может прийти только из кеша.
	store := storage.NewMemory()

	cached := []models.PaymentView{
		{Status: models.PaymentPending, Plate: "ABC123", UserID: "u1", UserName: "Carlos", Amount: 300000},
	}
	views := new(ViewsMock)
	views.On("Get", cache.KeyPaymentsView, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(1).(*[]models.PaymentView)
			*dest = cached
		}).
		Return(true, nil)
	svc := newServiceWithViews(store, views)

	got, err := svc.ListPayments(ctx, FilterAll)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	views.AssertExpectations(t)
}

func TestListPayments_CacheMissBuildsAndStores(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	views := new(ViewsMock)
	views.On("Get", cache.KeyPaymentsView, mock.Anything).Return(false, nil)
	views.On("Set", cache.KeyPaymentsView, mock.Anything, viewsTTL).Return(nil)
	svc := newServiceWithViews(store, views)

	got, err := svc.ListPayments(ctx, FilterPending)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	views.AssertExpectations(t)
}

func TestListPayments_CacheFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	views := new(ViewsMock)
	views.On("Get", cache.KeyPaymentsView, mock.Anything).Return(false, assert.AnError)
	views.On("Set", cache.KeyPaymentsView, mock.Anything, viewsTTL).Return(assert.AnError)
	svc := newServiceWithViews(store, views)

	got, err := svc.ListPayments(ctx, FilterAll)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	views.AssertExpectations(t)
}

func TestRecordPayment_InvalidatesViewCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	views := new(ViewsMock)
	views.On("Invalidate", cache.KeyPaymentsView).Return(nil)
	svc := newServiceWithViews(store, views)

	_, err := svc.RecordPayment(ctx, models.DummyPayment{
		Plate:  "ABC123",
		Amount: 300000,
		Method: "efectivo",
	})
	require.NoError(t, err)
	views.AssertExpectations(t)
}

func TestDeletePayment_InvalidatesViewCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seedUsers(t, store)

	views := new(ViewsMock)
	views.On("Invalidate", cache.KeyPaymentsView).Return(nil)
	svc := newServiceWithViews(store, views)

	p, err := svc.RecordPayment(ctx, models.DummyPayment{
		Plate:  "ABC123",
		Amount: 300000,
		Method: "tarjeta",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(ctx, p.ID))
	views.AssertNumberOfCalls(t, "Invalidate", 2)
}
