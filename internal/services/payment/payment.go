// Package payment содержит бизнес-логику платежей: фиксацию оплаты,
// проекцию списка платежей с виртуальными задолженностями и расчёт
// суммы для формы оплаты после выезда.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/cache"
	"github.com/magabrotheeeer/parking-manager/internal/lib/fee"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

// Фильтры проекции списка платежей.
const (
	FilterAll     = "all"
	FilterPaid    = "paid"
	FilterPending = "pending"
)

// Handoff отдаёт номер, переданный потоком выезда, ровно один раз.
type Handoff interface {
	ConsumeCurrentPlate(ctx context.Context) (string, bool, error)
}

// Views кеширует проекцию списка платежей между мутациями.
type Views interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Время жизни кешированной проекции на случай пропущенной инвалидации.
const viewsTTL = 5 * time.Minute

// PaymentService реализует операции над платежами.
type PaymentService struct {
	store   storage.Store
	handoff Handoff
	views   Views
	rates   fee.Rates
	log     *slog.Logger
	mu      *sync.Mutex
}

// NewPaymentService создает новый экземпляр PaymentService.
// handoff может быть nil: тогда CurrentPayment всегда сообщает об
// отсутствии ожидающей оплаты. views может быть nil: тогда проекция
// строится заново на каждый запрос.
func NewPaymentService(store storage.Store, handoff Handoff, views Views,
	rates fee.Rates, log *slog.Logger, mu *sync.Mutex) *PaymentService {
	return &PaymentService{
		store:   store,
		handoff: handoff,
		views:   views,
		rates:   rates,
		log:     log,
		mu:      mu,
	}
}

// RecordPayment фиксирует оплату. Пользователь с таким номером должен
// существовать; сумма и способ оплаты обязательны. Сохраняются только
// оплаченные записи.
func (s *PaymentService) RecordPayment(ctx context.Context, req models.DummyPayment) (*models.Payment, error) {
	const op = "payment.RecordPayment"
	plate := models.NormalizePlate(req.Plate)

	if plate == "" || req.Method == "" || req.Amount <= 0 {
		return nil, models.ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var user *models.User
	for i := range users {
		if users[i].Plate == plate {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, models.ErrUnknownUser
	}

	var payments []models.Payment
	if err := s.store.Load(ctx, storage.CollectionPayments, &payments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Payment{
		ID:       uuid.NewString(),
		Date:     time.Now(),
		Plate:    plate,
		UserID:   user.ID,
		UserName: user.Name,
		Amount:   req.Amount,
		Method:   req.Method,
		Notes:    req.Notes,
	}
	payments = append(payments, p)

	if err := s.store.Save(ctx, storage.CollectionPayments, payments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateViews()

	s.log.Info("recorded payment",
		slog.String("payment_id", p.ID),
		slog.String("plate", plate),
		slog.Int("amount", p.Amount))
	return &p, nil
}

// ListPayments строит проекцию списка платежей. Для каждого
// пользователя без единой оплаченной записи синтезируется виртуальная
// задолженность: месячная ставка для плана mensual, иначе ноль — сумма
// остальных планов становится известна только после выезда. Проекция
// не сохраняется; полный вариант кешируется до первой мутации платежей
// или пользователей.
func (s *PaymentService) ListPayments(ctx context.Context, filter string) ([]models.PaymentView, error) {
	const op = "payment.ListPayments"

	views, err := s.allViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if filter == FilterAll {
		return views, nil
	}
	filtered := make([]models.PaymentView, 0, len(views))
	for _, v := range views {
		if (filter == FilterPaid && v.Status == models.PaymentPaid) ||
			(filter == FilterPending && v.Status == models.PaymentPending) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

// allViews возвращает полную проекцию: из кеша, если она там есть,
// иначе строит по коллекциям и кладёт в кеш. Ошибки кеша не фатальны.
func (s *PaymentService) allViews(ctx context.Context) ([]models.PaymentView, error) {
	if s.views != nil {
		var cached []models.PaymentView
		found, err := s.views.Get(cache.KeyPaymentsView, &cached)
		if err != nil {
			s.log.Warn("failed to read payments view cache", slog.Any("err", err))
		} else if found {
			return cached, nil
		}
	}

	var payments []models.Payment
	if err := s.store.Load(ctx, storage.CollectionPayments, &payments); err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, err
	}

	views := make([]models.PaymentView, 0, len(payments)+len(users))
	for _, p := range payments {
		views = append(views, models.PaidView(p))
	}
	for _, u := range users {
		if hasPaid(payments, u.Plate) {
			continue
		}
		amount := 0
		if u.Plan == models.PlanMensual {
			amount = s.rates.Monthly
		}
		views = append(views, models.PendingView(u, amount))
	}

	if s.views != nil {
		if err := s.views.Set(cache.KeyPaymentsView, views, viewsTTL); err != nil {
			s.log.Warn("failed to cache payments view", slog.Any("err", err))
		}
	}
	return views, nil
}

// invalidateViews сбрасывает кешированную проекцию после мутации.
func (s *PaymentService) invalidateViews() {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(cache.KeyPaymentsView); err != nil {
		s.log.Warn("failed to invalidate payments view cache", slog.Any("err", err))
	}
}

// DeletePayment удаляет сохранённый платёж по идентификатору.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	const op = "payment.DeletePayment"

	s.mu.Lock()
	defer s.mu.Unlock()

	var payments []models.Payment
	if err := s.store.Load(ctx, storage.CollectionPayments, &payments); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	idx := -1
	for i := range payments {
		if payments[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrNotFound
	}
	payments = append(payments[:idx], payments[idx+1:]...)
	if err := s.store.Save(ctx, storage.CollectionPayments, payments); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateViews()

	s.log.Info("deleted payment", slog.String("payment_id", id))
	return nil
}

// CurrentPayment читает одноразовую передачу номера из потока выезда
// и собирает данные для формы оплаты: владельца, время на парковке и
// рассчитанную сумму по последней записи номера.
func (s *PaymentService) CurrentPayment(ctx context.Context) (*models.CurrentPayment, error) {
	const op = "payment.CurrentPayment"

	if s.handoff == nil {
		return nil, models.ErrNotFound
	}
	plate, found, err := s.handoff.ConsumeCurrentPlate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, models.ErrNotFound
	}
	return s.ComputeForPlate(ctx, plate)
}

// ComputeForPlate рассчитывает сумму к оплате по последней записи
// номера. Запись без времени выезда даёт models.ErrInvalidTimeRange.
func (s *PaymentService) ComputeForPlate(ctx context.Context, plate string) (*models.CurrentPayment, error) {
	const op = "payment.ComputeForPlate"
	plate = models.NormalizePlate(plate)

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var user *models.User
	for i := range users {
		if users[i].Plate == plate {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, models.ErrUnknownUser
	}

	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var own []models.Entry
	for _, e := range entries {
		if e.Plate == plate {
			own = append(own, e)
		}
	}
	if len(own) == 0 {
		return nil, models.ErrNoActiveEntry
	}
	sort.Slice(own, func(i, j int) bool {
		return own[i].EntryTime.After(own[j].EntryTime)
	})
	last := own[0]
	if last.ExitTime == nil {
		return nil, models.ErrInvalidTimeRange
	}

	amount, err := fee.Compute(user.Plan, last.EntryTime, *last.ExitTime, s.rates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.CurrentPayment{
		Plate:    plate,
		UserName: user.Name,
		Plan:     user.Plan,
		Hours:    fee.Hours(last.EntryTime, *last.ExitTime),
		Amount:   amount,
	}, nil
}

func hasPaid(payments []models.Payment, plate string) bool {
	for _, p := range payments {
		if p.Plate == plate {
			return true
		}
	}
	return false
}
