// Package lifecycle содержит бизнес-логику въездов и выездов: открытие
// и закрытие парковочных записей, занятие и освобождение ячеек.
// Все проверки предусловий выполняются до первой записи в хранилище,
// поэтому при любом отказе состояние остаётся неизменным.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/lib/fee"
	"github.com/magabrotheeeer/parking-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/state"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

// Handoff передаёт номер из потока выезда в поток оплаты.
type Handoff interface {
	SetCurrentPlate(ctx context.Context, plate string) error
}

// ExitPublisher публикует событие выезда для внешних потребителей.
type ExitPublisher interface {
	PublishExit(event rabbitmq.ExitEvent) error
}

// LifecycleService реализует операции жизненного цикла парковочной записи.
// Мьютекс общий для всех сервисов: коллекции разделяются между ними,
// и мутации выполняются строго по одной.
type LifecycleService struct {
	store     storage.Store
	handoff   Handoff
	publisher ExitPublisher
	rates     fee.Rates
	log       *slog.Logger
	mu        *sync.Mutex
}

// NewLifecycleService создает новый экземпляр LifecycleService.
// handoff и publisher могут быть nil: тогда выезд не передаёт номер
// в поток оплаты и не публикует событие.
func NewLifecycleService(store storage.Store, handoff Handoff, publisher ExitPublisher,
	rates fee.Rates, log *slog.Logger, mu *sync.Mutex) *LifecycleService {
	return &LifecycleService{
		store:     store,
		handoff:   handoff,
		publisher: publisher,
		rates:     rates,
		log:       log,
		mu:        mu,
	}
}

// RegisterEntry регистрирует въезд: создаёт открытую запись и занимает
// ячейку. Предусловия в порядке проверки: пользователь с таким номером
// существует, открытой записи для номера нет, ячейка существует и
// свободна.
func (s *LifecycleService) RegisterEntry(ctx context.Context, req models.DummyEntry) (*models.Entry, error) {
	const op = "lifecycle.RegisterEntry"
	plate := models.NormalizePlate(req.Plate)

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if findUserByPlate(users, plate) == nil {
		return nil, models.ErrUnknownUser
	}
	if findOpenEntry(entries, plate) != nil {
		return nil, models.ErrDuplicateActiveEntry
	}
	cellIdx := findCell(cells, req.CellID)
	if cellIdx < 0 {
		return nil, models.ErrCellUnavailable
	}
	machine := state.NewCellMachine(cells[cellIdx].Status)
	if err := machine.Occupy(ctx); err != nil {
		return nil, err
	}

	entry := models.Entry{
		ID:        uuid.NewString(),
		Plate:     plate,
		CellID:    req.CellID,
		EntryTime: time.Now(),
	}
	entries = append(entries, entry)
	cells[cellIdx].Status = machine.Current()
	cells[cellIdx].Plate = plate

	if err := s.store.Save(ctx, storage.CollectionEntries, entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Save(ctx, storage.CollectionCells, cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered entry",
		slog.String("plate", plate),
		slog.String("cell_id", req.CellID),
		slog.String("entry_id", entry.ID))
	return &entry, nil
}

// RegisterExit закрывает открытую запись номера и освобождает ячейку.
// Закрытая запись передаётся в поток оплаты: номер уходит в одноразовую
// передачу, событие выезда с рассчитанной суммой — в очередь.
// Возвращает закрытую запись и сумму к оплате.
func (s *LifecycleService) RegisterExit(ctx context.Context, plate string) (*models.Entry, int, error) {
	const op = "lifecycle.RegisterExit"
	plate = models.NormalizePlate(plate)

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	entry := findOpenEntry(entries, plate)
	if entry == nil {
		return nil, 0, models.ErrNoActiveEntry
	}

	now := time.Now()
	entry.ExitTime = &now

	if cellIdx := findCell(cells, entry.CellID); cellIdx >= 0 {
		machine := state.NewCellMachine(cells[cellIdx].Status)
		if err := machine.Release(ctx); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		cells[cellIdx].Status = machine.Current()
		cells[cellIdx].Plate = ""
	}

	if err := s.store.Save(ctx, storage.CollectionEntries, entries); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Save(ctx, storage.CollectionCells, cells); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var amount int
	user := findUserByPlate(users, plate)
	if user != nil {
		var err error
		amount, err = fee.Compute(user.Plan, entry.EntryTime, now, s.rates)
		if err != nil {
			s.log.Warn("failed to compute amount on exit", slog.String("plate", plate), slog.Any("err", err))
		}
	} else {
		s.log.Warn("exit for plate without user", slog.String("plate", plate))
	}

	if s.handoff != nil {
		if err := s.handoff.SetCurrentPlate(ctx, plate); err != nil {
			s.log.Warn("failed to hand off plate to payment flow", slog.Any("err", err))
		}
	}
	if s.publisher != nil {
		event := rabbitmq.ExitEvent{
			Plate:     plate,
			CellID:    entry.CellID,
			EntryTime: entry.EntryTime,
			ExitTime:  now,
			Amount:    amount,
		}
		if user != nil {
			event.Plan = user.Plan
		}
		if err := s.publisher.PublishExit(event); err != nil {
			s.log.Warn("failed to publish exit event", slog.Any("err", err))
		}
	}

	s.log.Info("registered exit",
		slog.String("plate", plate),
		slog.String("entry_id", entry.ID),
		slog.Int("amount", amount))
	return entry, amount, nil
}

// DeleteEntry удаляет запись по идентификатору независимо от её
// состояния. Ячейка освобождается безусловно: это административная
// операция для исправления ошибочных записей.
func (s *LifecycleService) DeleteEntry(ctx context.Context, entryID string) error {
	const op = "lifecycle.DeleteEntry"

	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	idx := -1
	for i := range entries {
		if entries[i].ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrNotFound
	}

	if cellIdx := findCell(cells, entries[idx].CellID); cellIdx >= 0 {
		machine := state.NewCellMachine(cells[cellIdx].Status)
		if err := machine.Release(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		cells[cellIdx].Status = machine.Current()
		cells[cellIdx].Plate = ""
		if err := s.store.Save(ctx, storage.CollectionCells, cells); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	if err := s.store.Save(ctx, storage.CollectionEntries, entries); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("deleted entry", slog.String("entry_id", entryID))
	return nil
}

// FindActiveEntry возвращает открытую запись для номера.
// Если записи нет, возвращает models.ErrNoActiveEntry.
func (s *LifecycleService) FindActiveEntry(ctx context.Context, plate string) (*models.Entry, error) {
	const op = "lifecycle.FindActiveEntry"
	plate = models.NormalizePlate(plate)

	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entry := findOpenEntry(entries, plate)
	if entry == nil {
		return nil, models.ErrNoActiveEntry
	}
	return entry, nil
}

// LookupVehicle возвращает карточку поиска транспортного средства:
// владельца, открытую запись и занятую ячейку.
func (s *LifecycleService) LookupVehicle(ctx context.Context, plate string) (*models.VehicleInfo, error) {
	const op = "lifecycle.LookupVehicle"
	plate = models.NormalizePlate(plate)

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := findUserByPlate(users, plate)
	if user == nil {
		return nil, models.ErrUnknownUser
	}

	entry, err := s.FindActiveEntry(ctx, plate)
	if err != nil {
		return nil, err
	}

	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info := models.VehicleInfo{
		User:  *user,
		Entry: *entry,
	}
	if cellIdx := findCell(cells, entry.CellID); cellIdx >= 0 {
		info.Cell = cells[cellIdx]
	}
	return &info, nil
}

// ListActiveEntries возвращает все открытые записи.
func (s *LifecycleService) ListActiveEntries(ctx context.Context) ([]models.Entry, error) {
	const op = "lifecycle.ListActiveEntries"

	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Open() {
			active = append(active, e)
		}
	}
	return active, nil
}

func findUserByPlate(users []models.User, plate string) *models.User {
	for i := range users {
		if users[i].Plate == plate {
			return &users[i]
		}
	}
	return nil
}

func findOpenEntry(entries []models.Entry, plate string) *models.Entry {
	for i := range entries {
		if entries[i].Plate == plate && entries[i].Open() {
			return &entries[i]
		}
	}
	return nil
}

func findCell(cells []models.Cell, id string) int {
	for i := range cells {
		if cells[i].ID == id {
			return i
		}
	}
	return -1
}
