// Package catalog содержит бизнес-логику справочников: пользователей
// и парковочных ячеек. Пользователи уникальны по номеру транспортного
// средства; ячейки создаются свободными и не удаляются.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/cache"
	"github.com/magabrotheeeer/parking-manager/internal/config"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/state"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

// Views сбрасывает кешированную проекцию списка платежей: виртуальные
// задолженности строятся по пользователям, поэтому мутации справочника
// её устаревают.
type Views interface {
	Invalidate(key string) error
}

// CatalogService реализует операции над справочниками.
type CatalogService struct {
	store        storage.Store
	views        Views
	deletePolicy string
	log          *slog.Logger
	mu           *sync.Mutex
}

// NewCatalogService создает новый экземпляр CatalogService.
// deletePolicy определяет судьбу пользователя с открытой записью:
// restrict запрещает удаление, cascade закрывает запись и освобождает
// ячейку. views может быть nil: тогда проекция платежей не кешируется.
func NewCatalogService(store storage.Store, views Views, deletePolicy string, log *slog.Logger, mu *sync.Mutex) *CatalogService {
	return &CatalogService{
		store:        store,
		views:        views,
		deletePolicy: deletePolicy,
		log:          log,
		mu:           mu,
	}
}

// invalidateViews сбрасывает кешированную проекцию платежей после
// мутации пользователей.
func (s *CatalogService) invalidateViews() {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(cache.KeyPaymentsView); err != nil {
		s.log.Warn("failed to invalidate payments view cache", slog.Any("err", err))
	}
}

// UpsertUser создаёт пользователя или обновляет существующего по id.
// Номер должен быть уникален среди всех остальных пользователей;
// собственный id записи при проверке исключается, чтобы редактирование
// без смены номера не считалось дубликатом.
func (s *CatalogService) UpsertUser(ctx context.Context, id string, req models.DummyUser) (*models.User, error) {
	const op = "catalog.UpsertUser"
	plate := models.NormalizePlate(req.Plate)

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range users {
		if users[i].Plate == plate && users[i].ID != id {
			return nil, models.ErrDuplicatePlate
		}
	}

	user := models.User{
		ID:          id,
		Name:        req.Name,
		Phone:       req.Phone,
		Plate:       plate,
		VehicleType: req.VehicleType,
		Plan:        req.Plan,
	}

	if id == "" {
		user.ID = uuid.NewString()
		users = append(users, user)
	} else {
		idx := -1
		for i := range users {
			if users[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, models.ErrNotFound
		}
		users[idx] = user
	}

	if err := s.store.Save(ctx, storage.CollectionUsers, users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateViews()

	s.log.Info("upserted user", slog.String("user_id", user.ID), slog.String("plate", plate))
	return &user, nil
}

// DeleteUser удаляет пользователя по id согласно политике удаления.
func (s *CatalogService) DeleteUser(ctx context.Context, id string) error {
	const op = "catalog.DeleteUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrNotFound
	}
	plate := users[idx].Plate

	var entries []models.Entry
	if err := s.store.Load(ctx, storage.CollectionEntries, &entries); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	openIdx := -1
	for i := range entries {
		if entries[i].Plate == plate && entries[i].Open() {
			openIdx = i
			break
		}
	}

	if openIdx >= 0 {
		if s.deletePolicy == config.DeletePolicyRestrict {
			return models.ErrUserHasActiveEntry
		}
		if err := s.cascadeClose(ctx, entries, openIdx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	users = append(users[:idx], users[idx+1:]...)
	if err := s.store.Save(ctx, storage.CollectionUsers, users); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateViews()

	s.log.Info("deleted user", slog.String("user_id", id), slog.String("plate", plate))
	return nil
}

// cascadeClose удаляет открытую запись пользователя и освобождает её
// ячейку. Вызывается под общим мьютексом.
func (s *CatalogService) cascadeClose(ctx context.Context, entries []models.Entry, openIdx int) error {
	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return err
	}
	for i := range cells {
		if cells[i].ID == entries[openIdx].CellID {
			machine := state.NewCellMachine(cells[i].Status)
			if err := machine.Release(ctx); err != nil {
				return err
			}
			cells[i].Status = machine.Current()
			cells[i].Plate = ""
			if err := s.store.Save(ctx, storage.CollectionCells, cells); err != nil {
				return err
			}
			break
		}
	}
	entries = append(entries[:openIdx], entries[openIdx+1:]...)
	return s.store.Save(ctx, storage.CollectionEntries, entries)
}

// AddCell создаёт новую свободную ячейку указанного типа.
func (s *CatalogService) AddCell(ctx context.Context, req models.DummyCell) (*models.Cell, error) {
	const op = "catalog.AddCell"

	s.mu.Lock()
	defer s.mu.Unlock()

	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cell := models.Cell{
		ID:     uuid.NewString(),
		Type:   req.Type,
		Status: models.CellAvailable,
		Plate:  "",
	}
	cells = append(cells, cell)

	if err := s.store.Save(ctx, storage.CollectionCells, cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("added cell", slog.String("cell_id", cell.ID), slog.String("type", cell.Type))
	return &cell, nil
}

// ListUsers возвращает всех пользователей.
func (s *CatalogService) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "catalog.ListUsers"

	var users []models.User
	if err := s.store.Load(ctx, storage.CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListCells возвращает ячейки, при status != "" — только с этим статусом.
func (s *CatalogService) ListCells(ctx context.Context, status string) ([]models.Cell, error) {
	const op = "catalog.ListCells"

	var cells []models.Cell
	if err := s.store.Load(ctx, storage.CollectionCells, &cells); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status == "" {
		return cells, nil
	}
	filtered := make([]models.Cell, 0, len(cells))
	for _, c := range cells {
		if c.Status == status {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}
