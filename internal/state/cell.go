// Package state описывает конечный автомат парковочной ячейки.
// У ячейки два состояния: available и occupied, и ровно два перехода:
// occupy (при регистрации въезда) и release (при выезде или удалении
// записи). Любая другая смена статуса запрещена.
package state

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// События переходов.
const (
	EventOccupy  = "occupy"
	EventRelease = "release"
)

// CellMachine — автомат состояния одной ячейки.
type CellMachine struct {
	fsm *fsm.FSM
}

// NewCellMachine создаёт автомат с начальным состоянием ячейки.
func NewCellMachine(current string) *CellMachine {
	if current == "" {
		current = models.CellAvailable
	}
	return &CellMachine{
		fsm: fsm.NewFSM(
			current,
			fsm.Events{
				{Name: EventOccupy, Src: []string{models.CellAvailable}, Dst: models.CellOccupied},
				{Name: EventRelease, Src: []string{models.CellOccupied}, Dst: models.CellAvailable},
			},
			fsm.Callbacks{},
		),
	}
}

// Current возвращает текущее состояние.
func (m *CellMachine) Current() string {
	return m.fsm.Current()
}

// Occupy переводит ячейку в occupied. Для уже занятой ячейки возвращает
// models.ErrCellUnavailable.
func (m *CellMachine) Occupy(ctx context.Context) error {
	if err := m.fsm.Event(ctx, EventOccupy); err != nil {
		return fmt.Errorf("%w: %s", models.ErrCellUnavailable, err)
	}
	return nil
}

// Release переводит ячейку в available. Освобождение свободной ячейки —
// допустимый холостой ход: deleteEntry освобождает ячейку безусловно.
func (m *CellMachine) Release(ctx context.Context) error {
	if m.fsm.Current() == models.CellAvailable {
		return nil
	}
	if err := m.fsm.Event(ctx, EventRelease); err != nil {
		return fmt.Errorf("release cell: %w", err)
	}
	return nil
}
