package models

import "time"

// Entry представляет парковочную сессию транспортного средства.
// Пока ExitTime равен nil, запись считается открытой: машина находится
// на парковке. Инвариант: для одного номера существует не более одной
// открытой записи одновременно.
type Entry struct {
	ID        string     `json:"id"`
	Plate     string     `json:"plate"`
	CellID    string     `json:"cell_id"`
	EntryTime time.Time  `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`
}

// Open сообщает, открыта ли запись (машина ещё на парковке).
func (e *Entry) Open() bool {
	return e.ExitTime == nil
}

// DummyEntry используется для приёма данных о въезде из JSON-запроса.
type DummyEntry struct {
	Plate  string `json:"plate" validate:"required,alphanum"`
	CellID string `json:"cell_id" validate:"required"`
}

// DummyExit используется для приёма данных о выезде из JSON-запроса.
type DummyExit struct {
	Plate string `json:"plate" validate:"required,alphanum"`
}

// VehicleInfo объединяет данные для карточки поиска транспортного
// средства: владелец, открытая запись и занятая ячейка.
type VehicleInfo struct {
	User  User  `json:"user"`
	Entry Entry `json:"entry"`
	Cell  Cell  `json:"cell"`
}
