package models

import "errors"

// Ошибки предметной области. Все они — отказы валидации, обнаруживаемые
// до первой записи: при любой из них состояние остаётся неизменным.
var (
	// ErrUnknownUser — по номеру не найден зарегистрированный пользователь.
	ErrUnknownUser = errors.New("unknown user")
	// ErrDuplicateActiveEntry — для номера уже существует открытая запись.
	ErrDuplicateActiveEntry = errors.New("active entry already exists")
	// ErrCellUnavailable — ячейка не найдена или уже занята.
	ErrCellUnavailable = errors.New("cell unavailable")
	// ErrNoActiveEntry — для номера нет открытой записи.
	ErrNoActiveEntry = errors.New("no active entry")
	// ErrDuplicatePlate — номер уже зарегистрирован другим пользователем.
	ErrDuplicatePlate = errors.New("plate already registered")
	// ErrMissingField — не заполнено обязательное поле.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidTimeRange — время выезда раньше времени въезда или не задано.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrUnknownPlan — неизвестный тарифный план.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUserHasActiveEntry — удаление пользователя с открытой записью
	// запрещено политикой restrict.
	ErrUserHasActiveEntry = errors.New("user has active entry")
	// ErrNotFound — запись с указанным идентификатором не найдена.
	ErrNotFound = errors.New("record not found")
)
