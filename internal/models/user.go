// Package models содержит доменные структуры парковки: пользователей,
// ячейки, записи въезда/выезда и платежи, а также вспомогательные типы
// для приёма данных из JSON-запросов.
package models

// Тарифные планы пользователя. План определяет правила расчёта оплаты.
const (
	PlanMensual   = "mensual"   // фиксированная месячная ставка
	PlanDiario    = "diario"    // суточная ставка плюс почасовая доплата сверх 24 часов
	PlanOcasional = "ocasional" // только почасовая ставка
)

// User представляет владельца транспортного средства.
// Поле Plate уникально среди всех пользователей и служит основным
// ключом корреляции между записями, ячейками и платежами.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
	Plan        string `json:"plan"`
}

// DummyUser используется для приёма данных пользователя из JSON-запроса,
// прежде чем конвертировать их в User.
type DummyUser struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Plate       string `json:"plate" validate:"required,alphanum"`
	VehicleType string `json:"vehicle_type" validate:"required"`
	Plan        string `json:"plan" validate:"required,oneof=mensual diario ocasional"`
}

// ValidPlan сообщает, известен ли системе тарифный план.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanMensual, PlanDiario, PlanOcasional:
		return true
	}
	return false
}
