package models

import "time"

// Статусы платежа. Сохраняются только платежи со статусом paid;
// pending существует лишь как виртуальная проекция.
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
)

// Payment представляет зафиксированный платёж. Имя и идентификатор
// пользователя денормализованы на момент оплаты: удаление пользователя
// не меняет историю платежей.
type Payment struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Plate    string    `json:"plate"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Amount   int       `json:"amount"`
	Method   string    `json:"method"`
	Notes    string    `json:"notes,omitempty"`
}

// PaymentView — элемент проекции списка платежей: либо сохранённый
// платёж (Status = paid, Payment заполнен), либо виртуальная запись
// о задолженности (Status = pending, заполнены только Plate, UserID,
// UserName и Amount). Проекция никогда не сохраняется.
type PaymentView struct {
	Status  string   `json:"status"`
	Payment *Payment `json:"payment,omitempty"`

	Plate    string `json:"plate"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Amount   int    `json:"amount"`
}

// PaidView оборачивает сохранённый платёж в элемент проекции.
func PaidView(p Payment) PaymentView {
	return PaymentView{
		Status:   PaymentPaid,
		Payment:  &p,
		Plate:    p.Plate,
		UserID:   p.UserID,
		UserName: p.UserName,
		Amount:   p.Amount,
	}
}

// PendingView строит виртуальную запись о задолженности пользователя.
func PendingView(u User, amount int) PaymentView {
	return PaymentView{
		Status:   PaymentPending,
		Plate:    u.Plate,
		UserID:   u.ID,
		UserName: u.Name,
		Amount:   amount,
	}
}

// DummyPayment используется для приёма данных платежа из JSON-запроса.
type DummyPayment struct {
	Plate  string `json:"plate" validate:"required,alphanum"`
	Amount int    `json:"amount" validate:"required,gt=0"`
	Method string `json:"method" validate:"required,oneof=efectivo tarjeta transferencia"`
	Notes  string `json:"notes,omitempty" validate:"omitempty"`
}

// CurrentPayment — данные для предзаполнения формы оплаты после выезда:
// номер, владелец, время на парковке и рассчитанная сумма.
type CurrentPayment struct {
	Plate    string `json:"plate"`
	UserName string `json:"user_name"`
	Plan     string `json:"plan"`
	Hours    int    `json:"hours"`
	Amount   int    `json:"amount"`
}
