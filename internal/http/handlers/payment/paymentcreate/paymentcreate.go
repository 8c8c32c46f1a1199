// Package paymentcreate реализует HTTP-обработчик регистрации оплаты.
// Платёж привязывается к зарегистрированному владельцу номера; имя и
// идентификатор владельца денормализуются в запись платежа.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Handler управляет HTTP-запросами на регистрацию оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики платежей.
type Service interface {
	RecordPayment(ctx context.Context, req models.DummyPayment) (*models.Payment, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать оплату
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.DummyPayment true "Номер, сумма и способ оплаты"
// @Success 200 {object} response.Response "Созданная запись оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Владелец номера не зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), req)
	if err != nil {
		log.Error("failed to record payment", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not record payment"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to record payment",
		slog.String("payment_id", payment.ID),
		slog.Int("amount", payment.Amount))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": payment,
	}))
}
