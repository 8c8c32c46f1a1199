// Package paymentcurrent реализует HTTP-обработчик расчёта текущей оплаты.
// Номер автомобиля передаётся через одноразовый ключ в Redis при выезде;
// первый запрос потребляет ключ и возвращает расчёт, повторный — 404.
package paymentcurrent

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CurrentPayment(ctx context.Context) (*models.CurrentPayment, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Расчёт оплаты для последнего выехавшего автомобиля
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response "Расчёт стоимости стоянки"
// @Failure 404 {object} response.ErrorResponse "Нет ожидающего расчёта"
// @Router /payments/current [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.current"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	current, err := h.service.CurrentPayment(r.Context())
	if err != nil {
		log.Error("failed to compute current payment", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not compute current payment"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to compute current payment", slog.String("plate", current.Plate))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"current": current,
	}))
}
