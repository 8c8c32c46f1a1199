// Package paymentlist реализует HTTP-обработчик выдачи списка платежей.
// Кроме выполненных оплат список содержит ожидаемые: для владельцев
// без единой оплаты строится виртуальная запись со статусом pending.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	"github.com/magabrotheeeer/parking-manager/internal/services/payment"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListPayments(ctx context.Context, filter string) ([]models.PaymentView, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список платежей
// @Tags Payments
// @Produce  json
// @Param filter query string false "Фильтр: all, paid или pending" default(all)
// @Success 200 {object} response.Response "Выполненные и ожидаемые оплаты"
// @Failure 422 {object} response.ErrorResponse "Неизвестный фильтр"
// @Router /payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = payment.FilterAll
	}
	switch filter {
	case payment.FilterAll, payment.FilterPaid, payment.FilterPending:
	default:
		log.Error("unknown filter", slog.String("filter", filter))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown filter"))
		return
	}

	views, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list payments"))
		return
	}

	log.Info("success to list payments", slog.Int("count", len(views)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payments": views,
	}))
}
