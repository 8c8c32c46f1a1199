// Package paymentremove реализует HTTP-обработчик удаления записи оплаты.
package paymentremove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	DeletePayment(ctx context.Context, id string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить запись оплаты
// @Tags Payments
// @Produce  json
// @Param id path string true "Идентификатор оплаты"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Оплата не найдена"
// @Router /payments/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing payment id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing payment id"))
		return
	}

	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		log.Error("failed to delete payment", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not delete payment"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to delete payment", slog.String("payment_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
