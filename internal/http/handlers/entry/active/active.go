// Package active реализует HTTP-обработчик выдачи списка открытых въездов —
// автомобилей, находящихся на парковке в данный момент.
package active

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
	ListActiveEntries(ctx context.Context) ([]models.Entry, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список открытых въездов
// @Tags Entries
// @Produce  json
// @Success 200 {object} response.Response "Записи без времени выезда"
// @Router /entries/active [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.active"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	entries, err := h.service.ListActiveEntries(r.Context())
	if err != nil {
		log.Error("failed to list active entries", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list active entries"))
		return
	}

	log.Info("success to list active entries", slog.Int("count", len(entries)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entries": entries,
	}))
}
