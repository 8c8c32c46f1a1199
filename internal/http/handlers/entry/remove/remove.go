// Package remove реализует HTTP-обработчик удаления записи въезда.
// Ячейка записи освобождается независимо от того, закрыт въезд или нет.
package remove

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
	DeleteEntry(ctx context.Context, id string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить запись въезда
// @Tags Entries
// @Produce  json
// @Param id path string true "Идентификатор записи"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Router /entries/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing entry id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing entry id"))
		return
	}

	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		log.Error("failed to delete entry", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not delete entry"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to delete entry", slog.String("entry_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
