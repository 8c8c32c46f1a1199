// Package list реализует HTTP-обработчик выдачи списка парковочных ячеек
// с необязательным фильтром по статусу (available/occupied).
package list

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
	ListCells(ctx context.Context, status string) ([]models.Cell, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список парковочных ячеек
// @Tags Cells
// @Produce  json
// @Param status query string false "Фильтр по статусу: available или occupied"
// @Success 200 {object} response.Response "Список ячеек"
// @Failure 422 {object} response.ErrorResponse "Неизвестный статус"
// @Router /cells [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cell.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := r.URL.Query().Get("status")
	switch status {
	case "", models.CellAvailable, models.CellOccupied:
	default:
		log.Error("unknown status", slog.String("status", status))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown status"))
		return
	}

	cells, err := h.service.ListCells(r.Context(), status)
	if err != nil {
		log.Error("failed to list cells", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list cells"))
		return
	}

	log.Info("success to list cells", slog.Int("count", len(cells)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cells": cells,
	}))
}
