// Package add реализует HTTP-обработчик добавления парковочной ячейки.
// Новая ячейка создаётся свободной; операции удаления ячеек нет.
package add

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

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	AddCell(ctx context.Context, req models.DummyCell) (*models.Cell, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить парковочную ячейку
// @Tags Cells
// @Accept  json
// @Produce  json
// @Param request body models.DummyCell true "Тип ячейки"
// @Success 200 {object} response.Response "Созданная ячейка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /cells [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cell.add"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCell
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

	cell, err := h.service.AddCell(r.Context(), req)
	if err != nil {
		log.Error("failed to add cell", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add cell"))
		return
	}

	log.Info("success to add cell", slog.String("cell_id", cell.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cell": cell,
	}))
}
