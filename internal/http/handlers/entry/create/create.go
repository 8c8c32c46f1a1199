// Package create реализует HTTP-обработчик регистрации въезда.
// Запрос принимается, только если владелец номера зарегистрирован,
// по номеру нет открытого въезда, а указанная ячейка свободна.
package create

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

// Handler управляет HTTP-запросами на регистрацию въезда.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики въезда.
type Service interface {
	RegisterEntry(ctx context.Context, req models.DummyEntry) (*models.Entry, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать въезд автомобиля
// @Tags Entries
// @Accept  json
// @Produce  json
// @Param request body models.DummyEntry true "Номер автомобиля и ячейка"
// @Success 200 {object} response.Response "Созданная запись въезда"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Владелец номера не зарегистрирован"
// @Failure 409 {object} response.ErrorResponse "Открытый въезд уже существует или ячейка занята"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /entries [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEntry
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

	entry, err := h.service.RegisterEntry(r.Context(), req)
	if err != nil {
		log.Error("failed to register entry", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not register entry"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to register entry",
		slog.String("entry_id", entry.ID),
		slog.String("plate", entry.Plate))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entry": entry,
	}))
}
