// Package exit реализует HTTP-обработчик регистрации выезда.
// Обработчик закрывает открытый въезд по номеру, освобождает ячейку
// и возвращает рассчитанную стоимость стоянки.
package exit

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

// Handler управляет HTTP-запросами на регистрацию выезда.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики выезда.
type Service interface {
	RegisterExit(ctx context.Context, plate string) (*models.Entry, int, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать выезд автомобиля
// @Tags Entries
// @Accept  json
// @Produce  json
// @Param request body models.DummyExit true "Номер автомобиля"
// @Success 200 {object} response.Response "Закрытая запись въезда и сумма к оплате"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Открытый въезд не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /entries/exit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.exit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyExit
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

	entry, amount, err := h.service.RegisterExit(r.Context(), req.Plate)
	if err != nil {
		log.Error("failed to register exit", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not register exit"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to register exit",
		slog.String("entry_id", entry.ID),
		slog.Int("amount", amount))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entry":  entry,
		"amount": amount,
	}))
}
