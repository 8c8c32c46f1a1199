// Package find реализует HTTP-обработчик поиска автомобиля на парковке:
// по номеру возвращаются открытый въезд, занятая ячейка и владелец.
package find

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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
	LookupVehicle(ctx context.Context, plate string) (*models.VehicleInfo, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Найти автомобиль на парковке по номеру
// @Tags Entries
// @Produce  json
// @Param plate path string true "Номер автомобиля"
// @Success 200 {object} response.Response "Открытый въезд, ячейка и владелец"
// @Failure 404 {object} response.ErrorResponse "Открытый въезд не найден"
// @Router /entries/active/{plate} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.find"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		log.Error("missing plate")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing plate"))
		return
	}

	info, err := h.service.LookupVehicle(r.Context(), plate)
	if err != nil {
		log.Error("failed to lookup vehicle", sl.Err(err))
		code := response.StatusCode(err)
		w.WriteHeader(code)
		if code == http.StatusInternalServerError {
			render.JSON(w, r, response.Error("could not lookup vehicle"))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to lookup vehicle", slog.String("plate", plate))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"vehicle": info,
	}))
}
