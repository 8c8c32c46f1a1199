// Package parkingmanager предоставляет маршруты для основного приложения.
package parkingmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	celladd "github.com/magabrotheeeer/parking-manager/internal/http/handlers/cell/add"
	celllist "github.com/magabrotheeeer/parking-manager/internal/http/handlers/cell/list"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/entry/active"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/entry/create"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/entry/exit"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/entry/find"
	entryremove "github.com/magabrotheeeer/parking-manager/internal/http/handlers/entry/remove"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/payment/paymentcurrent"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/payment/paymentremove"
	userlist "github.com/magabrotheeeer/parking-manager/internal/http/handlers/user/list"
	userremove "github.com/magabrotheeeer/parking-manager/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/user/upsert"
	"github.com/magabrotheeeer/parking-manager/internal/http/middlewarectx"
	catalogservice "github.com/magabrotheeeer/parking-manager/internal/services/catalog"
	lifecycleservice "github.com/magabrotheeeer/parking-manager/internal/services/lifecycle"
	paymentservice "github.com/magabrotheeeer/parking-manager/internal/services/payment"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	catalogService *catalogservice.CatalogService,
	lifecycleService *lifecycleservice.LifecycleService,
	paymentService *paymentservice.PaymentService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		r.Post("/users", upsert.New(logger, catalogService).ServeHTTP)
		r.Put("/users/{id}", upsert.New(logger, catalogService).ServeHTTP)
		r.Delete("/users/{id}", userremove.New(logger, catalogService).ServeHTTP)
		r.Get("/users", userlist.New(logger, catalogService).ServeHTTP)

		r.Post("/cells", celladd.New(logger, catalogService).ServeHTTP)
		r.Get("/cells", celllist.New(logger, catalogService).ServeHTTP)

		r.Post("/entries", create.New(logger, lifecycleService).ServeHTTP)
		r.Post("/entries/exit", exit.New(logger, lifecycleService).ServeHTTP)
		r.Delete("/entries/{id}", entryremove.New(logger, lifecycleService).ServeHTTP)
		r.Get("/entries/active", active.New(logger, lifecycleService).ServeHTTP)
		r.Get("/entries/active/{plate}", find.New(logger, lifecycleService).ServeHTTP)

		r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
		r.Get("/payments", paymentlist.New(logger, paymentService).ServeHTTP)
		r.Delete("/payments/{id}", paymentremove.New(logger, paymentService).ServeHTTP)
		r.Get("/payments/current", paymentcurrent.New(logger, paymentService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
}
