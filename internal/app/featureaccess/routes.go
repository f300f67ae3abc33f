// Package featureaccess предоставляет маршруты для основного приложения.
package featureaccess

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/feature-access/internal/http/handlers/access/resolve"
	"github.com/magabrotheeeer/feature-access/internal/http/handlers/health"
	"github.com/magabrotheeeer/feature-access/internal/http/handlers/request/approve"
	"github.com/magabrotheeeer/feature-access/internal/http/handlers/request/listpending"
	"github.com/magabrotheeeer/feature-access/internal/http/handlers/request/reject"
	"github.com/magabrotheeeer/feature-access/internal/http/handlers/request/submit"
	"github.com/magabrotheeeer/feature-access/internal/http/middlewarectx"
	jwtlib "github.com/magabrotheeeer/feature-access/internal/lib/jwt"
	"github.com/magabrotheeeer/feature-access/internal/models"
	accessservice "github.com/magabrotheeeer/feature-access/internal/services/access"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
	"github.com/magabrotheeeer/feature-access/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, accessService *accessservice.AccessService, requestService *requestservice.Service, jwtMaker jwtlib.Maker, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытая конечная точка: без токена роль разрешается в free
		r.Get("/access", resolve.New(logger, accessService, jwtMaker).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/requests", submit.New(logger, requestService).ServeHTTP)

			// Админская группа: эффективная роль не ниже admin
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoleMiddleware(logger, accessService, models.RoleAdmin))
				r.Get("/requests/pending", listpending.New(logger, requestService).ServeHTTP)
				r.Post("/requests/{id}/approve", approve.New(logger, requestService).ServeHTTP)
				r.Post("/requests/{id}/reject", reject.New(logger, requestService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
