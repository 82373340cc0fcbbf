// Package subscriptionmanager собирает приложение: хранилище, кэш,
// сервисы и HTTP-сервер с маршрутами.
package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/product/productcreate"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/product/productlist"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/listbyuser"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/pause"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/resume"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	productservice "github.com/magabrotheeeer/subscription-manager/internal/services/product"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.AuthService, subscriptionService *subservice.SubscriptionService, productService *productservice.ProductService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", signup.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/my", listbyuser.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/pause", pause.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/resume", resume.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
			r.Post("/products", productcreate.New(logger, productService).ServeHTTP)
			r.Get("/products", productlist.New(logger, productService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
