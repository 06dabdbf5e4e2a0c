package http

import (
	"context"
	"net/http"
	"time"

	_ "github.com/DRSN-tech/ordering-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/ordering-backend/internal/cfg"
	"github.com/DRSN-tech/ordering-backend/internal/metrics"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// HealthCheck проверяет зависимости сервиса. nil: сервис готов.
type HealthCheck func(ctx context.Context) error

type Router struct {
	router  *chi.Mux
	cfg     *cfg.HTTPConfig
	metrics *metrics.Metrics
	logger  logger.Logger
}

func NewRouter(router *chi.Mux, cfg *cfg.HTTPConfig, metrics *metrics.Metrics, logger logger.Logger) *Router {
	return &Router{router: router, cfg: cfg, metrics: metrics, logger: logger}
}

func (r *Router) Init(
	catUC usecase.CategoryUC,
	prUC usecase.ProductUC,
	ordUC usecase.OrderUC,
	exec *Executor,
	health HealthCheck,
) {
	r.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(r.logger.Named("http")),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: r.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}),
		r.metrics.Middleware,
	)

	r.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusNotFound, NewErrorResponse(e.ErrRouteNotFound.Error()))
	})
	r.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, NewErrorResponse(http.StatusText(http.StatusMethodNotAllowed)))
	})

	r.router.Get("/health", healthHandler(health))
	r.router.Handle("/metrics", r.metrics.Handler())

	if r.cfg.EnableSwaggerUI {
		r.router.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
		))
	}

	r.router.Route("/api/v1", func(v1 chi.Router) {
		catHandler := NewCategoryHandler(catUC, exec, r.logger)
		prHandler := NewProductHandler(prUC, exec, r.logger)
		ordHandler := NewOrderHandler(ordUC, exec, r.logger)

		registerCategoryRoutes(v1, catHandler)
		registerProductRoutes(v1, prHandler)
		registerOrderRoutes(v1, ordHandler)
	})
}

func registerCategoryRoutes(router chi.Router, h *CategoryHandler) {
	// меню: та же выдача категорий с продуктами
	router.Get("/menu", h.list)

	router.Route("/categories", func(c chi.Router) {
		c.Get("/", h.list)
		c.Post("/", h.create)
		c.Get("/{id}", h.get)
		c.Put("/{id}", h.update)
		c.Delete("/{id}", h.delete)
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.list)
		pr.Post("/", h.create)
		pr.Get("/{id}", h.get)
		pr.Put("/{id}", h.update)
		pr.Delete("/{id}", h.delete)
	})
}

func registerOrderRoutes(router chi.Router, h *OrderHandler) {
	router.Route("/orders", func(o chi.Router) {
		o.Get("/", h.list)
		o.Post("/", h.create)
		o.Get("/{id}", h.get)
		o.Put("/{id}", h.updateStatus)
	})
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := check(ctx); err != nil {
				WriteJSON(w, http.StatusServiceUnavailable, NewErrorResponse(err.Error()))
				return
			}
		}

		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
