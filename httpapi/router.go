package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mindmap3d/observability"
	"mindmap3d/pipeline"
)

// NewRouter builds the full HTTP handler: global middleware, health and
// metrics endpoints, and the versioned API routes.
func NewRouter(coordinator *pipeline.Coordinator, collector *observability.Collector, logger *zap.Logger, corsOrigins []string) http.Handler {
	h := NewHandler(coordinator, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", h.Health)
	router.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/vectorize", h.Vectorize)
		r.Get("/texts-by-concept", h.TextsByConcept)
	})

	return router
}

// requestLogger logs one line per request at completion, grounded on chi's
// own middleware.Logger shape but emitting through zap instead of the
// standard library logger.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
