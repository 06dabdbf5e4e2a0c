package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger пишет в лог метод, путь, статус и длительность каждого запроса.
func RequestLogger(logger logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			).Infof("http request")
		})
	}
}
