package httpx

import (
	"net/http"
	"runtime/debug"

	"hqcatalog/internal/logger"
)

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.For(r.Context()).
					WithField("panic", err).
					WithField("stack", string(debug.Stack())).
					Error("panic recovered")

				var wroteHeader bool
				if rw, ok := w.(*responseWriter); ok {
					wroteHeader = rw.wroteHeader()
				}

				if !wroteHeader {
					ErrorPage(w, r, http.StatusInternalServerError, "Ocorreu um erro interno. Tente novamente.")
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
