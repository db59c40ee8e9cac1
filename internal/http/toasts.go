package http

import (
	"net/http"
	"time"

	"hqcatalog/internal/logger"
	"hqcatalog/internal/notify"
)

const flashCookie = "hq_flash"

// ToastMiddleware gives each request its own toast queue, seeded with the
// toasts carried over from a redirect.
func ToastMiddleware(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := notify.NewQueue(ttl)
			if c, err := r.Cookie(flashCookie); err == nil {
				if err := notify.DecodeFlash(c.Value, q); err != nil {
					logger.For(r.Context()).WithError(err).Warn("discarding malformed flash cookie")
				}
				clearFlash(w)
			}
			next.ServeHTTP(w, r.WithContext(notify.WithQueue(r.Context(), q)))
		})
	}
}

// keepToasts moves the pending toasts into the flash cookie so the next page
// shows them.
func keepToasts(w http.ResponseWriter, r *http.Request) {
	q := notify.QueueFrom(r.Context())
	if q == nil || q.Len() == 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    notify.EncodeFlash(q.Drain()),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearFlash(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// redirect answers a form post with 303 See Other, keeping pending toasts.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	keepToasts(w, r)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pendingToasts drains the request's toasts for rendering.
func pendingToasts(r *http.Request) []notify.Toast {
	q := notify.QueueFrom(r.Context())
	if q == nil {
		return nil
	}
	return q.Drain()
}
