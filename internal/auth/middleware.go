package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/social-feed/internal/session"
)

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const controllerKey contextKey = "authController"

// WithController returns a copy of ctx carrying c.
func WithController(ctx context.Context, c *Controller) context.Context {
	return context.WithValue(ctx, controllerKey, c)
}

// FromContext returns the controller stored by WithController.
func FromContext(ctx context.Context) (*Controller, bool) {
	c, ok := ctx.Value(controllerKey).(*Controller)
	return c, ok && c != nil
}

// Session builds a Controller for every request, bound to that request's
// cookies, restores it and stores it in the request context. Storage is
// expected to be initialized and seeded already.
//
// A storage failure during restore leaves the request anonymous; the handler
// will surface the storage error on its own first call.
func Session(store Store, opts []session.Option, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookies := session.New(session.NewHTTPJar(w, r), opts...)
			c := NewController(store, cookies, logger)

			if err := c.Restore(r.Context()); err != nil {
				logger.Warn("session restore failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}

			next.ServeHTTP(w, r.WithContext(WithController(r.Context(), c)))
		})
	}
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		if !ok || !c.SignedIn() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized","message":"sign in required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
