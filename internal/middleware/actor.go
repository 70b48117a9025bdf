package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// actorKey is the context key for the authenticated actor's ID.
// A private type prevents collisions with other packages' context values.
type actorKey struct{}

// NewActorID returns a middleware that extracts the caller's identity from
// the X-Actor-ID header and stores it on the request context. Requests
// without a valid UUID are rejected with 401.
//
// Real authentication (sessions, tokens) lives outside this service; the
// header is the trusted boundary contract with the gateway in front of it.
func NewActorID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"data": nil,
					"error": map[string]string{
						"code":    "unauthorized",
						"message": "missing or invalid X-Actor-ID header",
					},
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, id)))
		})
	}
}

// ActorID returns the actor stored by NewActorID, or uuid.Nil when the
// middleware did not run for this request.
func ActorID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(actorKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
