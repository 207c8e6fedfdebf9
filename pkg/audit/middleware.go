package audit

import (
	"context"
	"net/http"

	"github.com/tendant/simple-admin-auth/pkg/client"
)

// Emitter is the part of Hub used by the middleware
type Emitter interface {
	Emit(ctx context.Context, name string, payload Payload)
}

// Middleware handles HTTP request auditing
type Middleware struct {
	emitter Emitter
}

func NewMiddleware(emitter Emitter) *Middleware {
	return &Middleware{emitter: emitter}
}

// AuditAuthMiddleware emits an admin.request event for each authenticated
// request. Must be used after client.AuthUserMiddleware.
func (m *Middleware) AuditAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := Payload{Metadata: map[string]interface{}{
			"uri":    r.RequestURI,
			"method": r.Method,
		}}

		if authUser, ok := client.GetAuthUser(r); ok {
			payload.Metadata["user_id"] = authUser.ID
		} else {
			payload.Error = "No jwt token"
		}

		m.emitter.Emit(r.Context(), EventRequest, payload)
		next.ServeHTTP(w, r)
	})
}
