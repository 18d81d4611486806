package middleware

import (
	"context"
	"net/http"
	"vital_geo/model"
	"vital_geo/utils"
)

// SessionSource reports the active storefront user, nil when signed out.
type SessionSource interface {
	User() *model.User
}

// RequireSession answers 401 when no user is signed in and otherwise puts
// the user in the request context.
func RequireSession(sessions SessionSource) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := sessions.User()
			if user == nil {
				utils.RespondError(w, http.StatusUnauthorized, nil, "Please sign in to continue")
				return
			}
			ctx := context.WithValue(r.Context(), UserContext, user)
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
