package middleware

import (
	"errors"
	"net/http"
	"vital_geo/model"
	"vital_geo/utils"
)

type ContextKeys string

const (
	UserContext ContextKeys = "userInfo"
)

var errNoUser = errors.New("no user in request context")

func UserContextData(r *http.Request) (*model.User, error) {
	user, ok := r.Context().Value(UserContext).(*model.User)
	if !ok || user == nil {
		return nil, errNoUser
	}
	return user, nil
}

// UserOnly lets customers through and refuses administrators, who use the
// separate admin panel.
func UserOnly(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserContextData(r)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		if user.Role == model.RoleAdmin {
			utils.RespondError(w, http.StatusForbidden, nil, "Admin accounts should use the admin panel")
			return
		}
		handler.ServeHTTP(w, r)
	})
}
