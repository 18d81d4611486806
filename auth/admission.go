package auth

import "vital_geo/model"

// Admit is the session admission policy applied at every point a user
// enters the client (cache, status check, login, signup). Administrators
// are never admitted: the storefront is for customers only.
func Admit(user *model.User) *model.User {
	if user == nil || user.Role == model.RoleAdmin {
		return nil
	}
	admitted := *user
	return &admitted
}
