// internal/session/guard.go
package session

import "net/url"

// Decision is the outcome of a route guard check
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// RequireAuth allows signed-in users only. Anonymous visitors are redirected
// to the login view with the original URL preserved for the return trip.
func RequireAuth(s *Store, returnURL string) Decision {
	if s.Current() != nil {
		return Decision{Allowed: true}
	}
	redirect := "/login"
	if returnURL != "" {
		redirect += "?returnUrl=" + url.QueryEscape(returnURL)
	}
	return Decision{RedirectTo: redirect}
}

// RequireGuest allows anonymous visitors only, sending signed-in users home
func RequireGuest(s *Store) Decision {
	if s.Current() == nil {
		return Decision{Allowed: true}
	}
	return Decision{RedirectTo: "/"}
}

// RequireAdmin allows admin users only. Non-admins go home, anonymous
// visitors go to login.
func RequireAdmin(s *Store, returnURL string) Decision {
	user := s.Current()
	if user == nil {
		return RequireAuth(s, returnURL)
	}
	if !user.IsAdmin() {
		return Decision{RedirectTo: "/"}
	}
	return Decision{Allowed: true}
}
