package api

import (
	"net"
	"net/http"
	"strings"

	"routeframe/internal/auth"
)

// principal resolves the caller. A verified bearer token wins; otherwise the
// X-Tenant-Id and X-Role headers are trusted in dev mode only.
func (s *Server) principal(r *http.Request) (auth.Principal, bool) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		if pr, err := s.Auth.Verify(tok); err == nil {
			return pr, true
		}
		return auth.Principal{}, false
	}
	if s.Auth != nil && s.Auth.Mode != "dev" {
		return auth.Principal{}, false
	}
	tenant := r.Header.Get("X-Tenant-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	role := strings.ToLower(r.Header.Get("X-Role"))
	if role == "" {
		role = "user"
	}
	return auth.Principal{Tenant: tenant, Role: role}, true
}

// requirePrincipal writes 401 and returns false when the caller cannot be
// resolved.
func (s *Server) requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	pr, ok := s.principal(r)
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid credentials", r.URL.Path)
		return auth.Principal{}, false
	}
	return pr, true
}

// requireAdmin writes 401/403 and returns false unless the caller is an admin.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	pr, ok := s.requirePrincipal(w, r)
	if !ok {
		return auth.Principal{}, false
	}
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin role required", r.URL.Path)
		return auth.Principal{}, false
	}
	return pr, true
}

func clientKey(r *http.Request, pr auth.Principal, ok bool) string {
	if ok && r.Header.Get("Authorization") != "" {
		return "tenant:" + pr.Tenant
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
