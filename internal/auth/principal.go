package auth

import (
	"context"
	"net/http"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCustomer  Role = "customer"
	RoleAnonymous Role = "anonymous"
)

// Principal is the already-resolved caller identity. Credential issuance and
// session validation happen upstream; this service only consumes the result.
type Principal struct {
	ID          string
	Role        Role
	Permissions map[string]bool
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsCustomer() bool {
	return p.Role == RoleCustomer
}

func (p Principal) HasPermission(perm string) bool {
	return p.Permissions[perm]
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(contextKey{}).(Principal); ok {
		return p
	}
	return Anonymous()
}

// Middleware reads the principal the auth layer resolved into request headers
// and puts it on the context. Missing headers mean anonymous.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := Anonymous()

		switch Role(r.Header.Get("X-Principal-Role")) {
		case RoleAdmin:
			p.Role = RoleAdmin
		case RoleCustomer:
			p.Role = RoleCustomer
		}

		if p.Role != RoleAnonymous {
			p.ID = r.Header.Get("X-Principal-Id")
			p.Permissions = parsePermissions(r.Header.Get("X-Principal-Permissions"))
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func parsePermissions(raw string) map[string]bool {
	perms := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(p); t != "" {
			perms[t] = true
		}
	}
	return perms
}
