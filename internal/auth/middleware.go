package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"haat/internal/apperr"
	"haat/internal/models"
)

// Role sets used by the router.
var (
	Staff          = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
	CatalogEditors = []models.Role{models.RoleArtisan, models.RoleAdmin, models.RoleSuperAdmin}
	SuperAdmins    = []models.Role{models.RoleSuperAdmin}
)

// ErrorWriter renders an error response; the router supplies the JSON one.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Authenticator struct {
	tokens     *TokenService
	cookieName string
	writeError ErrorWriter
	lg         *zap.SugaredLogger
}

func NewAuthenticator(tokens *TokenService, cookieName string, writeError ErrorWriter, lg *zap.SugaredLogger) *Authenticator {
	return &Authenticator{tokens: tokens, cookieName: cookieName, writeError: writeError, lg: lg}
}

// BearerToken extracts the access token from the Authorization header,
// falling back to the named cookie.
func BearerToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authorize resolves the caller. With no roles any valid token passes;
// otherwise the caller's role must be one of roles.
func (a *Authenticator) Authorize(r *http.Request, roles ...models.Role) (Identity, error) {
	raw := BearerToken(r, a.cookieName)
	if raw == "" {
		return Identity{}, apperr.Unauthorized("missing bearer token")
	}
	id, err := a.tokens.VerifyAccessToken(raw)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindTokenExpired {
			return Identity{}, apperr.Wrap(apperr.KindUnauthorized, err, "token expired")
		}
		return Identity{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}
	if len(roles) > 0 && !id.HasRole(roles...) {
		return Identity{}, apperr.Forbidden("role %s may not access this resource", id.Role())
	}
	return id, nil
}

func (a *Authenticator) guard(roles []models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authorize(r, roles...)
			if err != nil {
				a.lg.Debugw("request rejected", "path", r.URL.Path, "error", err)
				a.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

func (a *Authenticator) RequireAuthenticated() func(http.Handler) http.Handler {
	return a.guard(nil)
}

func (a *Authenticator) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	if len(roles) == 0 {
		panic("auth: RequireRole needs at least one role")
	}
	return a.guard(roles)
}
