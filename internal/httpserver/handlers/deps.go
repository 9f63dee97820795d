package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"haat/internal/auth"
	"haat/internal/orders"
	"haat/internal/store"
)

// Deps carries the services every handler constructor may need. It is built
// once by the router.
type Deps struct {
	Store   *store.Store
	Orders  *orders.Manager
	Tokens  *auth.TokenService
	Hasher  auth.Hasher
	Cookies Cookies
	Lg      *zap.SugaredLogger
}

type Cookies struct {
	Access  string
	Refresh string
	Secure  bool
}

func (d *Deps) Fail(w http.ResponseWriter, r *http.Request, err error) {
	ErrorWriter(d.Lg)(w, r, err)
}

func (d *Deps) setSessionCookies(w http.ResponseWriter, pair auth.Pair) {
	http.SetCookie(w, &http.Cookie{
		Name: d.Cookies.Access, Value: pair.AccessToken, Path: "/",
		MaxAge: int(d.Tokens.AccessTTL() / time.Second), HttpOnly: true,
		Secure: d.Cookies.Secure, SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: d.Cookies.Refresh, Value: pair.RefreshToken, Path: "/auth",
		MaxAge: int(d.Tokens.RefreshTTL() / time.Second), HttpOnly: true,
		Secure: d.Cookies.Secure, SameSite: http.SameSiteStrictMode,
	})
}

func (d *Deps) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: d.Cookies.Access, Path: "/", MaxAge: -1, HttpOnly: true, Secure: d.Cookies.Secure})
	http.SetCookie(w, &http.Cookie{Name: d.Cookies.Refresh, Path: "/auth", MaxAge: -1, HttpOnly: true, Secure: d.Cookies.Secure})
}
