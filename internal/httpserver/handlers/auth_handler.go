package handlers

import (
	"errors"
	"net/http"
	"strings"

	"haat/internal/apperr"
	"haat/internal/auth"
	"haat/internal/models"
	"haat/internal/notify"
	"haat/internal/store"
)

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

type sessionRes struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user,omitempty"`
}

// Register creates a customer account and signs it in. Roles other than
// customer are granted by a super admin.
func Register(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		req.Email = store.NormalizeEmail(req.Email)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			d.Fail(w, r, apperr.Validation("valid email required"))
			return
		}
		hash, err := d.Hasher.Hash(req.Password)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		lang := req.Language
		if lang == "" {
			lang = r.Header.Get("Accept-Language")
		}
		u := models.User{
			Email:        req.Email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(req.Name),
			Phone:        strings.TrimSpace(req.Phone),
			Role:         models.RoleCustomer,
			IsActive:     true,
			Language:     notify.ResolveLanguage(lang),
		}
		if err := d.Store.Users.Create(r.Context(), &u); err != nil {
			d.Fail(w, r, err)
			return
		}
		pair, err := d.Tokens.IssuePair(r.Context(), &u, r.UserAgent())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		d.Lg.Infow("user registered", "user", u.ID)
		d.setSessionCookies(w, pair)
		respondStatus(w, http.StatusCreated, sessionRes{Token: pair.AccessToken, RefreshToken: pair.RefreshToken, User: &u})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		u, err := d.Store.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				d.Fail(w, r, err)
				return
			}
			d.Hasher.VerifyMissing(req.Password)
			d.Fail(w, r, apperr.Unauthorized("invalid credentials"))
			return
		}
		if !d.Hasher.Verify(req.Password, u.PasswordHash) || !u.IsActive {
			d.Fail(w, r, apperr.Unauthorized("invalid credentials"))
			return
		}
		pair, err := d.Tokens.IssuePair(r.Context(), u, r.UserAgent())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		d.Lg.Infow("user logged in", "user", u.ID, "role", u.Role)
		d.setSessionCookies(w, pair)
		respondJSON(w, sessionRes{Token: pair.AccessToken, RefreshToken: pair.RefreshToken, User: u})
	}
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshToken reads the refresh token from the JSON body, falling back to
// the refresh cookie.
func (d *Deps) refreshToken(w http.ResponseWriter, r *http.Request) string {
	var req refreshReq
	if r.ContentLength != 0 {
		_ = decodeJSON(w, r, &req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if c, err := r.Cookie(d.Cookies.Refresh); err == nil {
		return c.Value
	}
	return ""
}

func Refresh(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := d.refreshToken(w, r)
		if raw == "" {
			d.Fail(w, r, apperr.Unauthorized("missing refresh token"))
			return
		}
		pair, err := d.Tokens.Rotate(r.Context(), raw, r.UserAgent())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		d.setSessionCookies(w, pair)
		respondJSON(w, sessionRes{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
	}
}

func Logout(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := d.refreshToken(w, r); raw != "" {
			if err := d.Tokens.Revoke(r.Context(), raw); err != nil {
				d.Fail(w, r, err)
				return
			}
		}
		d.clearSessionCookies(w)
		respondJSON(w, map[string]any{"ok": true})
	}
}

func Me(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := d.Store.Users.Get(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, u)
	}
}

func UpdateMe(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      *string `json:"name"`
			Phone     *string `json:"phone"`
			Language  *string `json:"language"`
			PushToken *string `json:"push_token"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		upd := store.ProfileUpdate{Name: req.Name, Phone: req.Phone, PushToken: req.PushToken}
		if req.Language != nil {
			lang := notify.ResolveLanguage(*req.Language)
			upd.Language = &lang
		}
		u, err := d.Store.Users.UpdateProfile(r.Context(), auth.Subject(r.Context()), upd)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, u)
	}
}

// ChangePassword replaces the caller's password and ends all their sessions.
func ChangePassword(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current_password"`
			New     string `json:"new_password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		uid := auth.Subject(r.Context())
		u, err := d.Store.Users.Get(r.Context(), uid)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		if !d.Hasher.Verify(req.Current, u.PasswordHash) {
			d.Fail(w, r, apperr.Forbidden("current password is incorrect"))
			return
		}
		hash, err := d.Hasher.Hash(req.New)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		if err := d.Store.Users.SetPasswordHash(r.Context(), uid, hash); err != nil {
			d.Fail(w, r, err)
			return
		}
		if err := d.Tokens.RevokeAll(r.Context(), uid); err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, uid, "PASSWORD_CHANGE", map[string]any{})
		d.clearSessionCookies(w)
		respondJSON(w, map[string]any{"updated": true})
	}
}
