package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"haat/internal/apperr"
	"haat/internal/auth"
	"haat/internal/models"
	"haat/internal/store"
)

func ListUsers(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := d.Store.Users.List(r.Context(), models.Role(r.URL.Query().Get("role")), queryInt(r, "limit"), queryInt(r, "offset"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": users, "count": len(users)})
	}
}

// DisableUser soft-disables an account and ends its sessions. Accounts are
// never physically deleted.
func DisableUser(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := auth.FromContext(r.Context())
		if id == actor.UserID() {
			d.Fail(w, r, apperr.Validation("cannot disable your own account"))
			return
		}
		target, err := d.Store.Users.Get(r.Context(), id)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		if target.Role == models.RoleSuperAdmin && actor.Role() != models.RoleSuperAdmin {
			d.Fail(w, r, apperr.Forbidden("only a super admin can disable a super admin"))
			return
		}
		if err := d.Store.Users.SetActive(r.Context(), id, false); err != nil {
			d.Fail(w, r, err)
			return
		}
		if err := d.Tokens.RevokeAll(r.Context(), id); err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, actor.UserID(), "USER_DISABLE", map[string]any{"user_id": id})
		respondJSON(w, map[string]any{"disabled": true})
	}
}

func SetUserRole(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role models.Role `json:"role"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Store.Users.SetRole(r.Context(), id, req.Role); err != nil {
			d.Fail(w, r, err)
			return
		}
		// Outstanding access tokens carry the old role until they expire; refresh
		// tokens are revoked so the next session picks up the new one.
		if err := d.Tokens.RevokeAll(r.Context(), id); err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, auth.Subject(r.Context()), "USER_ROLE", map[string]any{"user_id": id, "role": req.Role})
		respondJSON(w, map[string]any{"updated": true})
	}
}
