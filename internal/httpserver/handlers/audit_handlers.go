package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"haat/internal/store"
)

// ListAuditLogs returns recent audit rows. Filters: action, user_id (the
// actor), limit, offset.
func ListAuditLogs(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		logs, total, err := d.Store.AuditLogs.List(r.Context(), store.AuditFilter{
			Action: q.Get("action"),
			UserID: q.Get("user_id"),
			Limit:  queryInt(r, "limit"),
			Offset: queryInt(r, "offset"),
		})
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": logs, "count": len(logs), "total": total})
	}
}

func OrderNotifications(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := d.Orders.Notifications(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": events, "count": len(events)})
	}
}
