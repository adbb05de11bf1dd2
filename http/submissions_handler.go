package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/listing-bridge/internal/store"
)

type SubmissionsDeps struct {
	Store *store.Store
}

// RegisterSubmissions exposes the audit log for operators. Only mounted when
// a store is configured.
func RegisterSubmissions(r chi.Router, d SubmissionsDeps) {
	r.Get("/submissions", func(w http.ResponseWriter, req *http.Request) {
		limit := 20
		if v := req.URL.Query().Get("limit"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				limit = i
			}
		}
		records, err := d.Store.RecentSubmissions(req.Context(), limit)
		if err != nil {
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "store_error", "detail": err.Error()})
			return
		}
		render.JSON(w, req, map[string]any{"ok": true, "count": len(records), "submissions": records})
	})
}
