package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/listing-bridge/http"
)

func BuildRouter(deps httpapi.WebhookDeps, submissions httpapi.SubmissionsDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(httprate.LimitByIP(100, 1*time.Minute)) // protect CRM quota
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	httpapi.RegisterWebhook(r, deps)
	if submissions.Store != nil {
		httpapi.RegisterSubmissions(r, submissions)
	}

	return r
}
