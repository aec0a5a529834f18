package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordvault/internal/capture"
	"github.com/starford/wordvault/internal/form"
	"github.com/starford/wordvault/internal/wordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *wordservice.Service, trigger *capture.Trigger, forms *form.Registry, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ch := NewCaptureHandler(trigger, forms)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Capture trigger.
	r.Post("/capture/command", ch.Command)
	r.Post("/capture/menu", ch.Menu)

	// Entry form sessions.
	r.Post("/sessions", ch.OpenSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", ch.GetSession)
		r.Patch("/", ch.EditSession)
		r.Delete("/", ch.CloseSession)
		r.Post("/define", ch.DefineSession)
		r.Post("/submit", ch.SubmitSession)
	})

	// Cards and vault view.
	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.SaveCard)
	r.Delete("/cards", h.ClearCards)
	r.Get("/vault", h.RenderVault)

	// Export.
	r.Get("/export/markdown", h.ExportMarkdown)
	r.Get("/export/xlsx", h.ExportXLSX)

	// Search and dictionary.
	r.Get("/search", h.Search)
	r.Get("/define", h.Define)

	// Settings.
	r.Get("/settings/remote", h.GetRemote)
	r.Put("/settings/remote", h.PutRemote)
	r.Delete("/settings/remote", h.DeleteRemote)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
