package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/wordservice"
)

// Handler holds the vault route handlers.
type Handler struct {
	svc *wordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *wordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// SaveCard handles POST /api/cards.
//
//	@Summary		Save a word card
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveCardRequest	true	"Card to save"
//	@Success		201		{object}	SaveResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [post]
func (h *Handler) SaveCard(w http.ResponseWriter, r *http.Request) {
	var req SaveCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.svc.Save(r.Context(), req)
	if err != nil {
		writeError(w, err, "save card failed")
		return
	}
	writeJSON(w, http.StatusCreated, SaveResponse{Outcome: out})
}

// ListCards handles GET /api/cards.
//
//	@Summary		List word cards, newest first
//	@Tags			cards
//	@Produce		json
//	@Success		200	{object}	CardListResponse
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err, "list cards failed")
		return
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards, Total: len(cards)})
}

// ClearCards handles DELETE /api/cards?confirm=true.
//
//	@Summary		Clear every card
//	@Tags			cards
//	@Produce		json
//	@Param			confirm	query		bool	true	"Must be true to clear"
//	@Success		200		{object}	ClearResponse
//	@Security		BearerAuth
//	@Router			/cards [delete]
func (h *Handler) ClearCards(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	cleared, err := h.svc.Clear(r.Context(), func(string) bool { return confirmed })
	if err != nil {
		writeError(w, err, "clear cards failed")
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{Cleared: cleared})
}

// RenderVault handles GET /api/vault and returns the list as HTML.
//
//	@Summary		Render the vault list
//	@Tags			cards
//	@Produce		html
//	@Success		200
//	@Security		BearerAuth
//	@Router			/vault [get]
func (h *Handler) RenderVault(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.Render(r.Context())
	if err != nil {
		writeError(w, err, "render vault failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across cards
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q parameter is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Define handles GET /api/define.
//
//	@Summary		Look up a baseline definition
//	@Tags			dictionary
//	@Produce		json
//	@Param			word	query		string	true	"Word to define"
//	@Success		200		{object}	DefineResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/define [get]
func (h *Handler) Define(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	res, err := h.svc.Define(r.Context(), word)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorBody("word parameter is required"))
			return
		}
		slog.Warn("define failed", slog.String("word", word), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("Could not fetch definition"))
		return
	}
	writeJSON(w, http.StatusOK, DefineResponse{
		Word:         word,
		Status:       res.Status.String(),
		Definition:   res.Definition,
		PartOfSpeech: res.PartOfSpeech,
	})
}

// GetRemote handles GET /api/settings/remote.
//
//	@Summary		Show the remote delivery endpoint
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	RemoteSettings
//	@Security		BearerAuth
//	@Router			/settings/remote [get]
func (h *Handler) GetRemote(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.RemoteEndpoint(r.Context())
	if err != nil {
		writeError(w, err, "read remote endpoint failed")
		return
	}
	writeJSON(w, http.StatusOK, RemoteSettings{URL: url, Enabled: url != ""})
}

// PutRemote handles PUT /api/settings/remote.
//
//	@Summary		Set the remote delivery endpoint
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RemoteSettings	true	"Endpoint"
//	@Success		200		{object}	RemoteSettings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/remote [put]
func (h *Handler) PutRemote(w http.ResponseWriter, r *http.Request) {
	var req RemoteSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetRemoteEndpoint(r.Context(), req.URL); err != nil {
		writeError(w, err, "set remote endpoint failed")
		return
	}
	h.GetRemote(w, r)
}

// DeleteRemote handles DELETE /api/settings/remote.
//
//	@Summary		Disable remote delivery
//	@Tags			settings
//	@Success		204
//	@Security		BearerAuth
//	@Router			/settings/remote [delete]
func (h *Handler) DeleteRemote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SetRemoteEndpoint(r.Context(), ""); err != nil {
		writeError(w, err, "clear remote endpoint failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
