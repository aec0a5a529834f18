package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/capture"
	"github.com/starford/wordvault/internal/form"
	"github.com/starford/wordvault/internal/handoff"
)

// CaptureHandler serves the capture trigger and the entry form sessions.
type CaptureHandler struct {
	trigger *capture.Trigger
	forms   *form.Registry
}

// NewCaptureHandler creates a capture handler.
func NewCaptureHandler(trigger *capture.Trigger, forms *form.Registry) *CaptureHandler {
	return &CaptureHandler{trigger: trigger, forms: forms}
}

// Command handles POST /api/capture/command.
//
//	@Summary		Capture the active tab's selection (keyboard shortcut)
//	@Tags			capture
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CommandCaptureRequest	true	"Selection"
//	@Success		202		{object}	CaptureResponse
//	@Success		204
//	@Security		BearerAuth
//	@Router			/capture/command [post]
func (h *CaptureHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req CommandCaptureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tab := capture.StaticSelection{Text: req.Selection, PageURL: req.URL}
	win, ok, err := h.trigger.OnCommand(r.Context(), tab)
	h.respondCapture(w, win, ok, err)
}

// Menu handles POST /api/capture/menu.
//
//	@Summary		Capture the selection of a context-menu click
//	@Tags			capture
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MenuCaptureRequest	true	"Click payload"
//	@Success		202		{object}	CaptureResponse
//	@Success		204
//	@Security		BearerAuth
//	@Router			/capture/menu [post]
func (h *CaptureHandler) Menu(w http.ResponseWriter, r *http.Request) {
	var req MenuCaptureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	click := capture.MenuClick{SelectionText: req.SelectionText, PageURL: req.PageURL}
	win, ok, err := h.trigger.OnContextMenu(r.Context(), click)
	h.respondCapture(w, win, ok, err)
}

func (h *CaptureHandler) respondCapture(w http.ResponseWriter, win handoff.Window, ok bool, err error) {
	if err != nil {
		slog.Error("capture failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, CaptureResponse{Window: win})
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open an entry form
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	false	"Live selection of the active tab"
//	@Success		201		{object}	SessionView
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *CaptureHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tab := capture.StaticSelection{Text: req.Selection, PageURL: req.URL}
	s, err := h.forms.Open(r.Context(), tab)
	if err != nil {
		writeError(w, err, "open session failed")
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get the state of an entry form
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *CaptureHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// EditSession handles PATCH /api/sessions/{id}.
//
//	@Summary		Edit entry form fields
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session id"
//	@Param			body	body		EditSessionRequest	true	"Changed fields"
//	@Success		200		{object}	SessionView
//	@Failure		404		{object}	errResponse
//	@Failure		410		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [patch]
func (h *CaptureHandler) EditSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req EditSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Apply(req); err != nil {
		writeError(w, err, "edit session failed")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DefineSession handles POST /api/sessions/{id}/define.
//
//	@Summary		Fetch a definition for the form's word
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionView
//	@Security		BearerAuth
//	@Router			/sessions/{id}/define [post]
func (h *CaptureHandler) DefineSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.FetchDefinition(r.Context())
	writeJSON(w, http.StatusOK, s.View())
}

// SubmitSession handles POST /api/sessions/{id}/submit.
//
//	@Summary		Save the form as a word card
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionView
//	@Failure		400	{object}	SessionView
//	@Failure		409	{object}	errResponse
//	@Failure		500	{object}	SessionView
//	@Security		BearerAuth
//	@Router			/sessions/{id}/submit [post]
func (h *CaptureHandler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	err := s.Submit(r.Context())
	switch {
	case err == nil:
		view := s.View()
		if view.Closed {
			_ = h.forms.Close(s.ID())
		}
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, s.View())
	case errors.Is(err, apperr.ErrSubmitInFlight), errors.Is(err, apperr.ErrSessionClosed):
		writeError(w, err, "submit failed")
	default:
		writeJSON(w, http.StatusInternalServerError, s.View())
	}
}

// CloseSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Close an entry form
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *CaptureHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "close session failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CaptureHandler) session(w http.ResponseWriter, r *http.Request) (*form.Session, bool) {
	s, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get session failed")
		return nil, false
	}
	return s, true
}
