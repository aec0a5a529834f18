package api

import (
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/form"
	"github.com/starford/wordvault/internal/handoff"
	"github.com/starford/wordvault/internal/index"
	"github.com/starford/wordvault/internal/models"
)

// CommandCaptureRequest is sent when the keyboard shortcut fires.
type CommandCaptureRequest struct {
	Selection string `json:"selection" example:"serendipity"`
	URL       string `json:"url" example:"https://example.com/article"`
}

// MenuCaptureRequest is sent when the context-menu entry is clicked.
type MenuCaptureRequest struct {
	SelectionText string `json:"selectionText" example:"serendipity"`
	PageURL       string `json:"pageUrl" example:"https://example.com/article"`
}

// CaptureResponse describes the window the client should open.
type CaptureResponse struct {
	Window handoff.Window `json:"window" validate:"required"`
}

// OpenSessionRequest carries the live selection of the active tab, used
// when no capture is pending.
type OpenSessionRequest struct {
	Selection string `json:"selection"`
	URL       string `json:"url"`
}

// SessionView is the state of one entry form.
type SessionView = form.View

// EditSessionRequest updates form fields. Omitted fields are unchanged.
type EditSessionRequest = form.Edit

// SaveCardRequest saves a card directly, bypassing the form.
type SaveCardRequest = models.WordCard

// SaveResponse reports where a card went.
type SaveResponse struct {
	Outcome cardstore.Outcome `json:"outcome" example:"local" validate:"required"`
}

// CardListResponse wraps the stored cards, newest first.
type CardListResponse struct {
	Cards []models.WordCard `json:"cards" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// DefineResponse is the baseline meaning of a word.
type DefineResponse struct {
	Word         string `json:"word" example:"serendipity"`
	Status       string `json:"status" example:"found" validate:"required"`
	Definition   string `json:"definition,omitempty"`
	PartOfSpeech string `json:"partOfSpeech,omitempty" example:"noun"`
}

// RemoteSettings is the remote delivery configuration.
type RemoteSettings struct {
	URL     string `json:"url" example:"https://script.google.com/macros/s/.../exec"`
	Enabled bool   `json:"enabled"`
}

// ClearResponse reports whether the vault was cleared.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}
