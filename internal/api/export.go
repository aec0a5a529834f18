package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/starford/wordvault/internal/vault"
)

// ExportMarkdown handles GET /api/export/markdown.
//
//	@Summary		Download the vault as Markdown
//	@Tags			export
//	@Produce		text/markdown
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/markdown [get]
func (h *Handler) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.ExportMarkdown(r.Context())
	if err != nil {
		writeError(w, err, "markdown export failed")
		return
	}
	writeAttachment(w, exp)
}

// ExportXLSX handles GET /api/export/xlsx.
//
//	@Summary		Download the vault as a spreadsheet
//	@Tags			export
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/xlsx [get]
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.ExportXLSX(r.Context())
	if err != nil {
		writeError(w, err, "spreadsheet export failed")
		return
	}
	writeAttachment(w, exp)
}

func writeAttachment(w http.ResponseWriter, exp vault.Export) {
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}
