package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fjod/athometyre/internal/content"
	"github.com/fjod/athometyre/internal/i18n"
	"github.com/go-chi/chi/v5"
)

// ContentHandler serves static pages and translation tables.
type ContentHandler struct {
	pages  *content.Pages
	bundle *i18n.Bundle
	log    *slog.Logger
}

func NewContentHandler(pages *content.Pages, bundle *i18n.Bundle, log *slog.Logger) *ContentHandler {
	return &ContentHandler{pages: pages, bundle: bundle, log: log}
}

// GET /api/pages
func (h *ContentHandler) ListPages(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"items": h.pages.List()})
}

// GET /api/pages/{slug}
func (h *ContentHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(chi.URLParam(r, "slug"))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/i18n
func (h *ContentHandler) Languages(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"languages": h.bundle.Languages(),
		"default":   i18n.DefaultLanguage,
	})
}

// GET /api/i18n/{lang}
func (h *ContentHandler) Table(w http.ResponseWriter, r *http.Request) {
	table, err := h.bundle.Table(language(r))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, table)
}

// GET /api/i18n/{lang}/t?key=cart.checkout
func (h *ContentHandler) Translate(w http.ResponseWriter, r *http.Request) {
	lang := language(r)
	tr, err := h.bundle.Translator(lang)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_query", "key is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"language": tr.Language(), "key": key, "value": tr.T(key)})
}

func language(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(chi.URLParam(r, "lang")))
}
