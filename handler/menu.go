package handler

import (
	"net/http"

	"food-webapp/lang"
	"food-webapp/models"
	"food-webapp/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MenuHandler serves the catalog the page renders.
type MenuHandler struct {
	menu services.Menu
	lang string
	log  *zap.Logger
}

func NewMenuHandler(menu services.Menu, langCode string, log *zap.Logger) *MenuHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MenuHandler{menu: menu, lang: langCode, log: log}
}

// RegisterRoutes mounts GET / under /api/menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List returns menu items, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && category != models.CategoryAll && !models.ValidCategory(category) {
		writeError(w, h.log, http.StatusBadRequest, lang.T(h.lang, "err_bad_request"))
		return
	}

	items, err := h.menu.List(r.Context(), category)
	if err != nil {
		h.log.Error("list menu", zap.String("category", category), zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	writeJSON(w, h.log, http.StatusOK, items)
}
