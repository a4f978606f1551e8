package handler

import (
	"errors"
	"net/http"
	"strings"

	"food-webapp/lang"
	"food-webapp/models"
	"food-webapp/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartHandler exposes the cart operations of one client.
type CartHandler struct {
	sessions *services.Sessions
	menu     services.Menu
	lang     string
	log      *zap.Logger
}

func NewCartHandler(sessions *services.Sessions, menu services.Menu, langCode string, log *zap.Logger) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{sessions: sessions, menu: menu, lang: langCode, log: log}
}

// RegisterRoutes mounts the cart routes under /api/clients/{cid}.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/items", h.AddItem)
	r.Post("/cart/items/{id}/quantity", h.ChangeQuantity)
}

// addItemRequest carries the item id and, for items the menu source does
// not know, the card's name, price and image.
type addItemRequest struct {
	ID    models.ItemID `json:"id"`
	Name  *string       `json:"name"`
	Price *float64      `json:"price"`
	Img   string        `json:"img"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	return loadSession(w, r, h.sessions, h.log, h.lang)
}

// Get returns the lines, totals and checkout state.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.log, http.StatusOK, NewCartResponse(s.Change()))
}

// AddItem adds one unit of a menu item.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID == "" {
		writeError(w, h.log, http.StatusBadRequest, lang.T(h.lang, "err_bad_request"))
		return
	}

	item, err := h.menu.Get(r.Context(), req.ID)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMenuItemNotFound) && req.Name != nil && req.Price != nil:
		name := strings.TrimSpace(*req.Name)
		if name == "" || *req.Price < 0 {
			writeError(w, h.log, http.StatusBadRequest, lang.T(h.lang, "err_bad_request"))
			return
		}
		item = &models.MenuItem{ID: req.ID, Name: name, Price: *req.Price, Img: req.Img}
	case errors.Is(err, services.ErrMenuItemNotFound):
		writeError(w, h.log, http.StatusNotFound, lang.T(h.lang, "err_item_unknown"))
		return
	default:
		h.log.Error("menu lookup", zap.String("item_id", req.ID.String()), zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := NewCartResponse(s.AddItem(r.Context(), item.ID, item.Name, item.Price, item.Img))
	resp.Message = lang.T(h.lang, "item_added")
	writeJSON(w, h.log, http.StatusOK, resp)
}

// ChangeQuantity adds delta to a line; a line reaching zero is removed.
// Unknown ids leave the cart as it is.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id := models.ParseItemID(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, h.log, http.StatusBadRequest, lang.T(h.lang, "err_bad_request"))
		return
	}
	var req changeQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, lang.T(h.lang, "err_bad_request"))
		return
	}

	change, found := s.ChangeQuantity(r.Context(), id, req.Delta)
	if !found {
		h.log.Debug("quantity change for an item not in the cart", zap.String("client_id", s.ID()), zap.String("item_id", id.String()))
	}
	writeJSON(w, h.log, http.StatusOK, NewCartResponse(change))
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Clear(r.Context())
	resp := NewCartResponse(s.Change())
	resp.Message = lang.T(h.lang, "cart_cleared")
	writeJSON(w, h.log, http.StatusOK, resp)
}
