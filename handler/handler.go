package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"food-webapp/lang"
	"food-webapp/models"
	"food-webapp/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Publisher pushes page events; satisfied by *ws.Hub.
type Publisher interface {
	Publish(clientID, eventType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

// CartResponse is the JSON view of a cart used by the API and the
// cart.changed websocket event.
type CartResponse struct {
	Lines           []models.CartLine `json:"lines"`
	TotalItems      int               `json:"totalItems"`
	TotalPrice      string            `json:"totalPrice"`
	CheckoutEnabled bool              `json:"checkoutEnabled"`
	// Message is the notification text for the action, if any.
	Message string `json:"message,omitempty"`
}

func NewCartResponse(c services.CartChange) CartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return CartResponse{
		Lines:           lines,
		TotalItems:      c.TotalItems,
		TotalPrice:      services.FormatPrice(c.TotalPrice),
		CheckoutEnabled: c.CheckoutEnabled,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, status int, msg string) {
	writeJSON(w, log, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	return json.NewDecoder(r.Body).Decode(v)
}

// loadSession resolves the {cid} path parameter to a session and writes the
// error response when it cannot: 400 for a malformed id, 503 when the stored
// cart could not be read.
func loadSession(w http.ResponseWriter, r *http.Request, sessions *services.Sessions, log *zap.Logger, l string) (*services.Session, bool) {
	cid := chi.URLParam(r, "cid")
	s, err := sessions.Get(r.Context(), cid)
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, services.ErrInvalidClientID):
		writeError(w, log, http.StatusBadRequest, "invalid client id")
	case errors.Is(err, services.ErrCartUnavailable):
		log.Warn("cart unavailable", zap.String("client_id", cid), zap.Error(err))
		writeError(w, log, http.StatusServiceUnavailable, lang.T(l, "err_storage"))
	default:
		log.Error("load session", zap.String("client_id", cid), zap.Error(err))
		writeError(w, log, http.StatusInternalServerError, "internal server error")
	}
	return nil, false
}
