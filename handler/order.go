package handler

import (
	"errors"
	"fmt"
	"net/http"

	"food-webapp/lang"
	"food-webapp/models"
	"food-webapp/services"
	"food-webapp/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler runs checkout for one client.
type OrderHandler struct {
	sessions  *services.Sessions
	submitter *services.Submitter
	events    Publisher
	log       *zap.Logger
}

func NewOrderHandler(sessions *services.Sessions, submitter *services.Submitter, events Publisher, log *zap.Logger) *OrderHandler {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{sessions: sessions, submitter: submitter, events: events, log: log}
}

// RegisterRoutes mounts POST /orders under /api/clients/{cid}.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Submit)
}

type submitOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
	Field   string `json:"field,omitempty"`
}

// Submit validates the form, sends the order and reports the outcome.
// order.pending and order.settled bracket the sink call on the websocket.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	l := h.submitter.Lang()
	s, ok := loadSession(w, r, h.sessions, h.log, l)
	if !ok {
		return
	}
	cid := s.ID()

	// Any clientChatId in the body is ignored: the order and the customer
	// receipt always go to the chat that owns this cart.
	var form models.OrderForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, h.log, http.StatusBadRequest, lang.T(l, "err_bad_request"))
		return
	}

	h.events.Publish(cid, ws.EventOrderPending, struct{}{})
	receipt, err := s.Submit(r.Context(), h.submitter, form, models.ChatID(cid))
	status, resp := orderOutcome(receipt, err, l)
	if status != http.StatusOK {
		h.log.Info("order not placed", zap.String("client_id", cid), zap.Int("status", status), zap.Error(err))
	}
	h.events.Publish(cid, ws.EventOrderSettled, resp)
	writeJSON(w, h.log, status, resp)
}

func orderOutcome(receipt *services.Receipt, err error, l string) (int, submitOrderResponse) {
	if err == nil {
		msg := receipt.Message
		if msg == "" {
			msg = lang.T(l, "order_sent")
		}
		return http.StatusOK, submitOrderResponse{Success: true, Message: msg, OrderID: receipt.OrderID}
	}

	var ve *services.ValidationError
	var re *services.SinkRejectionError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, submitOrderResponse{Message: ve.Message, Field: ve.Field}
	case errors.Is(err, services.ErrEmptyCart):
		return http.StatusConflict, submitOrderResponse{Message: services.UserMessage(err, l)}
	case errors.As(err, &re):
		return http.StatusBadGateway, submitOrderResponse{Message: fmt.Sprintf(lang.T(l, "err_sink"), re.Message)}
	default:
		return http.StatusBadGateway, submitOrderResponse{Message: services.UserMessage(err, l)}
	}
}
