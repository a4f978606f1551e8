package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"food-webapp/lang"
	"food-webapp/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// SinkRejectionError means the sink answered success=false.
type SinkRejectionError struct {
	Message string
}

func (e *SinkRejectionError) Error() string {
	return "order rejected: " + e.Message
}

// TransportError covers everything between us and a decoded sink answer:
// connection failures, non-2xx statuses, malformed bodies.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "order transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Sink receives orders and acknowledges them.
type Sink interface {
	Send(ctx context.Context, order models.OrderRequest) (models.SinkResponse, error)
}

// OrderCart is the view of a cart the submitter needs.
type OrderCart interface {
	Snapshot() []models.CartLine
	Totals() (int, decimal.Decimal)
	Clear(ctx context.Context)
}

// AcceptedHook runs after the sink accepted an order and the cart was cleared.
type AcceptedHook func(ctx context.Context, order models.OrderRequest, resp models.SinkResponse)

type Receipt struct {
	OrderID string
	Message string
	Order   models.OrderRequest
}

type Submitter struct {
	sink  Sink
	log   *zap.Logger
	now   func() time.Time
	lang  string
	hooks []AcceptedHook
}

type SubmitterOption func(*Submitter)

func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

func WithLang(code string) SubmitterOption {
	return func(s *Submitter) { s.lang = lang.Normalize(code) }
}

func WithAcceptedHook(h AcceptedHook) SubmitterOption {
	return func(s *Submitter) { s.hooks = append(s.hooks, h) }
}

func NewSubmitter(sink Sink, log *zap.Logger, opts ...SubmitterOption) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Submitter{sink: sink, log: log, now: time.Now, lang: lang.Ru}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lang is the language used for validation messages.
func (s *Submitter) Lang() string { return s.lang }

// Submit validates the form, builds the order from the cart and sends it.
// On acceptance the cart is cleared. Rejections and transport failures
// leave the cart untouched and are not retried.
func (s *Submitter) Submit(ctx context.Context, cart OrderCart, form models.OrderForm, clientChatID models.ChatID) (*Receipt, error) {
	order, err := s.Prepare(cart, form, clientChatID)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, cart, order)
}

// Prepare runs validation and assembles the order payload from a snapshot
// of the cart. It does not touch the sink.
func (s *Submitter) Prepare(cart OrderCart, form models.OrderForm, clientChatID models.ChatID) (models.OrderRequest, error) {
	form = NormalizeOrderForm(form)
	if err := ValidateOrderForm(form, s.lang); err != nil {
		return models.OrderRequest{}, err
	}

	lines := cart.Snapshot()
	count, total := cart.Totals()
	if count == 0 {
		return models.OrderRequest{}, ErrEmptyCart
	}

	address := form.Address
	if form.Delivery == models.DeliveryPickup {
		address = ""
	}
	return models.OrderRequest{
		UniqueID:     NewOrderID(s.now()),
		Name:         form.Name,
		Phone:        form.Phone,
		Address:      address,
		Delivery:     form.Delivery,
		Cart:         lines,
		TotalItems:   count,
		TotalPrice:   FormatPrice(total),
		ClientChatID: clientChatID,
	}, nil
}

// Dispatch performs the single request/response exchange with the sink.
// A transport failure after the sink actually stored the order looks the
// same as a real failure; there is no deduplication.
func (s *Submitter) Dispatch(ctx context.Context, cart OrderCart, order models.OrderRequest) (*Receipt, error) {
	log := s.log.With(
		zap.String("attempt_id", uuid.NewString()),
		zap.String("order_id", order.UniqueID),
		zap.String("client_chat_id", order.ClientChatID.String()),
	)
	log.Info("sending order",
		zap.Int("total_items", order.TotalItems),
		zap.String("total_price", order.TotalPrice),
		zap.String("delivery", string(order.Delivery)),
	)

	resp, err := s.sink.Send(ctx, order)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		log.Error("order transport failed", zap.Error(err))
		return nil, err
	}
	if !resp.Success {
		log.Warn("order rejected by sink", zap.String("message", resp.Message))
		return nil, &SinkRejectionError{Message: resp.Message}
	}

	cart.Clear(ctx)
	log.Info("order accepted", zap.String("message", resp.Message))
	for _, h := range s.hooks {
		h(ctx, order, resp)
	}
	return &Receipt{OrderID: order.UniqueID, Message: resp.Message, Order: order}, nil
}

// NewOrderID returns "ID" followed by the unix time in milliseconds.
// Two submissions in the same millisecond get the same id.
func NewOrderID(t time.Time) string {
	return "ID" + strconv.FormatInt(t.UnixMilli(), 10)
}

// UserMessage turns a Submit error into the text shown to the customer.
func UserMessage(err error, langCode string) string {
	var ve *ValidationError
	var re *SinkRejectionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrEmptyCart):
		return lang.T(langCode, "cart_empty")
	case errors.As(err, &re):
		return re.Message
	default:
		return lang.T(langCode, "err_transport")
	}
}

// FormatPrice renders a price the way the cart totals are shown.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
