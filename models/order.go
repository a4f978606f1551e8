package models

// CartLine is one menu item in the cart with its requested quantity.
// Qty is always >= 1 for a line that exists.
type CartLine struct {
	ID    ItemID  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Img   string  `json:"img"`
	Qty   int     `json:"qty"`
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// OrderForm is what the checkout form posts.
type OrderForm struct {
	Name     string         `json:"name"`
	Phone    string         `json:"phone"`
	Address  string         `json:"address"`
	Delivery DeliveryMethod `json:"delivery"`
}

// OrderRequest is the payload sent to the order sink.
type OrderRequest struct {
	UniqueID     string         `json:"uniqueId"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	Delivery     DeliveryMethod `json:"delivery"`
	Cart         []CartLine     `json:"cart"`
	TotalItems   int            `json:"totalItems"`
	TotalPrice   string         `json:"totalPrice"`
	ClientChatID ChatID         `json:"clientChatId"`
}

// SinkResponse is the acknowledgement returned by the order sink.
type SinkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
