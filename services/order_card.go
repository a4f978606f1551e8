package services

import (
	"fmt"
	"strings"

	"food-webapp/lang"
	"food-webapp/models"

	"github.com/shopspring/decimal"
)

// BuildOrderCard returns the admin notification text for an accepted order.
func BuildOrderCard(o models.OrderRequest, langCode string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(lang.T(langCode, "card_order"), o.UniqueID))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(lang.T(langCode, "card_customer"), o.Name) + "\n")
	b.WriteString(fmt.Sprintf(lang.T(langCode, "card_phone"), o.Phone) + "\n")
	if o.Delivery == models.DeliveryDelivery {
		b.WriteString(fmt.Sprintf(lang.T(langCode, "card_delivery"), o.Address))
	} else {
		b.WriteString(lang.T(langCode, "card_pickup"))
	}
	b.WriteString("\n\n")
	writeLines(&b, o, langCode)
	return b.String()
}

// BuildCustomerReceipt is sent to the customer's chat after the sink accepted the order.
func BuildCustomerReceipt(o models.OrderRequest, message, langCode string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(lang.T(langCode, "receipt_header"), o.UniqueID))
	if message != "" {
		b.WriteString("\n" + message)
	}
	b.WriteString("\n\n")
	writeLines(&b, o, langCode)
	return b.String()
}

func writeLines(b *strings.Builder, o models.OrderRequest, langCode string) {
	cur := lang.T(langCode, "currency")
	for _, l := range o.Cart {
		lineTotal := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Qty)))
		b.WriteString(fmt.Sprintf("• %s × %d — %s %s\n", l.Name, l.Qty, FormatPrice(lineTotal), cur))
	}
	b.WriteString("\n" + fmt.Sprintf(lang.T(langCode, "card_items"), o.TotalItems) + "\n")
	b.WriteString(fmt.Sprintf(lang.T(langCode, "card_total"), o.TotalPrice+" "+cur))
}
