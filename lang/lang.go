package lang

const (
	Ru = "ru"
	En = "en"
)

var messages = map[string]map[string]string{
	Ru: {
		"item_added":       "Товар добавлен в корзину!",
		"cart_cleared":     "Корзина очищена",
		"cart_empty":       "Корзина пуста.",
		"err_name":         "Имя должно содержать только буквы",
		"err_phone":        "Телефон должен содержать 9 цифр",
		"err_address":      "Введите адрес доставки",
		"err_delivery":     "Выберите способ получения",
		"err_sink":         "Ошибка: %s",
		"err_transport":    "Ошибка сети или сервера",
		"err_storage":      "Корзина временно недоступна, попробуйте позже",
		"err_item_unknown": "Товар не найден",
		"err_bad_request":  "Некорректный запрос",
		"order_sent":       "Заказ отправлен",
		"welcome":          "Добро пожаловать! Откройте меню, чтобы оформить заказ.",
		"open_menu":        "🍽 Открыть меню",
		"menu_header":      "📋 Меню",
		"menu_empty":       "Меню пока пусто.",
		"cat_food":         "Еда",
		"cat_drink":        "Напитки",
		"cat_dessert":      "Десерты",
		"card_order":       "🆕 Новый заказ %s",
		"card_customer":    "👤 %s",
		"card_phone":       "📞 %s",
		"card_pickup":      "🏃 Самовывоз",
		"card_delivery":    "🚚 Доставка: %s",
		"card_items":       "Позиции: %d",
		"card_total":       "Итого: %s",
		"receipt_header":   "✅ Ваш заказ %s принят",
		"currency":         "сом",
	},
	En: {
		"item_added":       "Item added to cart!",
		"cart_cleared":     "Cart cleared",
		"cart_empty":       "Your cart is empty.",
		"err_name":         "Name must contain letters only",
		"err_phone":        "Phone must contain 9 digits",
		"err_address":      "Enter a delivery address",
		"err_delivery":     "Choose pickup or delivery",
		"err_sink":         "Error: %s",
		"err_transport":    "Network or server error",
		"err_storage":      "Cart is temporarily unavailable, try again later",
		"err_item_unknown": "Item not found",
		"err_bad_request":  "Bad request",
		"order_sent":       "Order sent",
		"welcome":          "Welcome! Open the menu to place an order.",
		"open_menu":        "🍽 Open menu",
		"menu_header":      "📋 Menu",
		"menu_empty":       "The menu is empty for now.",
		"cat_food":         "Food",
		"cat_drink":        "Drinks",
		"cat_dessert":      "Desserts",
		"card_order":       "🆕 New order %s",
		"card_customer":    "👤 %s",
		"card_phone":       "📞 %s",
		"card_pickup":      "🏃 Pickup",
		"card_delivery":    "🚚 Delivery: %s",
		"card_items":       "Items: %d",
		"card_total":       "Total: %s",
		"receipt_header":   "✅ Your order %s was accepted",
		"currency":         "som",
	},
}

// Normalize returns a supported language code, falling back to Ru.
func Normalize(code string) string {
	if _, ok := messages[code]; ok {
		return code
	}
	return Ru
}

// T returns the message for key in the given language. Unknown keys come back as-is.
func T(code, key string) string {
	if s, ok := messages[Normalize(code)][key]; ok {
		return s
	}
	return key
}
