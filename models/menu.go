package models

type MenuItem struct {
	ID       ItemID  `json:"id"`
	Category string  `json:"category"` // "food", "drink", "dessert"
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Img      string  `json:"img"`
}

const (
	CategoryAll     = "all"
	CategoryFood    = "food"
	CategoryDrink   = "drink"
	CategoryDessert = "dessert"
)

// Categories lists the menu sections in display order.
var Categories = []string{CategoryFood, CategoryDrink, CategoryDessert}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
