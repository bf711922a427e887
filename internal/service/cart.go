package service

import "github.com/phrazzld/cart-tracker/internal/domain"

// AssignCart resolves the item's cart identity in place and returns the item.
// A cart_id already on the item wins, then the cookie; otherwise a fresh
// identity is minted and NewCart is set so the worker creates the cart row.
// The inputs are assumed to have passed ParseItem.
func AssignCart(item *domain.Item, cookieCartID *string) *domain.Item {
	switch {
	case item.CartID != "":
	case cookieCartID != nil && *cookieCartID != "":
		item.CartID = *cookieCartID
	default:
		item.CartID = domain.NewCartID()
		item.NewCart = true
	}
	return item
}
