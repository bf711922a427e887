package service

import (
	"encoding/json"

	"github.com/phrazzld/cart-tracker/internal/domain"
)

// ParseItem validates a raw request body and the optional cart cookie and
// returns the item they describe. Checks run in a fixed order so the caller
// always learns about the most fundamental problem first:
//
//  1. empty body                       ErrEmptyBody
//  2. not a JSON object                ErrMalformedPayload
//  3. payload cart_id, then cookie     ErrInvalidCartID
//  4. wrong type for a known field     ErrMalformedPayload
//  5. external_id absent               ErrMissingExternalID
//
// Fields are passed through unmodified; keys other than external_id, name,
// value and cart_id are dropped. The cookie is validated but not copied into
// the item; see AssignCart.
func ParseItem(body []byte, cookieCartID *string) (*domain.Item, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, ErrMalformedPayload
	}

	item := &domain.Item{}

	if raw, ok := fields["cart_id"]; ok {
		// null and non-string values leave cartID empty, which is invalid
		var cartID string
		if err := json.Unmarshal(raw, &cartID); err != nil || !domain.IsValidCartID(cartID) {
			return nil, ErrInvalidCartID
		}
		item.CartID = cartID
	}
	if cookieCartID != nil && !domain.IsValidCartID(*cookieCartID) {
		return nil, ErrInvalidCartID
	}

	var externalID *string
	if err := decodeField(fields, "external_id", &externalID); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "name", &item.Name); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "value", &item.Value); err != nil {
		return nil, err
	}

	if externalID == nil {
		return nil, ErrMissingExternalID
	}
	item.ExternalID = *externalID

	return item, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrMalformedPayload
	}
	return nil
}
