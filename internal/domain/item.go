package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Item is the in-flight tracking record. It is built from the client payload,
// enriched with the resolved cart identity, handed to the deferred dispatcher
// and echoed back to the caller as the response body.
//
// Optional fields are pointers so that absence survives the round trip:
// a field missing from the request is missing from the response and the job.
type Item struct {
	ExternalID string  `json:"external_id"`
	Name       *string `json:"name,omitempty"`
	Value      *int64  `json:"value,omitempty"`
	CartID     string  `json:"cart_id,omitempty"`

	// NewCart is set only when the cart identity was minted for this request.
	// It instructs the worker to insert the parent cart row as well.
	NewCart bool `json:"new_cart,omitempty"`
}

// ItemRecord is the persisted form of an Item.
type ItemRecord struct {
	ID         uuid.UUID
	CartID     uuid.UUID
	ExternalID string
	Name       *string
	Value      *int64
}

// ToRecord converts the in-flight item into a row ready for insertion,
// generating the item's own identity.
func (i *Item) ToRecord() (*ItemRecord, error) {
	cartID, err := ParseCartID(i.CartID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return &ItemRecord{
		ID:         uuid.New(),
		CartID:     cartID,
		ExternalID: i.ExternalID,
		Name:       i.Name,
		Value:      i.Value,
	}, nil
}
