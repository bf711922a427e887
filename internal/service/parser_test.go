package service_test

import (
	"testing"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCartID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestParseItem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		cookie *string
		want   error
	}{
		{"empty body", "", nil, service.ErrEmptyBody},
		{"empty body beats bad cookie", "", strPtr("nope"), service.ErrEmptyBody},
		{"syntax error", `{"external_id": `, nil, service.ErrMalformedPayload},
		{"whitespace only", "   ", nil, service.ErrMalformedPayload},
		{"json array", `["sku-1"]`, nil, service.ErrMalformedPayload},
		{"json null", `null`, nil, service.ErrMalformedPayload},
		{"json string", `"sku-1"`, nil, service.ErrMalformedPayload},
		{"malformed beats bad cookie", `{`, strPtr("nope"), service.ErrMalformedPayload},
		{"invalid payload cart_id", `{"external_id":"1","cart_id":"abc"}`, nil, service.ErrInvalidCartID},
		{"null payload cart_id", `{"external_id":"1","cart_id":null}`, nil, service.ErrInvalidCartID},
		{"numeric payload cart_id", `{"external_id":"1","cart_id":42}`, nil, service.ErrInvalidCartID},
		{"empty payload cart_id", `{"external_id":"1","cart_id":""}`, nil, service.ErrInvalidCartID},
		{"invalid cookie", `{"external_id":"1"}`, strPtr("abc"), service.ErrInvalidCartID},
		{"empty cookie", `{"external_id":"1"}`, strPtr(""), service.ErrInvalidCartID},
		{"invalid cookie with valid payload cart_id", `{"external_id":"1","cart_id":"` + validCartID + `"}`, strPtr("abc"), service.ErrInvalidCartID},
		{"cart_id beats missing external_id", `{"cart_id":"abc"}`, nil, service.ErrInvalidCartID},
		{"cart_id beats field type error", `{"external_id":1,"cart_id":"abc"}`, nil, service.ErrInvalidCartID},
		{"numeric external_id", `{"external_id":123}`, nil, service.ErrMalformedPayload},
		{"numeric name", `{"external_id":"1","name":5}`, nil, service.ErrMalformedPayload},
		{"fractional value", `{"external_id":"1","value":2.5}`, nil, service.ErrMalformedPayload},
		{"string value", `{"external_id":"1","value":"200"}`, nil, service.ErrMalformedPayload},
		{"type error beats missing external_id", `{"name":5}`, nil, service.ErrMalformedPayload},
		{"missing external_id", `{"name":"Peeps","value":200}`, nil, service.ErrMissingExternalID},
		{"empty object", `{}`, nil, service.ErrMissingExternalID},
		{"null external_id", `{"external_id":null}`, nil, service.ErrMissingExternalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := service.ParseItem([]byte(tt.body), tt.cookie)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseItem_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		cookie *string
		want   *domain.Item
	}{
		{
			name: "all fields",
			body: `{"external_id":"123123","name":"Peeps","value":200,"cart_id":"` + validCartID + `"}`,
			want: &domain.Item{
				ExternalID: "123123",
				Name:       strPtr("Peeps"),
				Value:      int64Ptr(200),
				CartID:     validCartID,
			},
		},
		{
			name: "external_id only",
			body: `{"external_id":"sku-1"}`,
			want: &domain.Item{ExternalID: "sku-1"},
		},
		{
			name: "empty external_id is present",
			body: `{"external_id":""}`,
			want: &domain.Item{ExternalID: ""},
		},
		{
			name:   "valid cookie is not copied",
			body:   `{"external_id":"sku-1"}`,
			cookie: strPtr(validCartID),
			want:   &domain.Item{ExternalID: "sku-1"},
		},
		{
			name: "unknown keys and client new_cart dropped",
			body: `{"external_id":"sku-1","color":"red","new_cart":true}`,
			want: &domain.Item{ExternalID: "sku-1"},
		},
		{
			name: "null optional fields treated as absent",
			body: `{"external_id":"sku-1","name":null,"value":null}`,
			want: &domain.Item{ExternalID: "sku-1"},
		},
		{
			name: "braced uuid form kept verbatim",
			body: `{"external_id":"sku-1","cart_id":"{` + validCartID + `}"}`,
			want: &domain.Item{ExternalID: "sku-1", CartID: "{" + validCartID + "}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := service.ParseItem([]byte(tt.body), tt.cookie)
			require.NoError(t, err)
			assert.Equal(t, tt.want, item)
		})
	}
}

func TestAssignCart(t *testing.T) {
	cookie := "6fa459ea-ee8a-3ca4-894e-db77e160355e"

	t.Run("payload cart_id wins over cookie", func(t *testing.T) {
		item := service.AssignCart(&domain.Item{ExternalID: "1", CartID: validCartID}, &cookie)
		assert.Equal(t, validCartID, item.CartID)
		assert.False(t, item.NewCart)
	})

	t.Run("cookie used when payload has none", func(t *testing.T) {
		item := service.AssignCart(&domain.Item{ExternalID: "1"}, &cookie)
		assert.Equal(t, cookie, item.CartID)
		assert.False(t, item.NewCart)
	})

	t.Run("minted when neither present", func(t *testing.T) {
		item := service.AssignCart(&domain.Item{ExternalID: "1"}, nil)
		assert.True(t, domain.IsValidCartID(item.CartID))
		assert.True(t, item.NewCart)
	})

	t.Run("identical requests mint distinct identities", func(t *testing.T) {
		first := service.AssignCart(&domain.Item{ExternalID: "1"}, nil)
		second := service.AssignCart(&domain.Item{ExternalID: "1"}, nil)
		assert.NotEqual(t, first.CartID, second.CartID)
	})
}
