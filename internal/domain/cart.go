package domain

import (
	"encoding/base64"
	"encoding/json"
)

// VariantKey identifies one product variant inside a cart. Equality is
// structural; an unselected size or color is the empty string, which never
// collides with a named one.
type VariantKey struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Encode returns the transport form of the key, used as the line ID in URLs
// and payloads. It is deterministic: the same variant always encodes the same.
func (k VariantKey) Encode() string {
	raw, _ := json.Marshal(k)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeVariantKey reverses Encode.
func DecodeVariantKey(s string) (VariantKey, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return VariantKey{}, false
	}
	var k VariantKey
	if err := json.Unmarshal(raw, &k); err != nil || k.ProductID == "" {
		return VariantKey{}, false
	}
	return k, true
}

type CartLine struct {
	LineID         string `json:"lineId"`
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Image          string `json:"image,omitempty"`
	SelectedSize   string `json:"selectedSize,omitempty"`
	SelectedColor  string `json:"selectedColor,omitempty"`
	Quantity       int    `json:"quantity"`
}

// Key rebuilds the structural variant key for a line.
func (l CartLine) Key() VariantKey {
	return VariantKey{ProductID: l.ProductID, Size: l.SelectedSize, Color: l.SelectedColor}
}

// CartItem is the caller-supplied input to an add-to-cart operation.
type CartItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Image          string `json:"image,omitempty"`
	SelectedSize   string `json:"selectedSize,omitempty"`
	SelectedColor  string `json:"selectedColor,omitempty"`
}

func (i CartItem) Key() VariantKey {
	return VariantKey{ProductID: i.ProductID, Size: i.SelectedSize, Color: i.SelectedColor}
}
