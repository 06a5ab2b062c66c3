package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the backend's lifecycle state for a saved product.
type ProductStatus string

const (
	StatusOnSell   ProductStatus = "ON_SELL"
	StatusReserved ProductStatus = "RESERVED"
	StatusSold     ProductStatus = "SOLD"
)

// ParseStatus accepts the wire spelling of a status.
func ParseStatus(s string) (ProductStatus, bool) {
	switch ProductStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOnSell:
		return StatusOnSell, true
	case StatusReserved:
		return StatusReserved, true
	case StatusSold:
		return StatusSold, true
	}
	return "", false
}

// CanTransition reports whether a seller may move a product from one status
// to another. Deletion is allowed from any status and is not modelled here.
func CanTransition(from, to ProductStatus) bool {
	return from == StatusOnSell && (to == StatusReserved || to == StatusSold)
}

// Action is a seller-triggered change on a saved product.
type Action string

const (
	ActionReserve Action = "reserve"
	ActionSell    Action = "sell"
	ActionDelete  Action = "delete"
)

// ParseAction accepts reserve, sell or delete.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionReserve:
		return ActionReserve, true
	case ActionSell:
		return ActionSell, true
	case ActionDelete:
		return ActionDelete, true
	}
	return "", false
}

// Target is the status an action moves a product to. Delete has none.
func (a Action) Target() (ProductStatus, bool) {
	switch a {
	case ActionReserve:
		return StatusReserved, true
	case ActionSell:
		return StatusSold, true
	}
	return "", false
}

// Timestamp decodes the backend's date-times, which may come with or without
// a zone offset.
type Timestamp struct{ time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Attributes is the category-specific field map. Non-string scalars sent by
// the backend are kept in their JSON text form.
type Attributes map[string]string

func (a *Attributes) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	out := make(Attributes, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if string(v) == "null" {
			continue
		}
		out[k] = string(v)
	}
	*a = out
	return nil
}

// SavedProduct is the read-only projection of a product owned by the backend.
type SavedProduct struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Description       string          `json:"description"`
	ShippingAvailable bool            `json:"shippingAvailable"`
	ItemCondition     string          `json:"itemCondition"`
	CategoryID        Category        `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	Attributes        Attributes      `json:"attributes"`
	ImageURLs         []string        `json:"imageUrls"`
	Status            ProductStatus   `json:"productStatus"`
	CreatedAt         Timestamp       `json:"createdAt"`
	UpdatedAt         Timestamp       `json:"updatedAt"`
	ViewCount         int64           `json:"viewCount"`
	UserID            int64           `json:"userId"`
}

// Cover is the first image url, or "" when the product has none.
func (p SavedProduct) Cover() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// Page is one page of a backend product listing.
type Page struct {
	Content    []SavedProduct `json:"content"`
	Number     int            `json:"number"`
	Size       int            `json:"size"`
	TotalPages int            `json:"totalPages"`
	Last       bool           `json:"last"`
}
