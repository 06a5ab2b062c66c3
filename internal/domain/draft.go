package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemCondition values accepted by the backend.
var ItemConditions = []string{"NEW", "AS_GOOD_AS_NEW", "GOOD", "FAIR", "HAS_GIVEN_IT_ALL"}

// Scalar draft field names, as used by SetField and the product JSON.
const (
	FieldTitle             = "title"
	FieldPrice             = "price"
	FieldDescription       = "description"
	FieldShippingAvailable = "shippingAvailable"
	FieldItemCondition     = "itemCondition"
)

// Draft is an in-progress product listing. It accumulates whatever the user
// typed; validation is left to the backend.
type Draft struct {
	Title             string            `json:"title"`
	Price             string            `json:"price"`
	Description       string            `json:"description"`
	ShippingAvailable bool              `json:"shippingAvailable"`
	ItemCondition     string            `json:"itemCondition"`
	CategoryID        Category          `json:"categoryId"`
	CategoryName      string            `json:"categoryName"`
	Attributes        map[string]string `json:"attributes"`
	Images            ImageSlots        `json:"images"`
	UpdatedAt         time.Time         `json:"updatedAt"`

	// Set while the draft edits a saved product instead of creating one.
	EditingID int64         `json:"editingId,omitempty"`
	ImageURLs []string      `json:"imageUrls,omitempty"`
	Status    ProductStatus `json:"productStatus,omitempty"`
}

// NewDraft returns an empty draft with slots image slots.
func NewDraft(slots int) *Draft {
	return &Draft{
		ItemCondition: "NEW",
		Attributes:    map[string]string{},
		Images:        NewImageSlots(slots),
	}
}

// EditDraft seeds a draft from a saved product. The product's images stay on
// the backend and are kept by url; slots only hold new uploads.
func EditDraft(p SavedProduct, slots int) *Draft {
	d := NewDraft(slots)
	d.EditingID = p.ID
	d.Title = p.Title
	d.Price = p.Price.String()
	d.Description = p.Description
	d.ShippingAvailable = p.ShippingAvailable
	if p.ItemCondition != "" {
		d.ItemCondition = p.ItemCondition
	}
	d.CategoryID = p.CategoryID
	d.CategoryName = p.CategoryName
	if s, ok := SchemaFor(p.CategoryID); ok {
		d.CategoryName = s.Name
	}
	for k, v := range p.Attributes {
		d.Attributes[k] = v
	}
	d.ImageURLs = append([]string(nil), p.ImageURLs...)
	d.Status = p.Status
	return d
}

// Editing reports whether the draft will update a saved product.
func (d *Draft) Editing() bool { return d.EditingID != 0 }

// DropImageURL stops keeping the i-th existing image.
func (d *Draft) DropImageURL(i int) error {
	if i < 0 || i >= len(d.ImageURLs) {
		return fmt.Errorf("kept image %d of %d: %w", i, len(d.ImageURLs), ErrSlotOutOfRange)
	}
	d.ImageURLs = append(d.ImageURLs[:i], d.ImageURLs[i+1:]...)
	return nil
}

// SelectCategory activates the named category. Previously entered attribute
// values are kept. An unknown name leaves the draft untouched.
func (d *Draft) SelectCategory(name string) (FieldSchema, error) {
	s, ok := LookupCategory(strings.TrimSpace(name))
	if !ok {
		return FieldSchema{}, ErrUnknownCategory
	}
	d.CategoryName = s.Name
	d.CategoryID = s.Category
	return s, nil
}

// Schema is the active field schema, if a category has been chosen.
func (d *Draft) Schema() (FieldSchema, bool) {
	return SchemaFor(d.CategoryID)
}

// SetField writes a scalar field, or an attribute for any other name.
func (d *Draft) SetField(name, value string) {
	switch name {
	case FieldTitle:
		d.Title = value
	case FieldPrice:
		d.Price = value
	case FieldDescription:
		d.Description = value
	case FieldShippingAvailable:
		d.ShippingAvailable = isTruthy(value)
	case FieldItemCondition:
		d.ItemCondition = value
	default:
		if d.Attributes == nil {
			d.Attributes = map[string]string{}
		}
		d.Attributes[name] = value
	}
}

// SetImage writes slot i; a nil ref clears it. The displaced ref is returned.
func (d *Draft) SetImage(i int, ref *ImageRef) (*ImageRef, error) {
	return d.Images.Assign(i, ref)
}

// ActiveAttributes returns the attribute values that belong to the active
// schema. Values typed under another category stay in the draft but are not
// part of the listing.
func (d *Draft) ActiveAttributes() map[string]string {
	out := map[string]string{}
	s, ok := d.Schema()
	if !ok {
		return out
	}
	for _, f := range s.Fields {
		if v, ok := d.Attributes[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

// Listing is the product part of a create-product or edit-product request.
type Listing struct {
	Title             string            `json:"title"`
	Price             string            `json:"price"`
	Description       string            `json:"description"`
	ShippingAvailable bool              `json:"shippingAvailable"`
	ItemCondition     string            `json:"itemCondition"`
	CategoryID        Category          `json:"categoryId"`
	CategoryName      string            `json:"categoryName"`
	Attributes        map[string]string `json:"attributes"`
	ImageURLs         []string          `json:"imageUrls,omitempty"`
	Status            ProductStatus     `json:"productStatus,omitempty"`
}

// Listing projects the draft onto the wire shape sent to the backend.
func (d *Draft) Listing() Listing {
	return Listing{
		Title:             d.Title,
		Price:             d.Price,
		Description:       d.Description,
		ShippingAvailable: d.ShippingAvailable,
		ItemCondition:     d.ItemCondition,
		CategoryID:        d.CategoryID,
		CategoryName:      d.CategoryName,
		Attributes:        d.ActiveAttributes(),
		ImageURLs:         d.ImageURLs,
		Status:            d.Status,
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
