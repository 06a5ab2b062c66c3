package domain

// Category is the numeric id the backend uses for a listing category.
type Category int

const (
	CategoryNone       Category = 0
	CategoryOtherItems Category = 1
	CategoryCars       Category = 2
	CategoryProperties Category = 3
	CategoryJobs       Category = 4
)

// FieldKind tells the view how to render an attribute input.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldSelect FieldKind = "select"
	FieldBool   FieldKind = "bool"
)

// FieldSpec describes one category-specific attribute input.
type FieldSpec struct {
	Name    string
	Label   string
	Kind    FieldKind
	Options []string
}

// FieldSchema is the set of attribute fields for one category.
type FieldSchema struct {
	Category Category
	Name     string // wire name, e.g. "Cars"
	Label    string
	Fields   []FieldSpec
}

// Has reports whether name is one of the schema's attribute fields.
func (s FieldSchema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

var schemas = []FieldSchema{
	{
		Category: CategoryCars,
		Name:     "Cars",
		Label:    "Cars",
		Fields: []FieldSpec{
			{Name: "brand", Label: "Brand", Kind: FieldText},
			{Name: "model", Label: "Model", Kind: FieldText},
			{Name: "year", Label: "Year", Kind: FieldNumber},
			{Name: "kilometers", Label: "Kilometers", Kind: FieldNumber},
			{Name: "fuel", Label: "Fuel", Kind: FieldSelect, Options: []string{"Petrol", "Diesel", "Electric", "Hybrid", "LPG"}},
			{Name: "gearbox", Label: "Gearbox", Kind: FieldSelect, Options: []string{"Manual", "Automatic"}},
			{Name: "seats", Label: "Seats", Kind: FieldNumber},
			{Name: "doors", Label: "Doors", Kind: FieldNumber},
			{Name: "horsepower", Label: "Horsepower", Kind: FieldNumber},
		},
	},
	{
		Category: CategoryProperties,
		Name:     "Properties",
		Label:    "Real estate",
		Fields: []FieldSpec{
			{Name: "operation", Label: "Operation", Kind: FieldSelect, Options: []string{"Sale", "Rent"}},
			{Name: "propertyType", Label: "Type", Kind: FieldSelect, Options: []string{"Flat", "House", "Room", "Office", "Garage", "Land"}},
			{Name: "surface", Label: "Surface (m²)", Kind: FieldNumber},
			{Name: "rooms", Label: "Rooms", Kind: FieldNumber},
			{Name: "bathrooms", Label: "Bathrooms", Kind: FieldNumber},
			{Name: "location", Label: "Location", Kind: FieldText},
			{Name: "elevator", Label: "Elevator", Kind: FieldBool},
		},
	},
	{
		Category: CategoryJobs,
		Name:     "Jobs",
		Label:    "Jobs",
		Fields: []FieldSpec{
			{Name: "jobKind", Label: "I am", Kind: FieldSelect, Options: []string{"Offering a job", "Looking for a job"}},
			{Name: "sector", Label: "Sector", Kind: FieldSelect, Options: []string{"Hospitality", "Retail", "Technology", "Education", "Care", "Construction", "Other"}},
			{Name: "contract", Label: "Contract", Kind: FieldSelect, Options: []string{"Full time", "Part time", "Freelance", "Internship"}},
			{Name: "salary", Label: "Salary", Kind: FieldText},
		},
	},
	{
		Category: CategoryOtherItems,
		Name:     "OtherItems",
		Label:    "Everything else",
		Fields: []FieldSpec{
			{Name: "subcategory", Label: "Subcategory", Kind: FieldSelect, Options: []string{"Electronics", "Fashion", "Home", "Sports", "Motorbikes", "Kids", "Books", "Collectibles"}},
			{Name: "brand", Label: "Brand", Kind: FieldText},
		},
	},
}

// Schemas returns every category schema in selector order.
func Schemas() []FieldSchema {
	out := make([]FieldSchema, len(schemas))
	copy(out, schemas)
	return out
}

// LookupCategory maps a category name (Cars, Properties, Jobs, OtherItems)
// to its schema. Unknown names report false.
func LookupCategory(name string) (FieldSchema, bool) {
	for _, s := range schemas {
		if s.Name == name {
			return s, true
		}
	}
	return FieldSchema{}, false
}

// SchemaFor resolves the schema by numeric id.
func SchemaFor(c Category) (FieldSchema, bool) {
	for _, s := range schemas {
		if s.Category == c {
			return s, true
		}
	}
	return FieldSchema{}, false
}
