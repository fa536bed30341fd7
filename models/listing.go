package models

import (
	"strconv"
	"strings"
)

// Field is one attribute of the fixed listing taxonomy scraped from the
// attribute table of a listing page.
type Field int

const (
	ConstructionYear Field = iota
	Bedrooms
	LivingArea
	KitchenType
	Furnished
	TerraceSurface
	PlotSurface
	GardenSurface
	Frontages
	SwimmingPool
	BuildingCondition
	EnergyClass
	TenementBuilding
	FloodZoneType
	DoubleGlazing
	HeatingType
	Bathrooms
	Elevator
	AccessibleForDisabled
	OutdoorParking
	CoveredParking
	ShowerRooms

	FieldCount
)

// fieldLabels are the exact header texts on the listing page.
var fieldLabels = [FieldCount]string{
	ConstructionYear:      "Construction year",
	Bedrooms:              "Bedrooms",
	LivingArea:            "Living area",
	KitchenType:           "Kitchen type",
	Furnished:             "Furnished",
	TerraceSurface:        "Terrace surface",
	PlotSurface:           "Surface of the plot",
	GardenSurface:         "Garden surface",
	Frontages:             "Number of frontages",
	SwimmingPool:          "Swimming pool",
	BuildingCondition:     "Building condition",
	EnergyClass:           "Energy class",
	TenementBuilding:      "Tenement building",
	FloodZoneType:         "Flood zone type",
	DoubleGlazing:         "Double glazing",
	HeatingType:           "Heating type",
	Bathrooms:             "Bathrooms",
	Elevator:              "Elevator",
	AccessibleForDisabled: "Accessible for disabled people",
	OutdoorParking:        "Outdoor parking spaces",
	CoveredParking:        "Covered parking spaces",
	ShowerRooms:           "Shower rooms",
}

var fieldsByLabel = func() map[string]Field {
	m := make(map[string]Field, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		m[fieldLabels[f]] = f
	}
	return m
}()

// Label returns the page label of f.
func (f Field) Label() string {
	if f < 0 || f >= FieldCount {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldLabels[f]
}

func (f Field) String() string { return f.Label() }

// FieldByLabel looks up a taxonomy field by its exact label.
func FieldByLabel(label string) (Field, bool) {
	f, ok := fieldsByLabel[label]
	return f, ok
}

// Fields returns every taxonomy field in column order.
func Fields() []Field {
	out := make([]Field, FieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// RawColumns is the raw dataset header: seven fixed columns followed by the taxonomy.
var RawColumns = func() []string {
	cols := []string{"url", "Property ID", "Locality name", "Postal code", "Subtype of property", "Open Fire", "Price"}
	for f := Field(0); f < FieldCount; f++ {
		cols = append(cols, fieldLabels[f])
	}
	return cols
}()

// RawRecord holds one listing's extracted fields before any type coercion.
// A nil attribute is a backfilled null; an absent key was never seen on the page.
type RawRecord struct {
	URL          string
	PropertyID   string
	LocalityName string
	PostalCode   string
	Subtype      string
	OpenFire     int
	Price        *int64
	Attributes   map[Field]*string
}

// NewRawRecord creates an empty record for url.
func NewRawRecord(url string) *RawRecord {
	return &RawRecord{URL: url, Attributes: make(map[Field]*string)}
}

// Set stores a scraped value for f.
func (r *RawRecord) Set(f Field, value string) {
	if r.Attributes == nil {
		r.Attributes = make(map[Field]*string)
	}
	v := value
	r.Attributes[f] = &v
}

// Get returns the value for f and whether it is non-null.
func (r *RawRecord) Get(f Field) (string, bool) {
	v := r.Attributes[f]
	if v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether f is a key of the record, null or not.
func (r *RawRecord) Has(f Field) bool {
	_, ok := r.Attributes[f]
	return ok
}

// Backfill inserts a null for every taxonomy field the record lacks.
func (r *RawRecord) Backfill() {
	if r.Attributes == nil {
		r.Attributes = make(map[Field]*string, FieldCount)
	}
	for f := Field(0); f < FieldCount; f++ {
		if _, ok := r.Attributes[f]; !ok {
			r.Attributes[f] = nil
		}
	}
}

// Row renders the record in RawColumns order; nulls become empty cells.
func (r *RawRecord) Row() []string {
	row := make([]string, 0, len(RawColumns))
	price := ""
	if r.Price != nil {
		price = strconv.FormatInt(*r.Price, 10)
	}
	row = append(row, r.URL, r.PropertyID, r.LocalityName, r.PostalCode, r.Subtype,
		strconv.Itoa(r.OpenFire), price)
	for f := Field(0); f < FieldCount; f++ {
		v, _ := r.Get(f)
		row = append(row, v)
	}
	return row
}

// Key identifies the record by every field value, telling null apart from
// the empty string. Two records with equal keys are exact duplicates.
func (r *RawRecord) Key() string {
	const null = "\x00"
	var b strings.Builder
	price := null
	if r.Price != nil {
		price = strconv.FormatInt(*r.Price, 10)
	}
	for _, s := range []string{r.URL, r.PropertyID, r.LocalityName, r.PostalCode, r.Subtype,
		strconv.Itoa(r.OpenFire), price} {
		b.WriteString(s)
		b.WriteByte(0x1f)
	}
	for f := Field(0); f < FieldCount; f++ {
		if v, ok := r.Get(f); ok {
			b.WriteString(v)
		} else {
			b.WriteString(null)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
