package models

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CleanColumns is the cleaned dataset header in its fixed order.
var CleanColumns = []string{
	"Locality", "province", "region", "Postal code", "Type of property", "Subtype",
	"Price (euro)", "Construction year", "New Construction boolean",
	"Building condition boolean", "Building condition",
	"Energy class boolean", "Energy class", "Heating type",
	"Double glazing boolean", "Double glazing",
	"Elevator boolean", "Elevator",
	"Accessible for disabled people boolean", "Accessible for disabled people",
	"Living surface (sqm)", "Furnished boolean", "Furnished", "Nb of Bedrooms",
	"Bathrooms total nb boolean", "Bathrooms total nb", "Bathrooms", "Shower rooms",
	"Kitchen equipped boolean", "Kitchen type", "Open fire", "Number of frontages",
	"Swimming pool boolean", "Swimming pool", "Plot surface (sqm)",
	"Terrace boolean", "Terrace surface (sqm)", "Garden boolean", "Garden surface (sqm)",
	"Parking boolean", "Parking tot nb", "Covered parking spaces", "Outdoor parking spaces",
	"Flood safe boolean", "Flood zone type", "Tenement building boolean", "Tenement building",
	"URL", "Property ID", "Price (sqm)",
}

// CleanedRecord is one row of the cleaned dataset. Nil means missing.
type CleanedRecord struct {
	Locality       *string
	Province       *string
	Region         *string
	PostalCode     *float64
	TypeOfProperty *string
	Subtype        *string

	Price            *float64
	ConstructionYear *float64
	BuildingCond     *string
	EnergyClass      *string
	HeatingType      *string
	DoubleGlazing    *string
	Elevator         *string
	Accessible       *string
	LivingSurface    *float64
	Furnished        *string
	Bedrooms         *float64
	BathroomsTotal   *float64
	Bathrooms        *float64
	ShowerRooms      *float64
	KitchenType      *string
	OpenFire         *float64
	Frontages        *float64
	SwimmingPool     *string
	PlotSurface      *float64
	TerraceSurface   *float64
	GardenSurface    *float64
	ParkingTotal     *float64
	CoveredParking   *float64
	OutdoorParking   *float64
	FloodZoneType    *string
	TenementBuilding *string

	URL         string
	PropertyID  *float64
	PricePerSqm *float64

	// Indicators holds the derived "<X> boolean" columns.
	Indicators [IndicatorCount]*int
}

// Indicator names one derived boolean column of the cleaned dataset.
type Indicator int

const (
	NewConstruction Indicator = iota
	BuildingConditionGood
	EnergyClassEfficient
	DoubleGlazed
	HasElevator
	DisabledAccessible
	IsFurnished
	SeveralBathrooms
	KitchenEquipped
	HasSwimmingPool
	HasTerrace
	HasGarden
	HasParking
	FloodSafe
	InTenementBuilding

	IndicatorCount
)

var indicatorColumns = [IndicatorCount]string{
	NewConstruction:       "New Construction boolean",
	BuildingConditionGood: "Building condition boolean",
	EnergyClassEfficient:  "Energy class boolean",
	DoubleGlazed:          "Double glazing boolean",
	HasElevator:           "Elevator boolean",
	DisabledAccessible:    "Accessible for disabled people boolean",
	IsFurnished:           "Furnished boolean",
	SeveralBathrooms:      "Bathrooms total nb boolean",
	KitchenEquipped:       "Kitchen equipped boolean",
	HasSwimmingPool:       "Swimming pool boolean",
	HasTerrace:            "Terrace boolean",
	HasGarden:             "Garden boolean",
	HasParking:            "Parking boolean",
	FloodSafe:             "Flood safe boolean",
	InTenementBuilding:    "Tenement building boolean",
}

// Column returns the cleaned column name of the indicator.
func (i Indicator) Column() string {
	if i < 0 || i >= IndicatorCount {
		return "Indicator(" + strconv.Itoa(int(i)) + ")"
	}
	return indicatorColumns[i]
}

func (i Indicator) String() string { return i.Column() }

// Row renders the record in CleanColumns order. Missing values are empty cells.
func (c *CleanedRecord) Row() []string {
	ind := func(i Indicator) string { return FormatInt(c.Indicators[i]) }
	return []string{
		FormatString(c.Locality), FormatString(c.Province), FormatString(c.Region),
		FormatFloat(c.PostalCode), FormatString(c.TypeOfProperty), FormatString(c.Subtype),
		FormatFloat(c.Price), FormatFloat(c.ConstructionYear), ind(NewConstruction),
		ind(BuildingConditionGood), FormatString(c.BuildingCond),
		ind(EnergyClassEfficient), FormatString(c.EnergyClass), FormatString(c.HeatingType),
		ind(DoubleGlazed), FormatString(c.DoubleGlazing),
		ind(HasElevator), FormatString(c.Elevator),
		ind(DisabledAccessible), FormatString(c.Accessible),
		FormatFloat(c.LivingSurface), ind(IsFurnished), FormatString(c.Furnished), FormatFloat(c.Bedrooms),
		ind(SeveralBathrooms), FormatFloat(c.BathroomsTotal), FormatFloat(c.Bathrooms), FormatFloat(c.ShowerRooms),
		ind(KitchenEquipped), FormatString(c.KitchenType), FormatFloat(c.OpenFire), FormatFloat(c.Frontages),
		ind(HasSwimmingPool), FormatString(c.SwimmingPool), FormatFloat(c.PlotSurface),
		ind(HasTerrace), FormatFloat(c.TerraceSurface), ind(HasGarden), FormatFloat(c.GardenSurface),
		ind(HasParking), FormatFloat(c.ParkingTotal), FormatFloat(c.CoveredParking), FormatFloat(c.OutdoorParking),
		ind(FloodSafe), FormatString(c.FloodZoneType), ind(InTenementBuilding), FormatString(c.TenementBuilding),
		c.URL, FormatFloat(c.PropertyID), FormatFloat(c.PricePerSqm),
	}
}

// FormatFloat prints v with the fewest digits needed, or "" for nil.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatString returns *v or "" for nil.
func FormatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// FormatInt prints v or "" for nil.
func FormatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// RunStats counts what happened during one scrape run. All methods are
// safe for concurrent use.
type RunStats struct {
	mu sync.RWMutex
	s  StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of RunStats.
type StatsSnapshot struct {
	RunID              string    `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	SearchPagesPlanned int       `json:"search_pages_planned"`
	SearchPagesFetched int       `json:"search_pages_fetched"`
	Blocked            int       `json:"blocked"`
	NetworkFailures    int       `json:"network_failures"`
	HTTPFailures       int       `json:"http_failures"`
	StructuralDrift    int       `json:"structural_drift"`
	ListingsDiscovered int       `json:"listings_discovered"`
	ListingsFetched    int       `json:"listings_fetched"`
	ParseFailures      int       `json:"parse_failures"`
	RecordsAppended    int       `json:"records_appended"`
	DuplicatesRejected int       `json:"duplicates_rejected"`
	CleanedRecords     int       `json:"cleaned_records"`
	Finished           bool      `json:"finished"`
}

// NewRunStats starts a run with a fresh random ID.
func NewRunStats() *RunStats {
	return &RunStats{s: StatsSnapshot{RunID: uuid.NewString(), StartedAt: time.Now()}}
}

// RunID returns the run identifier.
func (r *RunStats) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.RunID
}

// Update applies fn to the counters under the write lock.
func (r *RunStats) Update(fn func(s *StatsSnapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.s)
}

// Snapshot returns a copy of the counters.
func (r *RunStats) Snapshot() StatsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s
}
