package services

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

const postalCodeDigits = 4

// localityArtifacts are percent-encoded fragments left in locality names
// taken from listing URLs.
var localityArtifacts = strings.NewReplacer(
	"%C3%A9", "é", "%C3%A8", "è", "%C3%AA", "ê", "%C3%AB", "ë",
	"%C3%A0", "à", "%C3%A2", "â", "%C3%A7", "ç", "%C3%AE", "î",
	"%C3%AF", "ï", "%C3%B4", "ô", "%C3%B6", "ö", "%C3%BB", "û",
	"%C3%BC", "ü", "%27", "'", "%20", " ",
)

var apartmentSubtypes = map[string]struct{}{
	"apartment": {}, "loft": {}, "penthouse": {}, "duplex": {}, "ground-floor": {},
	"flat-studio": {}, "service-flat": {}, "triplex": {}, "kot": {},
}

var (
	buildingConditionLabels = map[string]string{
		"Asnew":         "As new",
		"Justrenovated": "Just renovated",
		"Tobedoneup":    "To be done up",
		"Torenovate":    "To renovate",
		"Torestore":     "To restore",
	}
	kitchenTypeLabels = map[string]string{
		"Hyperequipped":    "Hyper equipped",
		"Semiequipped":     "Semi equipped",
		"USAhyperequipped": "USA hyper equipped",
		"USAinstalled":     "USA installed",
		"USAsemiequipped":  "USA semi-equipped",
		"Notinstalled":     "Not installed",
		"USAuninstalled":   "USA uninstalled",
	}
	heatingTypeLabels = map[string]string{
		"Fueloil": "Fuel oil",
		"Carbon":  "Coal",
	}
	floodZoneLabels = map[string]string{
		"Nonfloodzone":                       "Non flood zone",
		"Possiblecircumscribedwatersidezone": "Possible circumscribed waterside zone",
		"Possiblefloodzone":                  "Possible flood zone",
		"Recognizedfloodzone":                "Recognized flood zone",
		"Propertypartiallyorcompletelylocatedinacircumscribedandrecognizedfloodzone": "Property partially or completely located in a circumscribed and recognized flood zone",
	}
	energyClassLabels = map[string]string{
		"Notspecified": "Not specified",
	}
)

// Cleaner turns the raw dataset into the cleaned, feature-enriched dataset.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean runs the cleaning steps in order. The raw records are not modified
// and the same input always yields the same output.
func (c *Cleaner) Clean(raw []*models.RawRecord) []*models.CleanedRecord {
	if len(raw) == 0 {
		c.logger.Warn("[cleaner] EmptyDataset: no raw records to clean")
		return []*models.CleanedRecord{}
	}

	seen := make(map[string]struct{}, len(raw))
	result := make([]*models.CleanedRecord, 0, len(raw))
	var duplicates, malformed int

	for _, r := range raw {
		if r == nil {
			continue
		}
		if _, dup := seen[r.PropertyID]; dup {
			duplicates++
			continue
		}
		seen[r.PropertyID] = struct{}{}

		if !validPostalCode(r.PostalCode) {
			c.logger.Debug("[cleaner] Dropping %s: malformed postal code %q", r.URL, r.PostalCode)
			malformed++
			continue
		}

		rec := coerce(r)
		deriveFeatures(rec)
		deriveIndicators(rec)
		relabel(rec)
		roundNumerics(rec)
		result = append(result, rec)
	}

	beforeOutliers := len(result)
	result = filterIQR(result, func(r *models.CleanedRecord) *float64 { return r.Price })
	afterPrice := len(result)
	result = filterIQR(result, func(r *models.CleanedRecord) *float64 { return r.PlotSurface })

	for _, rec := range result {
		finish(rec)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d records (duplicates %d, bad postal code %d, price outliers %d, plot outliers %d)",
		len(raw), len(result), duplicates, malformed, beforeOutliers-afterPrice, afterPrice-len(result))
	return result
}

func validPostalCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != postalCodeDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// coerce copies the raw fields into a cleaned record, decoding the locality
// and parsing every numeric-looking column. Unparseable numbers become null.
func coerce(r *models.RawRecord) *models.CleanedRecord {
	attr := func(f models.Field) *string {
		v, ok := r.Get(f)
		if !ok {
			return nil
		}
		return &v
	}
	num := func(f models.Field) *float64 {
		v, ok := r.Get(f)
		if !ok {
			return nil
		}
		return parseNumber(v)
	}

	rec := &models.CleanedRecord{
		Locality:   text(localityArtifacts.Replace(r.LocalityName)),
		PostalCode: parseNumber(r.PostalCode),
		Subtype:    text(r.Subtype),
		URL:        r.URL,
		PropertyID: parseNumber(r.PropertyID),
		OpenFire:   number(float64(r.OpenFire)),

		ConstructionYear: num(models.ConstructionYear),
		BuildingCond:     attr(models.BuildingCondition),
		EnergyClass:      attr(models.EnergyClass),
		HeatingType:      attr(models.HeatingType),
		DoubleGlazing:    attr(models.DoubleGlazing),
		Elevator:         attr(models.Elevator),
		Accessible:       attr(models.AccessibleForDisabled),
		LivingSurface:    num(models.LivingArea),
		Furnished:        attr(models.Furnished),
		Bedrooms:         num(models.Bedrooms),
		Bathrooms:        num(models.Bathrooms),
		ShowerRooms:      num(models.ShowerRooms),
		KitchenType:      attr(models.KitchenType),
		Frontages:        num(models.Frontages),
		SwimmingPool:     attr(models.SwimmingPool),
		PlotSurface:      num(models.PlotSurface),
		TerraceSurface:   num(models.TerraceSurface),
		GardenSurface:    num(models.GardenSurface),
		CoveredParking:   num(models.CoveredParking),
		OutdoorParking:   num(models.OutdoorParking),
		FloodZoneType:    attr(models.FloodZoneType),
		TenementBuilding: attr(models.TenementBuilding),
	}
	if r.Price != nil {
		rec.Price = number(float64(*r.Price))
	}
	return rec
}

// deriveFeatures sets the property type, the aggregate counts and the
// province/region pair.
func deriveFeatures(rec *models.CleanedRecord) {
	if rec.Subtype != nil {
		kind := "House"
		if _, ok := apartmentSubtypes[*rec.Subtype]; ok {
			kind = "Apartment"
		}
		rec.TypeOfProperty = &kind
	}

	rec.ParkingTotal = number(orZero(rec.CoveredParking) + orZero(rec.OutdoorParking))
	rec.BathroomsTotal = number(orZero(rec.Bathrooms) + orZero(rec.ShowerRooms))

	if rec.PostalCode != nil {
		if province, region, ok := LookupRegion(int(*rec.PostalCode)); ok {
			rec.Province = &province
			rec.Region = &region
		}
	}
}

func relabel(rec *models.CleanedRecord) {
	rec.BuildingCond = replaceLabel(rec.BuildingCond, buildingConditionLabels)
	rec.KitchenType = replaceLabel(rec.KitchenType, kitchenTypeLabels)
	rec.HeatingType = replaceLabel(rec.HeatingType, heatingTypeLabels)
	rec.FloodZoneType = replaceLabel(rec.FloodZoneType, floodZoneLabels)
	rec.EnergyClass = replaceLabel(rec.EnergyClass, energyClassLabels)
}

func replaceLabel(v *string, labels map[string]string) *string {
	if v == nil {
		return nil
	}
	if label, ok := labels[*v]; ok {
		return &label
	}
	return v
}

func roundNumerics(rec *models.CleanedRecord) {
	for _, p := range []**float64{
		&rec.PostalCode, &rec.Price, &rec.ConstructionYear, &rec.LivingSurface,
		&rec.Bedrooms, &rec.BathroomsTotal, &rec.Bathrooms, &rec.ShowerRooms,
		&rec.OpenFire, &rec.Frontages, &rec.PlotSurface, &rec.TerraceSurface,
		&rec.GardenSurface, &rec.ParkingTotal, &rec.CoveredParking, &rec.OutdoorParking,
		&rec.PropertyID,
	} {
		if *p != nil {
			*p = number(math.Round(**p))
		}
	}
}

// finish capitalizes the locality and computes the price per square metre.
func finish(rec *models.CleanedRecord) {
	if rec.Locality != nil {
		rec.Locality = text(capitalize(*rec.Locality))
	}
	rec.PricePerSqm = nil
	if rec.Price != nil && rec.LivingSurface != nil && *rec.LivingSurface != 0 {
		rec.PricePerSqm = number(math.Round(*rec.Price / *rec.LivingSurface * 100) / 100)
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func number(f float64) *float64 { return &f }

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
