package services

import (
	"strings"

	"immoweb-scraper/models"
)

// indicatorRule derives one "<X> boolean" column from a cleaned record whose
// categorical values are still in their scraped form.
type indicatorRule func(r *models.CleanedRecord) *int

// indicatorRules has one entry per indicator column. Strict rules keep a
// missing source as null, lenient ones turn it into 0.
var indicatorRules = [models.IndicatorCount]indicatorRule{
	models.NewConstruction:       yearCutoff(func(r *models.CleanedRecord) *float64 { return r.ConstructionYear }, 2021),
	models.BuildingConditionGood: member(func(r *models.CleanedRecord) *string { return r.BuildingCond }, false, "Asnew", "Good", "Justrenovated"),
	models.EnergyClassEfficient:  member(func(r *models.CleanedRecord) *string { return r.EnergyClass }, false, "A++", "A+", "A", "B"),
	models.DoubleGlazed:          yes(func(r *models.CleanedRecord) *string { return r.DoubleGlazing }, false),
	models.HasElevator:           yes(func(r *models.CleanedRecord) *string { return r.Elevator }, false),
	models.DisabledAccessible:    yes(func(r *models.CleanedRecord) *string { return r.Accessible }, false),
	models.IsFurnished:           yes(func(r *models.CleanedRecord) *string { return r.Furnished }, false),
	models.SeveralBathrooms:      above(func(r *models.CleanedRecord) *float64 { return r.BathroomsTotal }, 1, false),
	models.KitchenEquipped:       notMember(func(r *models.CleanedRecord) *string { return r.KitchenType }, "Notinstalled", "USAuninstalled"),
	models.HasSwimmingPool:       yes(func(r *models.CleanedRecord) *string { return r.SwimmingPool }, true),
	models.HasTerrace:            above(func(r *models.CleanedRecord) *float64 { return r.TerraceSurface }, 0, true),
	models.HasGarden:             above(func(r *models.CleanedRecord) *float64 { return r.GardenSurface }, 0, true),
	models.HasParking:            above(func(r *models.CleanedRecord) *float64 { return r.ParkingTotal }, 0, false),
	models.FloodSafe:             member(func(r *models.CleanedRecord) *string { return r.FloodZoneType }, false, "Nonfloodzone"),
	models.InTenementBuilding:    member(func(r *models.CleanedRecord) *string { return r.Subtype }, true, "mixed-use-building", "apartment-block"),
}

// deriveIndicators fills every indicator column of r.
func deriveIndicators(r *models.CleanedRecord) {
	for i, rule := range indicatorRules {
		r.Indicators[i] = rule(r)
	}
}

func flag(b bool) *int {
	v := 0
	if b {
		v = 1
	}
	return &v
}

func missing(lenient bool) *int {
	if lenient {
		return flag(false)
	}
	return nil
}

func yearCutoff(get func(*models.CleanedRecord) *float64, year float64) indicatorRule {
	return func(r *models.CleanedRecord) *int {
		v := get(r)
		if v == nil {
			return nil
		}
		return flag(*v >= year)
	}
}

func above(get func(*models.CleanedRecord) *float64, min float64, lenient bool) indicatorRule {
	return func(r *models.CleanedRecord) *int {
		v := get(r)
		if v == nil {
			return missing(lenient)
		}
		return flag(*v > min)
	}
}

func member(get func(*models.CleanedRecord) *string, lenient bool, allowed ...string) indicatorRule {
	return func(r *models.CleanedRecord) *int {
		v := get(r)
		if v == nil {
			return missing(lenient)
		}
		for _, a := range allowed {
			if *v == a {
				return flag(true)
			}
		}
		return flag(false)
	}
}

func notMember(get func(*models.CleanedRecord) *string, denied ...string) indicatorRule {
	in := member(get, false, denied...)
	return func(r *models.CleanedRecord) *int {
		v := in(r)
		if v == nil {
			return nil
		}
		return flag(*v == 0)
	}
}

func yes(get func(*models.CleanedRecord) *string, lenient bool) indicatorRule {
	return func(r *models.CleanedRecord) *int {
		v := get(r)
		if v == nil {
			return missing(lenient)
		}
		return flag(strings.EqualFold(strings.TrimSpace(*v), "yes"))
	}
}
