package services

// postalRange maps a closed range of Belgian postal codes to its province and region.
type postalRange struct {
	lo, hi   int
	province string
	region   string
}

var postalRanges = []postalRange{
	{1000, 1299, "Brussels", "Brussels"},
	{1300, 1499, "Walloon Brabant", "Wallonia"},
	{1500, 1999, "Flemish Brabant", "Flanders"},
	{2000, 2999, "Antwerp", "Flanders"},
	{3000, 3499, "Flemish Brabant", "Flanders"},
	{3500, 3999, "Limburg", "Flanders"},
	{4000, 4999, "Liège", "Wallonia"},
	{5000, 5999, "Namur", "Wallonia"},
	{6000, 6599, "Hainaut", "Wallonia"},
	{6600, 6999, "Luxembourg", "Wallonia"},
	{7000, 7999, "Hainaut", "Wallonia"},
	{8000, 8999, "West Flanders", "Flanders"},
	{9000, 9999, "East Flanders", "Flanders"},
}

// LookupRegion returns the province and region of a postal code. Both are
// set or neither is.
func LookupRegion(postal int) (province, region string, ok bool) {
	for _, r := range postalRanges {
		if postal >= r.lo && postal <= r.hi {
			return r.province, r.region, true
		}
	}
	return "", "", false
}
