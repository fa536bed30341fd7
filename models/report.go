package models

// LocalityCount is the number of cleaned listings in one locality.
type LocalityCount struct {
	Locality string
	Count    int
}

// InsightReport summarises a cleaned dataset.
type InsightReport struct {
	TotalListings int
	ByType        map[string]int
	ByRegion      map[string]int

	PricedListings    int
	MinPrice          float64
	MaxPrice          float64
	AveragePrice      float64
	MedianPrice       float64
	MedianPricePerSqm float64
	MostExpensive     *CleanedRecord

	TopLocalities []LocalityCount
}
