package services

import (
	"testing"

	"immoweb-scraper/models"
)

func TestQuantileLinear(t *testing.T) {
	sorted := []float64{10, 11, 12, 13, 1000}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 10},
		{0.25, 11},
		{0.5, 12},
		{0.75, 13},
		{1, 1000},
	}
	for _, tt := range tests {
		if got := quantile(sorted, tt.q); got != tt.want {
			t.Errorf("quantile(%v) = %v; want %v", tt.q, got, tt.want)
		}
	}
	if got := quantile([]float64{1, 2}, 0.25); got != 1.25 {
		t.Errorf("quantile interpolation = %v; want 1.25", got)
	}
}

func TestFilterIQRRemovesPriceOutlier(t *testing.T) {
	var records []*models.CleanedRecord
	for _, p := range []float64{10, 12, 11, 13, 1000} {
		records = append(records, &models.CleanedRecord{Price: number(p)})
	}

	kept := filterIQR(records, func(r *models.CleanedRecord) *float64 { return r.Price })
	if len(kept) != 4 {
		t.Fatalf("kept %d records; want 4", len(kept))
	}
	for _, r := range kept {
		if *r.Price == 1000 {
			t.Error("price 1000 should be filtered out")
		}
	}
}

func TestFilterIQRKeepsMissingValues(t *testing.T) {
	records := []*models.CleanedRecord{
		{Price: number(10)}, {Price: number(12)}, {Price: nil}, {Price: number(11)}, {Price: number(13)},
	}
	kept := filterIQR(records, func(r *models.CleanedRecord) *float64 { return r.Price })
	if len(kept) != 5 {
		t.Errorf("kept %d records; want 5", len(kept))
	}

	none := []*models.CleanedRecord{{}, {}}
	if got := filterIQR(none, func(r *models.CleanedRecord) *float64 { return r.PlotSurface }); len(got) != 2 {
		t.Errorf("column without values should keep every record, got %d", len(got))
	}
}

func TestCleanFiltersPlotAfterPrice(t *testing.T) {
	c := NewCleaner(newTestLogger())
	var raw []*models.RawRecord
	plots := []string{"100", "110", "120", "130", "90000"}
	for i, plot := range plots {
		raw = append(raw, rawListing(string(rune('a'+i)), "1000", "house", price(int64(100000+i*1000)),
			map[models.Field]string{models.PlotSurface: plot}))
	}
	out := c.Clean(raw)
	if len(out) != 4 {
		t.Fatalf("Clean kept %d records; want 4", len(out))
	}
	for _, r := range out {
		if *r.PlotSurface == 90000 {
			t.Error("plot surface outlier should be removed")
		}
	}
}

func TestLookupRegionBothOrNeither(t *testing.T) {
	for p := 0; p <= 10000; p++ {
		prov, reg, ok := LookupRegion(p)
		if ok != (prov != "") || ok != (reg != "") {
			t.Fatalf("LookupRegion(%d) = %q, %q, %v; want both or neither", p, prov, reg, ok)
		}
		prov2, reg2, ok2 := LookupRegion(p)
		if prov2 != prov || reg2 != reg || ok2 != ok {
			t.Fatalf("LookupRegion(%d) is not stable", p)
		}
	}
}

func TestLookupRegion(t *testing.T) {
	tests := []struct {
		postal   int
		province string
		region   string
		ok       bool
	}{
		{1050, "Brussels", "Brussels", true},
		{1348, "Walloon Brabant", "Wallonia", true},
		{3000, "Flemish Brabant", "Flanders", true},
		{6700, "Luxembourg", "Wallonia", true},
		{9000, "East Flanders", "Flanders", true},
		{999, "", "", false},
		{10000, "", "", false},
	}
	for _, tt := range tests {
		prov, reg, ok := LookupRegion(tt.postal)
		if prov != tt.province || reg != tt.region || ok != tt.ok {
			t.Errorf("LookupRegion(%d) = %q, %q, %v; want %q, %q, %v", tt.postal, prov, reg, ok, tt.province, tt.region, tt.ok)
		}
	}
}
