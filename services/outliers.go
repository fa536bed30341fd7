package services

import (
	"math"
	"sort"

	"immoweb-scraper/models"
)

// quantile returns the q-quantile of sorted values with linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// iqrFence returns Q1 - 1.5·IQR and Q3 + 1.5·IQR over values.
func iqrFence(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr, true
}

// filterIQR drops the records whose column value lies strictly outside the
// IQR fence computed over the records given. Missing values are kept.
func filterIQR(records []*models.CleanedRecord, column func(*models.CleanedRecord) *float64) []*models.CleanedRecord {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v := column(r); v != nil {
			values = append(values, *v)
		}
	}
	lo, hi, ok := iqrFence(values)
	if !ok {
		return records
	}

	kept := make([]*models.CleanedRecord, 0, len(records))
	for _, r := range records {
		if v := column(r); v != nil && (*v < lo || *v > hi) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
