package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

const topLocalities = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(records []*models.CleanedRecord) *models.InsightReport {
	report := &models.InsightReport{
		ByType:   make(map[string]int),
		ByRegion: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalListings = len(records)

	var prices, perSqm []float64
	localities := make(map[string]int)

	for _, r := range records {
		if r.TypeOfProperty != nil {
			report.ByType[*r.TypeOfProperty]++
		}
		if r.Region != nil {
			report.ByRegion[*r.Region]++
		}
		if r.Locality != nil {
			localities[*r.Locality]++
		}
		// A zero price stands for a price that was not published.
		if r.Price != nil && *r.Price > 0 {
			prices = append(prices, *r.Price)
			if report.MostExpensive == nil || *r.Price > *report.MostExpensive.Price {
				report.MostExpensive = r
			}
			if r.PricePerSqm != nil {
				perSqm = append(perSqm, *r.PricePerSqm)
			}
		}
	}

	// Price stats (only listings with price > 0)
	if len(prices) > 0 {
		sort.Float64s(prices)
		var total float64
		for _, p := range prices {
			total += p
		}
		report.PricedListings = len(prices)
		report.MinPrice = prices[0]
		report.MaxPrice = prices[len(prices)-1]
		report.AveragePrice = round2(total / float64(len(prices)))
		report.MedianPrice = round2(quantile(prices, 0.5))
	}
	if len(perSqm) > 0 {
		sort.Float64s(perSqm)
		report.MedianPricePerSqm = round2(quantile(perSqm, 0.5))
	}

	for loc, n := range localities {
		report.TopLocalities = append(report.TopLocalities, models.LocalityCount{Locality: loc, Count: n})
	}
	sort.Slice(report.TopLocalities, func(i, j int) bool {
		a, b := report.TopLocalities[i], report.TopLocalities[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Locality < b.Locality
	})
	if len(report.TopLocalities) > topLocalities {
		report.TopLocalities = report.TopLocalities[:topLocalities]
	}

	s.logger.Debug("[insights] %d listings, %d with a price", report.TotalListings, report.PricedListings)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  IMMOWEB SCRAPE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Cleaned listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, k := range sortedKeys(r.ByType) {
		fmt.Fprintf(w, "  %-16s : %d\n", k, r.ByType[k])
	}
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price    : \033[1;32m€%.0f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Median price     : \033[1;32m€%.0f\033[0m\n", r.MedianPrice)
		fmt.Fprintf(w, "  Minimum price    : \033[1;32m€%.0f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price    : \033[1;32m€%.0f\033[0m\n", r.MaxPrice)
		if r.MedianPricePerSqm > 0 {
			fmt.Fprintf(w, "  Median price/sqm : \033[1;32m€%.2f\033[0m\n", r.MedianPricePerSqm)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.URL, 52))
		fmt.Fprintf(w, "  Locality : %s\n", models.FormatString(r.MostExpensive.Locality))
		fmt.Fprintf(w, "  Price    : \033[1;31m€%.0f\033[0m\n", *r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	// Listings by Region
	fmt.Fprintf(w, "\033[1;33m  Listings by Region\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByRegion) == 0 {
		fmt.Fprintf(w, "  No region data\n")
	} else {
		for _, k := range sortedKeys(r.ByRegion) {
			fmt.Fprintf(w, "  %-30s %s (%d)\n", k, bar(r.ByRegion[k]), r.ByRegion[k])
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top Localities\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for i, lc := range r.TopLocalities {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-30s %d\n", i+1, truncate(lc.Locality, 28), lc.Count)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// bar draws at most 40 blocks so large datasets stay on one line.
func bar(n int) string {
	if n > 40 {
		n = 40
	}
	return strings.Repeat("█", n)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
