package immoweb

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immoweb-scraper/utils"
)

// LinkExtractor pulls listing URLs out of a search results page.
type LinkExtractor struct {
	sel    Selectors
	logger *utils.Logger
}

// NewLinkExtractor creates a LinkExtractor using sel.
func NewLinkExtractor(sel Selectors, logger *utils.Logger) *LinkExtractor {
	return &LinkExtractor{sel: sel, logger: logger}
}

// Extract returns the unique listing URLs of page in document order.
// Anchors are matched by listing path shape and, as a fallback for layout
// changes, by the title-link classes of result cards. An empty result is
// logged as possible structural drift.
func (e *LinkExtractor) Extract(pageURL string, page []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		e.logger.Warn("[links] %s: cannot parse page: %v", pageURL, err)
		return nil
	}

	found := utils.NewURLSet()

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, ok := NormalizeListingURL(Absolutize(href), e.sel.ExcludedPatterns)
		if ok && e.isListingPath(u) {
			found.Add(u)
		}
	})

	for _, class := range e.sel.TitleLinkClasses {
		doc.Find("a." + class).Each(func(_ int, a *goquery.Selection) {
			href, exists := a.Attr("href")
			if !exists {
				return
			}
			if u, ok := NormalizeListingURL(Absolutize(href), e.sel.ExcludedPatterns); ok {
				found.Add(u)
			}
		})
	}

	links := found.Items()
	if len(links) == 0 {
		e.logger.Warn("[links] StructuralDrift: no listing links on %s, the page layout may have changed", pageURL)
	}
	return links
}

func (e *LinkExtractor) isListingPath(u string) bool {
	for _, p := range e.sel.ListingPathPatterns {
		if p != "" && strings.Contains(u, p) {
			return true
		}
	}
	return false
}
