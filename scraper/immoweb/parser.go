package immoweb

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

// ListingParser turns a listing page into a RawRecord.
type ListingParser struct {
	sel                Selectors
	missingPriceAsZero bool
	logger             *utils.Logger
}

// NewListingParser creates a parser. With missingPriceAsZero a missing or
// ill-formed price is recorded as 0 instead of null.
func NewListingParser(sel Selectors, missingPriceAsZero bool, logger *utils.Logger) *ListingParser {
	return &ListingParser{sel: sel, missingPriceAsZero: missingPriceAsZero, logger: logger}
}

// Parse extracts the identifiers from url and the remaining fields from page.
// Absent page elements default the field; only an unusable URL or document
// is an error.
func (p *ListingParser) Parse(url string, page []byte) (*models.RawRecord, error) {
	ids, err := ParseListingPath(url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, eris.Wrapf(ErrParse, "listing %s: %v", url, err)
	}

	rec := models.NewRawRecord(url)
	rec.PropertyID = ids.PropertyID
	rec.PostalCode = ids.PostalCode
	rec.LocalityName = ids.LocalityName
	rec.Subtype = ids.Subtype

	rec.OpenFire = p.openFire(doc)

	if price, ok := p.price(doc); ok {
		rec.Price = &price
	} else {
		p.logger.Debug("[parser] %s: no price found", url)
		if p.missingPriceAsZero {
			var zero int64
			rec.Price = &zero
		}
	}

	p.taxonomy(doc, rec)
	return rec, nil
}

func (p *ListingParser) openFire(doc *goquery.Document) int {
	found := 0
	doc.Find(p.sel.Description).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		for _, kw := range p.sel.OpenFireKeywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				found = 1
				return false
			}
		}
		return true
	})
	return found
}

// price reads the first text fragment of the price element that starts with
// the currency symbol, e.g. "€250,000 250000€" -> 250000.
func (p *ListingParser) price(doc *goquery.Document) (int64, bool) {
	el := doc.Find(p.sel.Price).First()
	if el.Length() == 0 {
		return 0, false
	}

	var value int64
	var ok bool
	el.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		text := strings.TrimSpace(c.Text())
		if !strings.HasPrefix(text, p.sel.CurrencySymbol) {
			return true
		}
		value, ok = parsePrice(strings.TrimPrefix(text, p.sel.CurrencySymbol))
		return !ok
	})
	if text := strings.TrimSpace(el.Text()); !ok && strings.HasPrefix(text, p.sel.CurrencySymbol) {
		value, ok = parsePrice(strings.TrimPrefix(text, p.sel.CurrencySymbol))
	}
	return value, ok
}

func parsePrice(s string) (int64, bool) {
	token := strings.Fields(s)
	if len(token) == 0 {
		return 0, false
	}
	digits := strings.NewReplacer(",", "", ".", "", "\u00a0", "").Replace(token[0])
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (p *ListingParser) taxonomy(doc *goquery.Document, rec *models.RawRecord) {
	doc.Find(p.sel.TableRow).Each(func(_ int, row *goquery.Selection) {
		row.Find(p.sel.TableHeader).Each(func(_ int, th *goquery.Selection) {
			field, ok := models.FieldByLabel(strings.TrimSpace(th.Text()))
			if !ok {
				return
			}
			td := row.Find(p.sel.TableData).First()
			if td.Length() == 0 {
				return
			}
			html, err := goquery.OuterHtml(td)
			if err != nil {
				return
			}
			rec.Set(field, cellValue(html))
		})
	})
}

// cellValue sniffs the text of a serialized data cell: newlines and spaces
// are removed, then the text strictly between the first '>' and the second
// '<' is kept. "<td>\n 3 </td>" gives "3".
func cellValue(html string) string {
	s := strings.NewReplacer("\n", "", " ", "").Replace(strings.TrimSpace(html))
	start := strings.Index(s, ">")
	first := strings.Index(s, "<")
	if start < 0 || first < 0 {
		return ""
	}
	next := strings.Index(s[first+1:], "<")
	if next < 0 {
		return ""
	}
	end := first + 1 + next
	if end <= start {
		return ""
	}
	return s[start+1 : end]
}
