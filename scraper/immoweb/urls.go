package immoweb

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"immoweb-scraper/utils"
)

const (
	// Origin is the scheme and host every listing URL must resolve to.
	Origin   = "https://www.immoweb.be"
	siteHost = "www.immoweb.be"
)

// SearchKinds are the property kinds crawled, in crawl order.
var SearchKinds = []string{"house", "apartment"}

// SearchURLs returns the search result pages 1..pages for every kind,
// deduplicated in first-seen order.
func SearchURLs(pages int) []string {
	set := utils.NewURLSet()
	for page := 1; page <= pages; page++ {
		for _, kind := range SearchKinds {
			set.Add(fmt.Sprintf("%s/en/search/%s/for-sale?countries=BE&isALifeAnnuitySale=false&page=%d&orderBy=relevance",
				Origin, kind, page))
		}
	}
	return set.Items()
}

// Absolutize turns a site-relative href into an absolute URL on Origin.
func Absolutize(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return Origin + href
	default:
		return Origin + "/" + href
	}
}

// NormalizeListingURL strips query and fragment and reports whether the URL
// points at the site host and matches none of the excluded patterns.
func NormalizeListingURL(raw string, excluded []string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host != siteHost {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	out := u.String()
	for _, p := range excluded {
		if p != "" && strings.Contains(out, p) {
			return "", false
		}
	}
	return out, true
}

// ListingPath holds the identifiers encoded in a listing URL.
type ListingPath struct {
	PropertyID   string
	PostalCode   string
	LocalityName string
	Subtype      string
}

// ParseListingPath reads the identifiers from the path of a listing URL,
// which has the shape /en/classified/<subtype>/for-sale/<locality>/<postal>/<id>.
// Offsets count back from the last segment: id -1, postal -2, locality -3,
// subtype -5. Segments keep their percent-encoding. This is the only place
// that knows the site's URL layout.
func ParseListingPath(rawURL string) (ListingPath, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ListingPath{}, eris.Wrapf(ErrParse, "listing url %q: %v", rawURL, err)
	}
	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segs) < 5 {
		return ListingPath{}, eris.Wrapf(ErrParse, "listing url %q: %d path segments, need at least 5", rawURL, len(segs))
	}
	at := func(offset int) string { return segs[len(segs)+offset] }
	return ListingPath{
		PropertyID:   at(-1),
		PostalCode:   at(-2),
		LocalityName: at(-3),
		Subtype:      at(-5),
	}, nil
}
