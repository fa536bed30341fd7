package immoweb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Selectors are the site-specific hooks the extractor and parser rely on.
// They can be replaced from a YAML file produced by the selector authoring
// workflow without touching code.
type Selectors struct {
	// ListingPathPatterns are path fragments that identify a listing page.
	ListingPathPatterns []string `yaml:"listing_path_patterns"`
	// TitleLinkClasses are anchor classes used by result cards for the listing link.
	TitleLinkClasses    []string `yaml:"title_link_classes"`
	// ExcludedPatterns drop a listing URL when any of them is a substring.
	ExcludedPatterns    []string `yaml:"excluded_patterns"`

	Description      string   `yaml:"description"`
	OpenFireKeywords []string `yaml:"open_fire_keywords"`
	Price            string   `yaml:"price"`
	CurrencySymbol   string   `yaml:"currency_symbol"`

	TableRow    string `yaml:"table_row"`
	TableHeader string `yaml:"table_header"`
	TableData   string `yaml:"table_data"`

	BlockedTitles []string `yaml:"blocked_titles"`
}

// DefaultSelectors returns the selectors matching the live site.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingPathPatterns: []string{"/classified/", "/en/classified/", "/property/"},
		TitleLinkClasses:    []string{"card__title-link", "search-results__item-link", "card--result__link"},
		ExcludedPatterns:    []string{"new-real-estate-project"},

		Description:      "#classified-description-content-text p",
		OpenFireKeywords: []string{"open haard", "cheminée", "feu ouvert", "open fire"},
		Price:            "p.classified__price",
		CurrencySymbol:   "€",

		TableRow:    "tr",
		TableHeader: "th",
		TableData:   "td",

		BlockedTitles: []string{"access denied", "attention required", "just a moment"},
	}
}

// LoadSelectors returns the defaults overlaid with the non-empty entries of
// the YAML file at path. An empty path yields the defaults.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("selectors: read %s: %w", path, err)
	}

	var file Selectors
	if err := yaml.Unmarshal(data, &file); err != nil {
		return sel, fmt.Errorf("selectors: decode %s: %w", path, err)
	}

	overlayList(&sel.ListingPathPatterns, file.ListingPathPatterns)
	overlayList(&sel.TitleLinkClasses, file.TitleLinkClasses)
	overlayList(&sel.ExcludedPatterns, file.ExcludedPatterns)
	overlayList(&sel.OpenFireKeywords, file.OpenFireKeywords)
	overlayList(&sel.BlockedTitles, file.BlockedTitles)
	overlayString(&sel.Description, file.Description)
	overlayString(&sel.Price, file.Price)
	overlayString(&sel.CurrencySymbol, file.CurrencySymbol)
	overlayString(&sel.TableRow, file.TableRow)
	overlayString(&sel.TableHeader, file.TableHeader)
	overlayString(&sel.TableData, file.TableData)

	return sel, nil
}

func overlayList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func overlayString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
