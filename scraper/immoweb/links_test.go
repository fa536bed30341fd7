package immoweb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const searchPage = `<html><body>
<a href="/en/classified/apartment/for-sale/ixelles/1050/123?searchId=abc#gallery">Flat</a>
<a class="card__title-link" href="https://www.immoweb.be/en/classified/apartment/for-sale/ixelles/1050/123">Flat again</a>
<a class="card__title-link" href="https://www.immoweb.be/en/classified/new-real-estate-project-apartments/for-sale/gent/9000/999">Project</a>
<a href="https://elsewhere.example/en/classified/house/for-sale/gent/9000/5">Other site</a>
<a class="card__title-link" href="https://www.immoweb.be/fr/annonce/maison/a-vendre/liege/4000/77">Maison</a>
<a href="/en/search/house/for-sale?page=2">Next</a>
<a name="anchor-without-href">x</a>
</body></html>`

func TestExtractListingLinks(t *testing.T) {
	e := NewLinkExtractor(DefaultSelectors(), quietLogger())
	got := e.Extract("search", []byte(searchPage))

	want := []string{
		"https://www.immoweb.be/en/classified/apartment/for-sale/ixelles/1050/123",
		"https://www.immoweb.be/fr/annonce/maison/a-vendre/liege/4000/77",
	}
	if len(got) != len(want) {
		t.Fatalf("Extract() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestExtractNeverReturnsDuplicatesOrProjects(t *testing.T) {
	e := NewLinkExtractor(DefaultSelectors(), quietLogger())
	seen := map[string]bool{}
	for _, l := range e.Extract("search", []byte(searchPage)) {
		if seen[l] {
			t.Errorf("duplicate link %q", l)
		}
		seen[l] = true
		if strings.Contains(l, "new-real-estate-project") {
			t.Errorf("excluded link %q returned", l)
		}
	}
}

func TestExtractEmptyPageIsDrift(t *testing.T) {
	e := NewLinkExtractor(DefaultSelectors(), quietLogger())
	if got := e.Extract("search", []byte("<html><body><p>captcha</p></body></html>")); len(got) != 0 {
		t.Errorf("Extract() = %v; want no links", got)
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/en/classified/house/for-sale/gent/9000/1", Origin + "/en/classified/house/for-sale/gent/9000/1"},
		{"/", Origin + "/"},
		{"//www.immoweb.be/en/x", "https://www.immoweb.be/en/x"},
		{"https://www.immoweb.be/en/x", "https://www.immoweb.be/en/x"},
		{"en/x", Origin + "/en/x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Absolutize(tt.href); got != tt.want {
			t.Errorf("Absolutize(%q) = %q; want %q", tt.href, got, tt.want)
		}
	}
}

func TestNormalizeListingURL(t *testing.T) {
	excluded := DefaultSelectors().ExcludedPatterns
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://www.immoweb.be/en/classified/house/for-sale/gent/9000/1?x=1#y", "https://www.immoweb.be/en/classified/house/for-sale/gent/9000/1", true},
		{"https://immoweb.example/en/classified/house/for-sale/gent/9000/1", "", false},
		{"https://www.immoweb.be/en/classified/new-real-estate-project-houses/for-sale/gent/9000/1", "", false},
		{"::not a url", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeListingURL(tt.in, excluded)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeListingURL(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSearchURLs(t *testing.T) {
	urls := SearchURLs(3)
	if len(urls) != 6 {
		t.Fatalf("len(SearchURLs(3)) = %d; want 6", len(urls))
	}
	if !strings.Contains(urls[0], "/search/house/") || !strings.Contains(urls[0], "page=1&") {
		t.Errorf("first URL = %q; want house page 1", urls[0])
	}
	if !strings.Contains(urls[1], "/search/apartment/") || !strings.Contains(urls[5], "page=3&") {
		t.Errorf("unexpected order: %v", urls)
	}
	if got := SearchURLs(0); len(got) != 0 {
		t.Errorf("SearchURLs(0) = %v; want none", got)
	}
}

func TestParseListingPath(t *testing.T) {
	got, err := ParseListingPath("https://www.immoweb.be/en/classified/apartment/for-sale/ixelles/1050/123")
	if err != nil {
		t.Fatalf("ParseListingPath: %v", err)
	}
	want := ListingPath{PropertyID: "123", PostalCode: "1050", LocalityName: "ixelles", Subtype: "apartment"}
	if got != want {
		t.Errorf("ParseListingPath() = %+v; want %+v", got, want)
	}

	enc, err := ParseListingPath("https://www.immoweb.be/en/classified/house/for-sale/li%C3%A8ge/4000/9")
	if err != nil || enc.LocalityName != "li%C3%A8ge" {
		t.Errorf("locality = %q, err %v; want percent-encoded segment kept", enc.LocalityName, err)
	}

	if _, err := ParseListingPath("https://www.immoweb.be/en/123"); err == nil {
		t.Error("short path should be rejected")
	}
}

func TestLoadSelectorsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	yaml := "price: span.price\nopen_fire_keywords:\n  - fireplace\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	sel, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	if sel.Price != "span.price" {
		t.Errorf("Price = %q; want span.price", sel.Price)
	}
	if len(sel.OpenFireKeywords) != 1 || sel.OpenFireKeywords[0] != "fireplace" {
		t.Errorf("OpenFireKeywords = %v", sel.OpenFireKeywords)
	}
	if sel.Description != DefaultSelectors().Description {
		t.Errorf("Description should keep its default, got %q", sel.Description)
	}

	if _, err := LoadSelectors(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should be an error")
	}
}
