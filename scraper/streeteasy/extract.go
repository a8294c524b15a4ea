package streeteasy

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"streeteasy-monitor/models"
)

var (
	// cardSelector matches the CSS-module listing card wrappers on the
	// search-results page. The hashed class suffix changes between deploys.
	cardSelector   = cascadia.MustCompile(`li[class*="ListingCardsList_listCardWrapper"]`)
	anchorSelector = cascadia.MustCompile(`a[href]`)
	spanSelector   = cascadia.MustCompile(`span`)

	// unitPathRegexp captures the building slug and unit token of a detail URL.
	unitPathRegexp = regexp.MustCompile(`/building/([^/]+)/(\w+)`)
	// priceRegexp matches display prices such as "$3,450".
	priceRegexp = regexp.MustCompile(`^\$[\d,]*\d[\d,]*$`)
	// neighborhoodRegexp captures "in <Name>" up to a number, a pipe or the end.
	// \p{Zs} covers the no-break spaces left by &nbsp;.
	neighborhoodRegexp = regexp.MustCompile(` in ([A-Z][^|$]+?)(?:[\s\p{Zs}]+\d+|\||$)`)
)

const (
	minAddressLen = 11
	maxAddressLen = 79
)

// fieldStrategy tries to resolve one field from the card's text fragments.
type fieldStrategy func(fragments []string) (string, bool)

var (
	addressStrategies = []fieldStrategy{
		addressWithUnitOrStreet,
		addressWithDirection,
	}
	neighborhoodStrategies = []fieldStrategy{
		neighborhoodFromCaption,
	}
	listedByStrategies = []fieldStrategy{
		listedByAfterLabel,
	}
)

// Extractor turns search-results HTML into listings.
type Extractor struct {
	baseURL string
}

// NewExtractor creates an Extractor that resolves relative detail links
// against baseURL.
func NewExtractor(baseURL string) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract parses every listing card in body. Cards that cannot be parsed
// are skipped. It also returns the number of cards found.
func (e *Extractor) Extract(body []byte) ([]*models.Listing, int) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0
	}

	cards := doc.FindMatcher(cardSelector)
	listings := make([]*models.Listing, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		if l := e.ParseCard(card); l != nil {
			listings = append(listings, l)
		}
	})
	return listings, cards.Length()
}

// ParseCard extracts one listing from a card. It returns nil when the card
// has no detail link or no price.
func (e *Extractor) ParseCard(card *goquery.Selection) *models.Listing {
	href, id, ok := findUnitLink(card)
	if !ok {
		return nil
	}

	price, ok := findPrice(card)
	if !ok {
		return nil
	}

	fragments := textFragments(card)

	return &models.Listing{
		ID:           id,
		URL:          e.absoluteURL(href),
		Price:        price,
		Address:      resolve(addressStrategies, fragments),
		Neighborhood: resolve(neighborhoodStrategies, fragments),
		ListedBy:     resolve(listedByStrategies, fragments),
		IsFeatured:   isFeatured(fragments),
	}
}

// IdentifierFromURL derives the "{slug}_{unit}" identifier from a detail
// URL or path.
func IdentifierFromURL(u string) (string, bool) {
	m := unitPathRegexp.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	return m[1] + "_" + m[2], true
}

func (e *Extractor) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return e.baseURL + href
}

func findUnitLink(card *goquery.Selection) (href, id string, ok bool) {
	card.FindMatcher(anchorSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, _ := a.Attr("href")
		if candidate, matched := IdentifierFromURL(h); matched {
			href, id, ok = h, candidate, true
			return false
		}
		return true
	})
	return href, id, ok
}

func findPrice(card *goquery.Selection) (price int, ok bool) {
	card.FindMatcher(spanSelector).EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.Join(textFragments(span), "")
		if !priceRegexp.MatchString(text) {
			return true
		}
		n, err := strconv.Atoi(strings.NewReplacer("$", "", ",", "").Replace(text))
		if err != nil {
			return true
		}
		price, ok = n, true
		return false
	})
	return price, ok
}

// textFragments returns the trimmed, non-empty text nodes under s in
// document order. Script and style contents are ignored.
func textFragments(s *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

func resolve(strategies []fieldStrategy, fragments []string) string {
	for _, strategy := range strategies {
		if v, ok := strategy(fragments); ok {
			return v
		}
	}
	return models.NotAvailable
}

var streetKeywords = []string{"street", "avenue", "road", "st ", "ave "}

func addressWithUnitOrStreet(fragments []string) (string, bool) {
	return firstAddressCandidate(fragments, func(text string) bool {
		if strings.Contains(text, "#") {
			return true
		}
		lower := strings.ToLower(text)
		for _, kw := range streetKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	})
}

var directions = []string{"East", "West", "North", "South"}

func addressWithDirection(fragments []string) (string, bool) {
	return firstAddressCandidate(fragments, func(text string) bool {
		hasDirection := false
		for _, d := range directions {
			if strings.Contains(text, d) {
				hasDirection = true
				break
			}
		}
		return hasDirection && strings.IndexFunc(text, unicode.IsDigit) >= 0
	})
}

func firstAddressCandidate(fragments []string, match func(string) bool) (string, bool) {
	for _, text := range fragments {
		// "in Park Slope" style captions name the neighborhood.
		if strings.HasPrefix(text, "in ") {
			continue
		}
		n := utf8.RuneCountInString(text)
		if n < minAddressLen || n > maxAddressLen {
			continue
		}
		if match(text) {
			return text, true
		}
	}
	return "", false
}

func neighborhoodFromCaption(fragments []string) (string, bool) {
	m := neighborhoodRegexp.FindStringSubmatch(strings.Join(fragments, " "))
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

func listedByAfterLabel(fragments []string) (string, bool) {
	for i, text := range fragments {
		label := strings.TrimSpace(strings.TrimSuffix(text, ":"))
		if strings.EqualFold(label, "listing by") && i+1 < len(fragments) {
			return fragments[i+1], true
		}
	}
	return "", false
}

func isFeatured(fragments []string) bool {
	for _, text := range fragments {
		if strings.EqualFold(text, "featured") || strings.EqualFold(text, "sponsored") {
			return true
		}
	}
	return false
}
