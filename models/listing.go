package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"streeteasy-monitor/apperrors"
)

// NotAvailable is stored in best-effort fields the extractor could not resolve.
const NotAvailable = "N/A"

// Listing is one rental unit scraped from a search-results page.
// ID is derived from the building/unit segment of URL and is the dedup key.
type Listing struct {
	ID           string    `json:"listing_id"`
	URL          string    `json:"url"`
	Price        int       `json:"price"`
	Address      string    `json:"address"`
	Neighborhood string    `json:"neighborhood"`
	ListedBy     string    `json:"listed_by"`
	IsFeatured   bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Field returns the string form of the named field as used by exclusion
// rules. Unknown names yield "".
func (l *Listing) Field(name string) string {
	switch name {
	case "listing_id", "id", "identifier":
		return l.ID
	case "url":
		return l.URL
	case "price":
		return strconv.Itoa(l.Price)
	case "address":
		return l.Address
	case "neighborhood":
		return l.Neighborhood
	case "listed_by":
		return l.ListedBy
	case "is_featured":
		return strconv.FormatBool(l.IsFeatured)
	}
	return ""
}

// FilterSpec holds the search criteria for one run.
type FilterSpec struct {
	MinPrice  int      `yaml:"min_price" json:"min_price"`
	MaxPrice  int      `yaml:"max_price" json:"max_price"`
	MinBeds   int      `yaml:"min_beds" json:"min_beds"`
	MaxBeds   int      `yaml:"max_beds" json:"max_beds"`
	Baths     int      `yaml:"baths" json:"baths"`
	Areas     []string `yaml:"areas" json:"areas"`
	Amenities []string `yaml:"amenities" json:"amenities"`
	NoFee     bool     `yaml:"no_fee" json:"no_fee"`
}

// Validate checks the numeric bounds and area names. Area codes are
// resolved later by the query builder.
func (s FilterSpec) Validate() error {
	switch {
	case s.MinPrice < 0 || s.MaxPrice < 0:
		return apperrors.Config("price bounds must not be negative", nil)
	case s.MinPrice > s.MaxPrice:
		return apperrors.Config(fmt.Sprintf("min price %d exceeds max price %d", s.MinPrice, s.MaxPrice), nil)
	case s.MinBeds < 0 || s.MaxBeds < 0:
		return apperrors.Config("bed bounds must not be negative", nil)
	case s.MinBeds > s.MaxBeds:
		return apperrors.Config(fmt.Sprintf("min beds %d exceeds max beds %d", s.MinBeds, s.MaxBeds), nil)
	case s.Baths < 0:
		return apperrors.Config("baths must not be negative", nil)
	}
	for _, area := range s.Areas {
		if strings.TrimSpace(area) == "" {
			return apperrors.Config("blank area name", nil)
		}
	}
	return nil
}

// ExclusionRules maps a listing field name to substrings; a listing is
// excluded when any substring occurs in that field's value.
type ExclusionRules map[string][]string

// IDSet is a set of listing identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given identifiers.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add returns true if the identifier was newly added.
func (s IDSet) Add(id string) bool {
	if _, exists := s[id]; exists {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Contains(id string) bool {
	_, exists := s[id]
	return exists
}

// InsightReport holds statistics over the stored listings.
type InsightReport struct {
	TotalListings          int            `json:"total_listings"`
	AveragePrice           float64        `json:"avg_price"`
	MinPrice               int            `json:"min_price"`
	MaxPrice               int            `json:"max_price"`
	MostExpensive          *Listing       `json:"most_expensive,omitempty"`
	NeighborhoodsCount     int            `json:"neighborhoods_count"`
	ListingsByNeighborhood map[string]int `json:"listings_by_neighborhood"`
	Recent                 []*Listing     `json:"recent"`
}
