package services

import (
	"strings"

	"streeteasy-monitor/models"
)

// Filter returns the listings that are neither in seen nor matched by an
// exclusion rule, in their original order. A rule matches when any of its
// substrings occurs literally (case-sensitive) in the listing's value for
// that field. Only the first occurrence of an identifier in the batch is
// considered; later copies are dropped even when the first was excluded. Neither the inputs nor the listings are modified.
func Filter(listings []*models.Listing, seen models.IDSet, rules models.ExclusionRules) []*models.Listing {
	kept := make(map[string]struct{}, len(listings))
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if l == nil || seen.Contains(l.ID) {
			continue
		}
		if _, dup := kept[l.ID]; dup {
			continue
		}
		kept[l.ID] = struct{}{}
		if Excluded(l, rules) {
			continue
		}
		result = append(result, l)
	}
	return result
}

// Excluded reports whether any rule matches l.
func Excluded(l *models.Listing, rules models.ExclusionRules) bool {
	for field, substrings := range rules {
		value := l.Field(field)
		for _, sub := range substrings {
			if strings.Contains(value, sub) {
				return true
			}
		}
	}
	return false
}
