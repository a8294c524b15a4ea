package streeteasy

import (
	"fmt"
	"net/url"
	"strings"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/models"
)

// UnknownAreaError is returned when a neighborhood has no area code.
type UnknownAreaError struct {
	Name string
}

func (e *UnknownAreaError) Error() string {
	return fmt.Sprintf("unknown area %q", e.Name)
}

// BuildQuery renders spec as the site's pipe-delimited filter expression,
// e.g. "status=open|price=2000-4500|area=117|beds=1-2|baths>=1".
// Output depends only on spec.
func BuildQuery(spec models.FilterSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	codes := make([]string, 0, len(spec.Areas))
	for _, area := range spec.Areas {
		code, ok := AreaCode(area)
		if !ok {
			return "", apperrors.Config("build query", &UnknownAreaError{Name: area})
		}
		codes = append(codes, code)
	}

	tokens := []string{
		"status=open",
		fmt.Sprintf("price=%d-%d", spec.MinPrice, spec.MaxPrice),
	}
	if len(codes) > 0 {
		tokens = append(tokens, "area="+strings.Join(codes, ","))
	}
	tokens = append(tokens,
		fmt.Sprintf("beds=%d-%d", spec.MinBeds, spec.MaxBeds),
		fmt.Sprintf("baths>=%d", spec.Baths),
	)
	if len(spec.Amenities) > 0 {
		tokens = append(tokens, "amenities="+strings.Join(spec.Amenities, ","))
	}
	if spec.NoFee {
		tokens = append(tokens, "no_fee=1")
	}

	return strings.Join(tokens, "|"), nil
}

// BuildURL returns the search URL for spec under baseURL.
func BuildURL(baseURL string, spec models.FilterSpec) (string, error) {
	query, err := BuildQuery(spec)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/for-rent/nyc/" + url.PathEscape(query), nil
}
