package services

import (
	"fmt"
	"sort"
	"strings"

	"streeteasy-monitor/models"
	"streeteasy-monitor/utils"
)

const recentLimit = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes statistics over listings, which are expected newest
// first as returned by the store.
func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByNeighborhood: make(map[string]int),
		Recent:                 []*models.Listing{},
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var total int
	var priced int
	for _, l := range listings {
		if l.Neighborhood != "" && l.Neighborhood != models.NotAvailable {
			report.ListingsByNeighborhood[l.Neighborhood]++
		}
		if l.Price <= 0 {
			continue
		}
		priced++
		total += l.Price
		if report.MinPrice == 0 || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
	}

	if priced > 0 {
		report.AveragePrice = round2(float64(total) / float64(priced))
	}
	report.NeighborhoodsCount = len(report.ListingsByNeighborhood)

	if len(listings) > recentLimit {
		report.Recent = listings[:recentLimit]
	} else {
		report.Recent = listings
	}

	s.logger.Debug("[insights] %d listings across %d neighborhoods", report.TotalListings, report.NeighborhoodsCount)
	return report
}

// Print writes a plain-text summary of r to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n%s\n  STREETEASY MONITOR SUMMARY\n%s\n\n", sep, sep)

	fmt.Printf("  Stored listings : %d\n", r.TotalListings)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average rent    : %s\n", usd(int(r.AveragePrice+0.5)))
		fmt.Printf("  Rent range      : %s - %s\n", usd(r.MinPrice), usd(r.MaxPrice))
	}
	fmt.Println()

	fmt.Printf("  Listings by neighborhood\n  %s\n", thin)
	if len(r.ListingsByNeighborhood) == 0 {
		fmt.Printf("  No neighborhood data\n")
	} else {
		type hoodCount struct {
			name  string
			count int
		}
		hoods := make([]hoodCount, 0, len(r.ListingsByNeighborhood))
		for name, cnt := range r.ListingsByNeighborhood {
			hoods = append(hoods, hoodCount{name, cnt})
		}
		sort.Slice(hoods, func(i, j int) bool {
			if hoods[i].count != hoods[j].count {
				return hoods[i].count > hoods[j].count
			}
			return hoods[i].name < hoods[j].name
		})
		for _, h := range hoods {
			fmt.Printf("  %-30s %s (%d)\n", truncate(h.name, 28), strings.Repeat("█", h.count), h.count)
		}
	}

	fmt.Printf("\n%s\n\n", sep)
}

// usd formats whole dollars with thousands separators, e.g. $3,450.
func usd(v int) string {
	s := fmt.Sprintf("%d", v)
	if v < 0 {
		return "-" + usd(-v)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
