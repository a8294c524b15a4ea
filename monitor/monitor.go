package monitor

import (
	"context"

	"github.com/google/uuid"

	"streeteasy-monitor/models"
	"streeteasy-monitor/notify"
	"streeteasy-monitor/storage"
	"streeteasy-monitor/utils"
)

// Searcher produces the batch of new, non-excluded listings for one run.
type Searcher interface {
	Run(ctx context.Context, spec models.FilterSpec, rules models.ExclusionRules) ([]*models.Listing, error)
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Found      int
	Notified   bool
	Persisted  int
	Duplicates int
	Failed     int
}

// Monitor drives a single search, notify and persist cycle.
type Monitor struct {
	searcher Searcher
	store    storage.ListingStore
	notifier notify.Notifier
	logger   *utils.Logger
	spec     models.FilterSpec
	rules    models.ExclusionRules
}

func New(searcher Searcher, store storage.ListingStore, notifier notify.Notifier, logger *utils.Logger,
	spec models.FilterSpec, rules models.ExclusionRules) *Monitor {
	return &Monitor{
		searcher: searcher,
		store:    store,
		notifier: notifier,
		logger:   logger,
		spec:     spec,
		rules:    rules,
	}
}

// Run searches once and notifies about the new listings. Listings are
// stored only after the notifier confirms delivery, so an undelivered batch
// is offered again on the next run. The returned error is non-nil only when
// the search itself could not run.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := m.logger.With("run", report.RunID)

	listings, err := m.searcher.Run(ctx, m.spec, m.rules)
	if err != nil {
		log.Error("[monitor] Search failed: %v", err)
		return report, err
	}
	report.Found = len(listings)

	if len(listings) == 0 {
		log.Info("[monitor] No new listings")
		return report, nil
	}

	log.Info("[monitor] Found %d new listing(s)", len(listings))
	if !m.notifier.Notify(ctx, listings) {
		log.Warn("[monitor] Notification not confirmed; %d listing(s) will be retried next run", len(listings))
		return report, nil
	}
	report.Notified = true

	for _, l := range listings {
		inserted, err := m.store.InsertIfAbsent(ctx, l)
		switch {
		case err != nil:
			report.Failed++
			log.Error("[monitor] Failed to save %s: %v", l.ID, err)
		case inserted:
			report.Persisted++
		default:
			report.Duplicates++
			log.Debug("[monitor] %s already stored", l.ID)
		}
	}

	log.Info("[monitor] Run complete: %d saved, %d duplicate, %d failed",
		report.Persisted, report.Duplicates, report.Failed)
	return report, nil
}
