package streeteasy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/config"
	"streeteasy-monitor/models"
	"streeteasy-monitor/services"
	"streeteasy-monitor/storage"
	"streeteasy-monitor/utils"
)

const defaultTimeout = 30 * time.Second

// SeenSource supplies the identifiers that have already been stored.
type SeenSource interface {
	ExistingIDs(ctx context.Context) (models.IDSet, error)
}

type runState string

const (
	stateIdle        runState = "idle"
	stateFetching    runState = "fetching"
	stateFetchFailed runState = "fetch-failed"
	stateParsing     runState = "parsing"
	stateFiltering   runState = "filtering"
	stateDone        runState = "done"
)

// Scraper fetches one search-results page and turns it into the batch of
// new, non-excluded listings.
type Scraper struct {
	cfg       *config.Config
	logger    *utils.Logger
	seen      SeenSource
	extractor *Extractor
	raw       storage.RawListingWriter

	state runState
}

// New creates a ready-to-use StreetEasy Scraper.
func New(cfg *config.Config, logger *utils.Logger, seen SeenSource) *Scraper {
	return &Scraper{
		cfg:       cfg,
		logger:    logger,
		seen:      seen,
		extractor: NewExtractor(cfg.SearchBaseURL),
		state:     stateIdle,
	}
}

// SetRawWriter records every extracted listing, before filtering, to w.
func (s *Scraper) SetRawWriter(w storage.RawListingWriter) {
	s.raw = w
}

// Run builds the search URL for spec, fetches it once and returns the new
// listings that survive rules. Transport failures yield an empty batch and
// a nil error; only configuration problems and an unreadable seen set are
// returned as errors.
func (s *Scraper) Run(ctx context.Context, spec models.FilterSpec, rules models.ExclusionRules) ([]*models.Listing, error) {
	s.state = stateIdle

	pageURL, err := BuildURL(s.cfg.SearchBaseURL, spec)
	if err != nil {
		return nil, err
	}

	seen, err := s.seen.ExistingIDs(ctx)
	if err != nil {
		return nil, apperrors.Persistence("load existing listing ids", err)
	}

	s.logger.Info("[streeteasy] Searching %s", pageURL)
	s.transition(stateFetching)

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.logger.Error("[streeteasy] Error fetching listings: %v", err)
		s.transition(stateFetchFailed)
		s.transition(stateDone)
		return []*models.Listing{}, nil
	}

	s.transition(stateParsing)
	extracted, cards := s.extractor.Extract(body)
	s.logger.Info("[streeteasy] Parsed %d of %d listing cards", len(extracted), cards)
	if cards == 0 {
		s.logger.Warn("[streeteasy] No listing cards found; the page layout may have changed")
	}
	s.recordRaw(extracted)

	s.transition(stateFiltering)
	listings := services.Filter(extracted, seen, rules)
	s.logger.Info("[streeteasy] %d new listings after filtering (%d already seen or excluded)",
		len(listings), len(extracted)-len(listings))

	s.transition(stateDone)
	return listings, nil
}

// fetch performs the single GET for pageURL and returns the body of a 200
// response. Cancelling ctx aborts the request in flight.
func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Transport("request cancelled", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	timeout := s.cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Referer", s.cfg.SearchBaseURL+"/")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Cache-Control", "max-age=0")
	})

	var (
		body     []byte
		status   int
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if status != 0 && status != http.StatusOK {
		return nil, apperrors.Transport(fmt.Sprintf("received status code %d", status), fetchErr)
	}
	if fetchErr != nil {
		return nil, apperrors.Transport("request failed", fetchErr)
	}
	return body, nil
}

// contextTransport cancels outgoing requests when ctx is done. The request's
// own context, which carries the client timeout, is kept as the parent.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCtx, cancel := context.WithCancel(req.Context())
	context.AfterFunc(t.ctx, cancel)
	return t.base.RoundTrip(req.WithContext(reqCtx))
}

func (s *Scraper) recordRaw(listings []*models.Listing) {
	if s.raw == nil || len(listings) == 0 {
		return
	}
	if err := s.raw.WriteRaw(listings); err != nil {
		s.logger.Warn("[streeteasy] Raw listing write failed: %v", err)
	}
}

func (s *Scraper) transition(to runState) {
	s.logger.Debug("[streeteasy] %s -> %s", s.state, to)
	s.state = to
}
