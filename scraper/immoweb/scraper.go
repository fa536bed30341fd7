package immoweb

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"immoweb-scraper/config"
	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

// Scraper drives one run: search pages, listing links, listing pages,
// the deduplicated raw dataset and its taxonomy backfill.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	source PageSource
	links  *LinkExtractor
	parser *ListingParser
	pool   *utils.WorkerPool
	stats  *models.RunStats

	searchPace  Pace
	listingPace Pace
}

// New creates a Scraper reading pages from source.
func New(cfg *config.Config, logger *utils.Logger, source PageSource, sel Selectors, stats *models.RunStats) *Scraper {
	if stats == nil {
		stats = models.NewRunStats()
	}
	return &Scraper{
		cfg:         cfg,
		logger:      logger,
		source:      source,
		links:       NewLinkExtractor(sel, logger),
		parser:      NewListingParser(sel, cfg.MissingPriceAsZero, logger),
		pool:        utils.NewWorkerPool(cfg.MaxConcurrency, time.Duration(cfg.RateLimitMs)*time.Millisecond),
		stats:       stats,
		searchPace:  Pace{Min: cfg.SearchDelayMin, Max: cfg.SearchDelayMax},
		listingPace: Pace{Min: cfg.ListingDelayMin, Max: cfg.ListingDelayMax},
	}
}

// Stats returns the live counters of the run.
func (s *Scraper) Stats() *models.RunStats {
	return s.stats
}

// Scrape runs the whole collection pipeline. Failed pages and listings are
// logged, counted and skipped; the only error is an invalid page count or a
// cancelled context, in which case the records gathered so far are returned.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawRecord, error) {
	if s.cfg.PagesToScrape <= 0 {
		return nil, eris.Wrapf(config.ErrInvalidConfig, "pages to scrape must be positive, got %d", s.cfg.PagesToScrape)
	}

	searchURLs := SearchURLs(s.cfg.PagesToScrape)
	s.stats.Update(func(st *models.StatsSnapshot) { st.SearchPagesPlanned = len(searchURLs) })
	s.logger.Info("[immoweb] Starting scrape: %d search pages, run %s", len(searchURLs), s.stats.RunID())

	listingURLs, err := s.collectListingURLs(ctx, searchURLs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[immoweb] Discovered %d unique listing URLs", len(listingURLs))

	records, err := s.fetchListings(ctx, listingURLs)
	Backfill(records)

	s.logger.Info("[immoweb] Scrape complete: %d raw records", len(records))
	return records, err
}

func (s *Scraper) collectListingURLs(ctx context.Context, searchURLs []string) ([]string, error) {
	found := utils.NewURLSet()

	for _, u := range searchURLs {
		if err := ctx.Err(); err != nil {
			return found.Items(), err
		}

		page, err := s.source.Fetch(ctx, u, s.searchPace)
		if err != nil {
			s.recordFailure("search page", u, err)
			continue
		}
		s.stats.Update(func(st *models.StatsSnapshot) { st.SearchPagesFetched++ })

		links := s.links.Extract(u, page)
		if len(links) == 0 {
			s.stats.Update(func(st *models.StatsSnapshot) { st.StructuralDrift++ })
			continue
		}
		added := 0
		for _, l := range links {
			if found.Add(l) {
				added++
			}
		}
		s.logger.Debug("[immoweb] %s: %d links, %d new", u, len(links), added)
	}

	s.stats.Update(func(st *models.StatsSnapshot) { st.ListingsDiscovered = found.Size() })
	return found.Items(), nil
}

// fetchListings fetches and parses every listing through the worker pool.
// Results keep the order of urls whatever the pool size.
func (s *Scraper) fetchListings(ctx context.Context, urls []string) ([]*models.RawRecord, error) {
	parsed := make([]*models.RawRecord, len(urls))

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		i, u := i, u
		s.pool.Submit(func() {
			parsed[i] = s.fetchListing(ctx, u)
		})
	}
	s.pool.Wait()

	seen := make(map[string]struct{}, len(parsed))
	records := make([]*models.RawRecord, 0, len(parsed))
	for _, rec := range parsed {
		if rec == nil {
			continue
		}
		key := rec.Key()
		if _, dup := seen[key]; dup {
			s.logger.Debug("[immoweb] Duplicate record rejected: %s", rec.URL)
			s.stats.Update(func(st *models.StatsSnapshot) { st.DuplicatesRejected++ })
			continue
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}
	s.stats.Update(func(st *models.StatsSnapshot) { st.RecordsAppended = len(records) })

	return records, ctx.Err()
}

func (s *Scraper) fetchListing(ctx context.Context, url string) *models.RawRecord {
	page, err := s.source.Fetch(ctx, url, s.listingPace)
	if err != nil {
		s.recordFailure("listing", url, err)
		return nil
	}
	s.stats.Update(func(st *models.StatsSnapshot) { st.ListingsFetched++ })

	rec, err := s.parser.Parse(url, page)
	if err != nil {
		s.logger.Warn("[immoweb] Dropping %s: %v", url, err)
		s.stats.Update(func(st *models.StatsSnapshot) { st.ParseFailures++ })
		return nil
	}
	return rec
}

func (s *Scraper) recordFailure(stage, url string, err error) {
	switch {
	case errors.Is(err, ErrBlocked):
		s.stats.Update(func(st *models.StatsSnapshot) { st.Blocked++ })
		s.logger.Warn("[immoweb] Blocked on %s %s, skipping: %v", stage, url, err)
	case errors.Is(err, ErrNetworkFailure):
		s.stats.Update(func(st *models.StatsSnapshot) { st.NetworkFailures++ })
		s.logger.Warn("[immoweb] Network failure on %s %s, skipping: %v", stage, url, err)
	default:
		s.stats.Update(func(st *models.StatsSnapshot) { st.HTTPFailures++ })
		s.logger.Warn("[immoweb] Failed %s %s, skipping: %v", stage, url, err)
	}
}

// Backfill gives every record a null for each taxonomy field it lacks.
func Backfill(records []*models.RawRecord) {
	for _, r := range records {
		r.Backfill()
	}
}
