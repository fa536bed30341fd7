package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immoweb-scraper/config"
	"immoweb-scraper/models"
	"immoweb-scraper/scraper/immoweb"
	"immoweb-scraper/server"
	"immoweb-scraper/services"
	"immoweb-scraper/storage"
	"immoweb-scraper/utils"
)

func main() {
	os.Exit(run())
}

// run executes one scrape and clean cycle and returns the process exit code.
func run() int {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration rejected: %v", err)
		return 2
	}

	logger.Info("=== Immoweb Scraping System starting ===")
	logger.Info("Config: pages %d | concurrency %d | fetch mode %s | retries %d",
		cfg.PagesToScrape, cfg.MaxConcurrency, cfg.FetchMode, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := models.NewRunStats()
	logger.Info("Run ID: %s", stats.RunID())

	if cfg.StatusAddr != "" {
		status := server.NewStatusServer(cfg.StatusAddr, stats, logger)
		status.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = status.Shutdown(shutdownCtx)
		}()
	}

	sel, err := immoweb.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		logger.Warn("Selectors file %q unusable, using defaults: %v", cfg.SelectorsFile, err)
		sel = immoweb.DefaultSelectors()
	}

	source, closeSource, err := newPageSource(cfg, sel, logger)
	if err != nil {
		logger.Error("Failed to start page source: %v", err)
		return 1
	}
	defer closeSource()

	rawRecords, err := immoweb.New(cfg, logger, source, sel, stats).Scrape(ctx)
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			logger.Error("Scrape aborted: %v", err)
			return 2
		}
		logger.Warn("Scrape interrupted, keeping %d records gathered so far: %v", len(rawRecords), err)
	}

	rawWriter, err := storage.NewRawCSVWriter(cfg.RawCSVPath)
	if err != nil {
		logger.Error("Failed to create raw CSV writer: %v", err)
		return 1
	}
	if err := writeRaw(rawWriter, rawRecords); err != nil {
		logger.Error("Raw CSV write failed: %v", err)
		return 1
	}
	logger.Info("Raw dataset: %d records saved to %s", len(rawRecords), cfg.RawCSVPath)

	cleanRecords := services.NewCleaner(logger).Clean(rawRecords)
	stats.Update(func(s *models.StatsSnapshot) { s.CleanedRecords = len(cleanRecords) })

	cleanWriter, err := storage.NewCleanCSVWriter(cfg.CleanCSVPath)
	if err != nil {
		logger.Error("Failed to create clean CSV writer: %v", err)
		return 1
	}
	if err := writeClean(cleanWriter, cleanRecords); err != nil {
		logger.Error("Clean CSV write failed: %v", err)
		return 1
	}
	logger.Info("Cleaned dataset: %d records saved to %s", len(cleanRecords), cfg.CleanCSVPath)

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN(), stats.RunID())
		if err != nil {
			logger.Warn("PostgreSQL unavailable, skipping database sink: %v", err)
		}
	}

	insightRecords := cleanRecords
	if pgWriter != nil {
		insightRecords = storeAndFetch(pgWriter, cleanRecords, logger)
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(insightRecords)
	insightSvc.Print(os.Stdout, report)

	stats.Update(func(s *models.StatsSnapshot) { s.Finished = true })
	snap := stats.Snapshot()
	fmt.Printf("  Done in %s. Raw CSV → %s | Clean CSV → %s | blocked %d | drift %d\n\n",
		time.Since(snap.StartedAt).Round(time.Second), cfg.RawCSVPath, cfg.CleanCSVPath,
		snap.Blocked, snap.StructuralDrift)
	return 0
}

// newPageSource returns the fetcher selected by FETCH_MODE and its cleanup.
func newPageSource(cfg *config.Config, sel immoweb.Selectors, logger *utils.Logger) (immoweb.PageSource, func(), error) {
	if cfg.FetchMode == config.FetchModeBrowser {
		bf, err := immoweb.NewBrowserFetcher(cfg, sel, logger)
		if err != nil {
			return nil, nil, err
		}
		return bf, bf.Close, nil
	}
	return immoweb.NewFetcher(cfg, logger), func() {}, nil
}

// storeAndFetch upserts the run into PostgreSQL and returns every stored
// listing, falling back to records when the database cannot serve them.
func storeAndFetch(pw *storage.PostgresWriter, records []*models.CleanedRecord, logger *utils.Logger) []*models.CleanedRecord {
	defer pw.Close()
	if err := pw.WriteClean(records); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return records
	}
	logger.Info("Clean listings stored in PostgreSQL (table: listings_clean)")

	stored, err := pw.FetchAll()
	if err != nil {
		logger.Error("Failed to fetch listings from DB for insights: %v", err)
		return records
	}
	return stored
}

func writeRaw(w storage.RawRecordWriter, records []*models.RawRecord) error {
	if err := w.WriteRaw(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func writeClean(w storage.CleanRecordWriter, records []*models.CleanedRecord) error {
	if err := w.WriteClean(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
