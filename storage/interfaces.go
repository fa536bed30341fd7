package storage

import "immoweb-scraper/models"

// RawRecordWriter persists the raw dataset.
type RawRecordWriter interface {
	WriteRaw(records []*models.RawRecord) error
	Close() error
}

// CleanRecordWriter persists the cleaned dataset.
type CleanRecordWriter interface {
	WriteClean(records []*models.CleanedRecord) error
	Close() error
}
