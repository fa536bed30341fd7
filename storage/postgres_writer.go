package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"immoweb-scraper/models"
)

const batchSize = 50

// cleanColumns are the listings_clean columns written by insertQuery, in order.
var cleanColumns = []string{
	"property_id", "run_id", "url", "locality", "province", "region", "postal_code",
	"type_of_property", "subtype", "price", "price_per_sqm", "living_surface",
	"plot_surface", "bedrooms", "bathrooms_total", "construction_year",
	"energy_class", "building_condition", "heating_type", "open_fire",
}

// PostgresWriter persists cleaned listings to PostgreSQL.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a writer tagging every row with runID.
func NewPostgresWriter(dsn, runID string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings_clean (
			property_id        BIGINT PRIMARY KEY,
			run_id             UUID         NOT NULL,
			url                TEXT         NOT NULL,
			locality           TEXT,
			province           TEXT,
			region             TEXT,
			postal_code        INTEGER,
			type_of_property   TEXT,
			subtype            TEXT,
			price              NUMERIC(14,2),
			price_per_sqm      NUMERIC(12,2),
			living_surface     NUMERIC(10,2),
			plot_surface       NUMERIC(12,2),
			bedrooms           INTEGER,
			bathrooms_total    INTEGER,
			construction_year  INTEGER,
			energy_class       TEXT,
			building_condition TEXT,
			heating_type       TEXT,
			open_fire          SMALLINT,
			updated_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_clean_run    ON listings_clean(run_id);
		CREATE INDEX IF NOT EXISTS idx_listings_clean_region ON listings_clean(region);
		CREATE INDEX IF NOT EXISTS idx_listings_clean_price  ON listings_clean(price);
	`)
	return err
}

// WriteClean upserts the records in batches, keyed by property ID.
// Records without a property ID are skipped.
func (pw *PostgresWriter) WriteClean(records []*models.CleanedRecord) error {
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := insertQuery(records[i:end], pw.runID)
		if query == "" {
			continue
		}
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch %d: %w", i/batchSize, err)
		}
	}
	return nil
}

// insertQuery builds one multi-row upsert for batch. It returns an empty
// query when no record can be stored.
func insertQuery(batch []*models.CleanedRecord, runID string) (string, []any) {
	n := len(cleanColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*n)

	for _, r := range batch {
		if r.PropertyID == nil {
			continue
		}
		base := len(valueStrings) * n
		placeholders := make([]string, n)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			int64(*r.PropertyID), runID, r.URL, r.Locality, r.Province, r.Region, toInt(r.PostalCode),
			r.TypeOfProperty, r.Subtype, r.Price, r.PricePerSqm, r.LivingSurface,
			r.PlotSurface, toInt(r.Bedrooms), toInt(r.BathroomsTotal), toInt(r.ConstructionYear),
			r.EnergyClass, r.BuildingCond, r.HeatingType, toInt(r.OpenFire),
		)
	}
	if len(valueStrings) == 0 {
		return "", nil
	}

	updates := make([]string, 0, n)
	for _, c := range cleanColumns[1:] {
		updates = append(updates, c+" = EXCLUDED."+c)
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
		INSERT INTO listings_clean (%s)
		VALUES %s
		ON CONFLICT (property_id) DO UPDATE SET %s
	`, strings.Join(cleanColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))
	return query, valueArgs
}

func toInt(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves the listings stored by every run, used by the insight service.
func (pw *PostgresWriter) FetchAll() ([]*models.CleanedRecord, error) {
	rows, err := pw.db.Query(`
		SELECT property_id, url, locality, province, region, postal_code, type_of_property,
		       subtype, price, price_per_sqm, living_surface, plot_surface
		FROM listings_clean
		ORDER BY property_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.CleanedRecord
	for rows.Next() {
		var (
			id                                  int64
			url                                 string
			locality, province, region          sql.NullString
			typ, subtype                        sql.NullString
			postal, price, perSqm, living, plot sql.NullFloat64
		)
		if err := rows.Scan(&id, &url, &locality, &province, &region, &postal, &typ,
			&subtype, &price, &perSqm, &living, &plot); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		pid := float64(id)
		records = append(records, &models.CleanedRecord{
			PropertyID:     &pid,
			URL:            url,
			Locality:       nullString(locality),
			Province:       nullString(province),
			Region:         nullString(region),
			PostalCode:     nullFloat(postal),
			TypeOfProperty: nullString(typ),
			Subtype:        nullString(subtype),
			Price:          nullFloat(price),
			PricePerSqm:    nullFloat(perSqm),
			LivingSurface:  nullFloat(living),
			PlotSurface:    nullFloat(plot),
		})
	}
	return records, rows.Err()
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
