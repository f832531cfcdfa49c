// Package postgis stores features in PostgreSQL/PostGIS and asks the database
// for reference distances to check the engine against.
package postgis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1F47E/geo-distance/pkg/feature"
	"github.com/1F47E/geo-distance/pkg/geo"
	_ "github.com/lib/pq"
)

const (
	tableName = "geo_features"
	batchSize = 10000
)

// ErrNotFound is returned when a feature id is not in the store
var ErrNotFound = errors.New("feature not found")

// Options holds the connection settings
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (o Options) DSN() string {
	sslmode := o.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.User, o.Password, o.Database, sslmode)
}

// FeatureStore is a PostGIS table of features
type FeatureStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFeatureStore opens and pings a PostGIS connection
func NewFeatureStore(ctx context.Context, opts Options, logger *slog.Logger) (*FeatureStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &FeatureStore{db: db, logger: logger}, nil
}

// schemaStatements recreates the features table. Circles keep their center
// in geom and their radius in radius_m.
func schemaStatements() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`DROP TABLE IF EXISTS ` + tableName + `;`,
		`CREATE TABLE ` + tableName + ` (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			geom GEOMETRY(GEOMETRY, 4326) NOT NULL,
			radius_m DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
	}
}

// InitSchema creates the features table, dropping any previous one
func (s *FeatureStore) InitSchema(ctx context.Context) error {
	for _, query := range schemaStatements() {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	s.logger.Debug("schema initialized", "table", tableName)
	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column
func (s *FeatureStore) CreateSpatialIndex(ctx context.Context) error {
	start := time.Now()
	query := `CREATE INDEX IF NOT EXISTS idx_` + tableName + `_geom ON ` + tableName + ` USING GIST(geom);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	// Analyze table for better query planning
	if _, err := s.db.ExecContext(ctx, `ANALYZE `+tableName+`;`); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	s.logger.Debug("spatial index created", "elapsed", time.Since(start))
	return nil
}

const insertQuery = `INSERT INTO ` + tableName + ` (id, kind, geom, radius_m)
	VALUES ($1, $2, ST_GeomFromText($3, 4326), $4)`

// BulkInsertFeatures inserts features in batched transactions
func (s *FeatureStore) BulkInsertFeatures(ctx context.Context, features []*feature.Feature) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	inserted := 0
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}

		wkt, err := EncodeWKT(f.Geometry)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("feature %s: %w", f.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.Kind().String(), wkt, radiusOf(f.Geometry)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert feature %s: %w", f.ID, err)
		}
		inserted++

		// Commit batch
		if inserted%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			s.logger.Debug("committed batch", "inserted", inserted)

			tx, err = s.db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			stmt, err = tx.PrepareContext(ctx, insertQuery)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to prepare statement: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}
	s.logger.Debug("inserted features", "count", inserted)
	return nil
}

// referenceQuery computes the boundary distance of two stored features the
// way the engine does: planar degrees scaled by a constant, circles reduced
// by their radius and clamped at zero.
const referenceQuery = `SELECT GREATEST(0,
		ST_Distance(a.geom, b.geom) * $3 - a.radius_m - b.radius_m)
	FROM ` + tableName + ` a, ` + tableName + ` b
	WHERE a.id = $1 AND b.id = $2`

// ReferenceDistance returns the database's boundary distance in meters
// between two stored features
func (s *FeatureStore) ReferenceDistance(ctx context.Context, idA, idB string) (float64, error) {
	var distance float64
	err := s.db.QueryRowContext(ctx, referenceQuery, idA, idB, geo.MetersPerDegree).Scan(&distance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s or %s: %w", idA, idB, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query distance: %w", err)
	}
	return distance, nil
}

// Count returns the number of stored features
func (s *FeatureStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count features: %w", err)
	}
	return count, nil
}

// StoreStats describes the feature table after loading
type StoreStats struct {
	DatabaseSize string
	TableSize    string
	IndexSize    string
	RowCount     int64
}

const (
	databaseSizeQuery = `SELECT pg_size_pretty(pg_database_size(current_database()))`
	tableSizeQuery    = `
		SELECT
			pg_size_pretty(pg_total_relation_size($1)) as total_size,
			pg_size_pretty(pg_indexes_size($1)) as index_size
	`
)

// Stats returns database size and table statistics
func (s *FeatureStore) Stats(ctx context.Context) (StoreStats, error) {
	var stats StoreStats

	if err := s.db.QueryRowContext(ctx, databaseSizeQuery).Scan(&stats.DatabaseSize); err != nil {
		return StoreStats{}, fmt.Errorf("failed to get database size: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, tableSizeQuery, tableName).Scan(&stats.TableSize, &stats.IndexSize); err != nil {
		return StoreStats{}, fmt.Errorf("failed to get table size: %w", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return StoreStats{}, err
	}
	stats.RowCount = count

	return stats, nil
}

// Close closes the database connection
func (s *FeatureStore) Close() error {
	return s.db.Close()
}
