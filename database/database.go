package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"simfinder/logging"
	"simfinder/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the fingerprint cache, creating the schema if needed
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		source_prefix TEXT NOT NULL DEFAULT '',
		format TEXT,
		width INTEGER,
		height INTEGER,
		created_at TEXT,
		modified_at TEXT,
		size INTEGER,
		hash_bits INTEGER,
		perceptual_hash TEXT,
		UNIQUE(path, source_prefix)
	);
	CREATE INDEX IF NOT EXISTS idx_path ON images(path);
	CREATE INDEX IF NOT EXISTS idx_perceptual_hash ON images(perceptual_hash);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", dbPath, err)
	}

	logging.DebugLog("Fingerprint cache ready: %s", dbPath)
	return db, nil
}

// LookupImage returns the cached entry for path within sourcePrefix, if any
func LookupImage(db *sql.DB, path string, sourcePrefix string) (*types.ImageInfo, error) {
	var info types.ImageInfo
	err := db.QueryRow(`
		SELECT id, path, source_prefix, format, width, height, modified_at, size, hash_bits, perceptual_hash
		FROM images WHERE path = ? AND source_prefix = ?`, path, sourcePrefix).Scan(
		&info.ID,
		&info.Path,
		&info.SourcePrefix,
		&info.Format,
		&info.Width,
		&info.Height,
		&info.ModifiedAt,
		&info.Size,
		&info.HashBits,
		&info.PerceptualHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error for %s: %w", path, err)
	}
	return &info, nil
}

// StoreImageInfo inserts or replaces the cache entry for an image
func StoreImageInfo(db *sql.DB, imageInfo types.ImageInfo) error {
	now := time.Now().Format(time.RFC3339)

	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO images (
			path, source_prefix, format, width, height, created_at, modified_at, size, hash_bits, perceptual_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", imageInfo.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		imageInfo.Path,
		imageInfo.SourcePrefix,
		imageInfo.Format,
		imageInfo.Width,
		imageInfo.Height,
		now,
		imageInfo.ModifiedAt,
		imageInfo.Size,
		imageInfo.HashBits,
		imageInfo.PerceptualHash,
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", imageInfo.Path, err)
	}

	return nil
}

// CacheStats contains statistics about the cached fingerprints
type CacheStats struct {
	TotalImages  int
	UniqueHashes int
}

// GetCacheStats retrieves statistics for one source, or all sources when sourcePrefix is empty
func GetCacheStats(db *sql.DB, sourcePrefix string) (*CacheStats, error) {
	var stats CacheStats

	totalQuery := "SELECT COUNT(*), COUNT(DISTINCT perceptual_hash) FROM images"
	var args []interface{}
	if sourcePrefix != "" {
		totalQuery += " WHERE source_prefix = ?"
		args = append(args, sourcePrefix)
	}

	if err := db.QueryRow(totalQuery, args...).Scan(&stats.TotalImages, &stats.UniqueHashes); err != nil {
		return nil, fmt.Errorf("failed to get cache stats: %w", err)
	}

	return &stats, nil
}
