// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed attaches embedding vectors to passages, backed by an
// external embedding provider and an optional SQLite vector cache.
package embed

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is a persistent key→vector store. The vector for a given
// (model, text) pair is deterministic, so concurrent writers racing on the
// same key are harmless: last write wins.
type Cache struct {
	db *sql.DB
}

// NewCache opens or creates the vector cache database at path.
func NewCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening vector cache: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS vectors (
		key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		vector TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheKey derives the lookup key for a (model, text) pair.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for (model, text), or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, model, text string) ([]float64, bool, error) {
	var encoded string
	err := c.db.QueryRowContext(ctx,
		`SELECT vector FROM vectors WHERE key = ?`, cacheKey(model, text),
	).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying vector cache: %w", err)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
		return nil, false, fmt.Errorf("decoding cached vector: %w", err)
	}
	return vec, true, nil
}

// Put stores the vector for (model, text), replacing any existing entry.
func (c *Cache) Put(ctx context.Context, model, text string, vec []float64) error {
	encoded, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encoding vector: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vectors (key, model, vector, created_at) VALUES (?, ?, ?, ?)`,
		cacheKey(model, text), model, string(encoded), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing vector cache: %w", err)
	}
	return nil
}
