package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS progress_records (
	user_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, key)
);
CREATE INDEX IF NOT EXISTS idx_progress_records_expires
	ON progress_records (expires_at);
`

type progressRecord struct {
	UserID    string    `db:"user_id"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	ExpiresAt time.Time `db:"expires_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLiteStore persists records in a local SQLite file.
type SQLiteStore struct {
	db     *sqlx.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewSQLiteStore opens (and if necessary initializes) the store at path.
// Use ":memory:" for tests.
func NewSQLiteStore(path string, ttl time.Duration, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl, logger: logger}, nil
}

// Write implements Store.
func (s *SQLiteStore) Write(ctx context.Context, userID, key string, value interface{}) error {
	if userID == "" || key == "" {
		return errors.New("kvstore: user id and key are required")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress_records (user_id, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, key) DO UPDATE
		SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		userID, key, string(raw), now.Add(s.ttl), now)
	if err != nil {
		return fmt.Errorf("kvstore: write %q: %w", key, err)
	}
	return nil
}

// Read implements Store. Missing, expired, and undecodable records all read
// as absent.
func (s *SQLiteStore) Read(ctx context.Context, userID, key string, dest interface{}) bool {
	var rec progressRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT user_id, key, value, expires_at, updated_at
		FROM progress_records WHERE user_id = $1 AND key = $2`,
		userID, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("kvstore read failed, treating as absent",
				"key", key, "error", err)
		}
		return false
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		return false
	}

	if err := json.Unmarshal([]byte(rec.Value), dest); err != nil {
		s.logger.Warn("kvstore record undecodable, treating as absent",
			"key", key, "error", err)
		return false
	}
	return true
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, userID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_records WHERE user_id = $1 AND key = $2`, userID, key)
	if err != nil {
		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}
	return nil
}

// PurgeExpired implements Store.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_records WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("kvstore: purge expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
