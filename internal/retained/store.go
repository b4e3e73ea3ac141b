// Package retained implements the reset-surviving state store: per-channel
// extrema plus boot accounting, backed by a SQLite database. A restart of
// the process (watchdog-triggered or otherwise) finds the file intact; a
// cold deployment without the file starts from scratch.
package retained

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extrema (
	channel    TEXT PRIMARY KEY,
	min        REAL NOT NULL,
	max        REAL NOT NULL,
	seeded     INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS boot (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	count     INTEGER NOT NULL,
	last_boot INTEGER NOT NULL
);
`

// Store is a handle to the retained state database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the retained store at path. The returned bool is
// true on a cold start, i.e. when no retained database existed yet.
func Open(path string) (*Store, bool, error) {
	_, statErr := os.Stat(path)
	cold := os.IsNotExist(statErr)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open retained database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("failed to ping retained database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("failed to create retained schema: %w", err)
	}

	return &Store{db: db, path: path}, cold, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadExtrema returns the persisted extrema for a channel. A channel never
// seen before reports seeded=false.
func (s *Store) LoadExtrema(channel string) (min, max float64, seeded bool, err error) {
	var seededInt int
	row := s.db.QueryRow(`SELECT min, max, seeded FROM extrema WHERE channel = ?`, channel)
	err = row.Scan(&min, &max, &seededInt)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to load extrema for %s: %w", channel, err)
	}
	return min, max, seededInt != 0, nil
}

// SaveExtrema writes a channel's extrema back. Called on every update so
// the pair survives a warm restart.
func (s *Store) SaveExtrema(channel string, min, max float64, seeded bool) error {
	seededInt := 0
	if seeded {
		seededInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO extrema (channel, min, max, seeded, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET
			min = excluded.min,
			max = excluded.max,
			seeded = excluded.seeded,
			updated_at = excluded.updated_at`,
		channel, min, max, seededInt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save extrema for %s: %w", channel, err)
	}
	return nil
}

// RecordBoot increments the persisted boot counter and returns the new count
// along with how long the previous run lasted (zero on the first boot).
func (s *Store) RecordBoot(now time.Time) (count int64, lastRun time.Duration, err error) {
	var lastBoot int64
	row := s.db.QueryRow(`SELECT count, last_boot FROM boot WHERE id = 1`)
	err = row.Scan(&count, &lastBoot)
	switch {
	case err == sql.ErrNoRows:
		count = 0
		lastBoot = 0
	case err != nil:
		return 0, 0, fmt.Errorf("failed to load boot record: %w", err)
	}

	count++
	if lastBoot > 0 {
		lastRun = now.Sub(time.Unix(lastBoot, 0))
		if lastRun < 0 {
			lastRun = 0
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO boot (id, count, last_boot) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET count = excluded.count, last_boot = excluded.last_boot`,
		count, now.Unix())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to save boot record: %w", err)
	}
	return count, lastRun, nil
}
