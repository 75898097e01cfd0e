package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Archive persists samples to a local SQLite database so history
// survives restarts. The acquisition tier is stored with each value;
// consumers decide whether simulated samples belong in trend views.
type Archive struct {
	db *sql.DB
}

// OpenArchive creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenArchive(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("history: failed to open database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// migrate creates the samples table if it doesn't exist. Timestamps
// are stored as Unix nanoseconds so range scans order correctly.
func (a *Archive) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS samples (
			ts_unix_ns      INTEGER NOT NULL PRIMARY KEY,
			cpu_percent     REAL NOT NULL,
			cpu_tier        TEXT NOT NULL,
			memory_percent  REAL NOT NULL,
			memory_tier     TEXT NOT NULL,
			disk_percent    REAL NOT NULL,
			disk_tier       TEXT NOT NULL,
			network_percent REAL NOT NULL,
			network_tier    TEXT NOT NULL
		);
	`
	if _, err := a.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migration failed: %w", err)
	}
	return nil
}

// Insert stores one sample, replacing any row with the same
// timestamp so the no-duplicate-timestamps invariant holds on disk
// exactly as it does in memory.
func (a *Archive) Insert(s sysmetrics.Sample) error {
	_, err := a.db.Exec(`
		INSERT OR REPLACE INTO samples
			(ts_unix_ns, cpu_percent, cpu_tier, memory_percent, memory_tier,
			 disk_percent, disk_tier, network_percent, network_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Timestamp.UnixNano(),
		s.CPU.Percent, string(s.CPU.Tier),
		s.Memory.Percent, string(s.Memory.Tier),
		s.Disk.Percent, string(s.Disk.Tier),
		s.Network.Percent, string(s.Network.Tier),
	)
	if err != nil {
		return fmt.Errorf("history: insert failed: %w", err)
	}
	return nil
}

// LoadSince returns the archived samples at or after cutoff in
// timestamp order. Used at startup to reseed the in-memory window.
func (a *Archive) LoadSince(cutoff time.Time) ([]sysmetrics.Sample, error) {
	rows, err := a.db.Query(`
		SELECT ts_unix_ns, cpu_percent, cpu_tier, memory_percent, memory_tier,
		       disk_percent, disk_tier, network_percent, network_tier
		FROM samples WHERE ts_unix_ns >= ? ORDER BY ts_unix_ns ASC`,
		cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()

	var samples []sysmetrics.Sample
	for rows.Next() {
		var tsNano int64
		var s sysmetrics.Sample
		var cpuTier, memTier, diskTier, netTier string
		err := rows.Scan(&tsNano,
			&s.CPU.Percent, &cpuTier,
			&s.Memory.Percent, &memTier,
			&s.Disk.Percent, &diskTier,
			&s.Network.Percent, &netTier,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scan failed: %w", err)
		}
		s.Timestamp = time.Unix(0, tsNano)
		s.CPU.Tier = sysmetrics.Tier(cpuTier)
		s.Memory.Tier = sysmetrics.Tier(memTier)
		s.Disk.Tier = sysmetrics.Tier(diskTier)
		s.Network.Tier = sysmetrics.Tier(netTier)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// DeleteOlderThan removes rows older than d. Returns the number of
// rows removed.
func (a *Archive) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().Add(-d).UnixNano()
	result, err := a.db.Exec(`DELETE FROM samples WHERE ts_unix_ns < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (a *Archive) Close() error {
	return a.db.Close()
}
