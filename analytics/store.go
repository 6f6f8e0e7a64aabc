package analytics

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists visits in its own SQLite database.
type Store struct {
	db   *sql.DB
	salt string
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			screen_width INTEGER NOT NULL DEFAULT 0,
			timestamp DATETIME NOT NULL,
			duration_sec INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// InitSalt loads the hashing salt, generating and persisting one on first
// run. It must be called before visits are recorded.
func InitSalt(ctx context.Context, s *Store) error {
	salt, err := s.GetSetting(ctx, "hash_salt")
	if err != nil {
		return fmt.Errorf("read hash salt: %w", err)
	}
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		salt = hex.EncodeToString(b)
		if err := s.SetSetting(ctx, "hash_salt", salt); err != nil {
			return fmt.Errorf("store hash salt: %w", err)
		}
	}
	s.salt = salt
	return nil
}

// HashIP returns the salted hash of ip.
func (s *Store) HashIP(ip string) string {
	return hash(s.salt, ip)
}

// VisitorID derives an anonymous visitor id from ip and user agent.
func (s *Store) VisitorID(ip, userAgent string) string {
	return hash(s.salt, ip, userAgent)
}

// GetSetting returns the value for key, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveVisit stores a human page view.
func (s *Store) SaveVisit(ctx context.Context, v Visit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (visitor_id, ip_hash, browser, os, device, path, referrer, screen_width, timestamp, duration_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.IPHash, v.Browser, v.OS, v.Device, v.Path, v.Referrer, v.ScreenWidth, v.Timestamp.UTC(), v.DurationSec)
	return err
}

// SaveBotVisit stores a crawler page view.
func (s *Store) SaveBotVisit(ctx context.Context, v BotVisit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_visits (bot_name, ip_hash, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		v.BotName, v.IPHash, v.UserAgent, v.Path, v.Timestamp.UTC())
	return err
}

// topLimit bounds each breakdown in Stats.
const topLimit = 10

// GetStats aggregates visits with from <= timestamp < to.
func (s *Store) GetStats(ctx context.Context, from, to time.Time) (*Stats, error) {
	from, to = from.UTC(), to.UTC()
	st := &Stats{From: from, To: to}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT visitor_id), COALESCE(CAST(AVG(NULLIF(duration_sec, 0)) AS INTEGER), 0)
		FROM visits WHERE timestamp >= ? AND timestamp < ?`, from, to)
	if err := row.Scan(&st.TotalViews, &st.UniqueVisitors, &st.AvgDuration); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits WHERE timestamp >= ? AND timestamp < ?`, from, to).Scan(&st.BotVisits); err != nil {
		return nil, fmt.Errorf("count bot visits: %w", err)
	}

	breakdowns := []struct {
		table, column string
		dst           *[]DimensionStat
	}{
		{"visits", "path", &st.TopPages},
		{"visits", "browser", &st.Browsers},
		{"visits", "os", &st.OS},
		{"visits", "device", &st.Devices},
		{"visits", "referrer", &st.Referrers},
		{"bot_visits", "bot_name", &st.TopBots},
	}
	for _, b := range breakdowns {
		rows, err := s.dimension(ctx, b.table, b.column, from, to)
		if err != nil {
			return nil, fmt.Errorf("%s breakdown: %w", b.column, err)
		}
		*b.dst = rows
	}

	daily, err := s.dailyViews(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily views: %w", err)
	}
	st.DailyViews = daily
	return st, nil
}

// dimension groups by a fixed, code-defined column; table and column are
// never user input.
func (s *Store) dimension(ctx context.Context, table, column string, from, to time.Time) ([]DimensionStat, error) {
	q := fmt.Sprintf(`SELECT %[2]s, COUNT(*) AS n FROM %[1]s WHERE timestamp >= ? AND timestamp < ? GROUP BY %[2]s ORDER BY n DESC, %[2]s LIMIT ?`, table, column)
	rows, err := s.db.QueryContext(ctx, q, from, to, topLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// dailyViews returns one entry per day in [from, to), zero-filled.
func (s *Store) dailyViews(ctx context.Context, from, to time.Time) ([]DailyView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*)
		FROM visits WHERE timestamp >= ? AND timestamp < ?
		GROUP BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []DailyView
	for d := truncateDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DailyView{Date: key, Views: counts[key]})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CleanupOldVisits deletes visits and bot visits older than retentionDays.
func (s *Store) CleanupOldVisits(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	var total int64
	for _, table := range []string{"visits", "bot_visits"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// StartCleanupScheduler runs CleanupOldVisits every interval until the
// returned stop function is called.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, logger *slog.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := s.CleanupOldVisits(context.Background(), retentionDays)
				if err != nil {
					logger.Error("analytics cleanup failed", "error", err)
					continue
				}
				logger.Debug("analytics cleanup", "deleted", n)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
