package devblog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding the synced posts.
type Store struct {
	db *sql.DB
}

const postColumns = `slug, title, date, updated, tags, summary, content, html, hero_image, reading_minutes, published`

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the watcher resync while requests read. synchronous=NORMAL
	// is safe with WAL and skips an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var migrations = []string{
	`ALTER TABLE posts ADD COLUMN updated TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE posts ADD COLUMN html TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE posts ADD COLUMN hero_image TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE posts ADD COLUMN reading_minutes INTEGER NOT NULL DEFAULT 1`,
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_posts_date ON posts(date);
`)
	if err != nil {
		return err
	}
	// Databases created before rendered HTML was stored lack these columns.
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (BlogPost, error) {
	var p BlogPost
	var tags string
	var published int
	if err := r.Scan(&p.Slug, &p.Title, &p.Date, &p.Updated, &tags, &p.Summary, &p.Content, &p.HTML, &p.HeroImage, &p.ReadingMinutes, &published); err != nil {
		return BlogPost{}, err
	}
	p.Tags = ParseTags(tags)
	p.Link = "/blog/" + p.Slug + "/"
	p.Published = published == 1
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns published posts ordered by date descending. If tag is
// non-empty, results are filtered to posts carrying that tag.
func (s *Store) ListPosts(ctx context.Context, tag string) ([]BlogPost, error) {
	if tag == "" {
		return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY date DESC, slug`)
	}
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 AND instr(tags, ',' || ? || ',') > 0 ORDER BY date DESC, slug`, normalizeTag(tag))
}

// ListAllPosts returns every post, drafts included, newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]BlogPost, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, slug`)
}

// ListTags returns the sorted, deduplicated tags of published posts.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM posts WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a published post by slug, or sql.ErrNoRows.
func (s *Store) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = 1`, slug))
}

// GetPostAny returns a post by slug regardless of published status.
func (s *Store) GetPostAny(ctx context.Context, slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPost(ctx context.Context, db execer, p BlogPost) error {
	normalized := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = normalizeTag(t); t != "" {
			normalized = append(normalized, t)
		}
	}
	tagString := "," + strings.Join(normalized, ",") + ","
	published := 0
	if p.Published {
		published = 1
	}
	minutes := p.ReadingMinutes
	if minutes < 1 {
		minutes = 1
	}
	_, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Date, p.Updated, tagString, p.Summary, p.Content, p.HTML, p.HeroImage, minutes, published)
	return err
}

// SavePost upserts a single post. Tags are normalized to lowercase.
func (s *Store) SavePost(ctx context.Context, p BlogPost) error {
	return upsertPost(ctx, s.db, p)
}

// SetPublished flips a post between published and draft.
func (s *Store) SetPublished(ctx context.Context, slug string, published bool) error {
	v := 0
	if published {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET published = ? WHERE slug = ?`, v, slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// SyncResult counts what SyncPosts changed.
type SyncResult struct {
	Upserted int
	Removed  int
}

// SyncPosts makes the posts table match posts exactly: every post is
// upserted and rows whose slug is not in posts are deleted, in one
// transaction.
func (s *Store) SyncPosts(ctx context.Context, posts []BlogPost) (SyncResult, error) {
	var res SyncResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	keep := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if err := upsertPost(ctx, tx, p); err != nil {
			return res, fmt.Errorf("upsert %s: %w", p.Slug, err)
		}
		keep[p.Slug] = struct{}{}
		res.Upserted++
	}

	rows, err := tx.QueryContext(ctx, `SELECT slug FROM posts`)
	if err != nil {
		return res, err
	}
	var stale []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			rows.Close()
			return res, err
		}
		if _, ok := keep[slug]; !ok {
			stale = append(stale, slug)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, err
	}
	for _, slug := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
			return res, err
		}
		res.Removed++
	}
	return res, tx.Commit()
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
