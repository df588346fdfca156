package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
	_ "modernc.org/sqlite"
)

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id           TEXT PRIMARY KEY,
			topic        TEXT NOT NULL,
			position     INTEGER NOT NULL DEFAULT 0,
			title        TEXT NOT NULL,
			summary      TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT 'General',
			published_at TEXT NOT NULL DEFAULT '',
			source_url   TEXT NOT NULL DEFAULT '',
			source_name  TEXT NOT NULL DEFAULT '',
			priority     TEXT NOT NULL DEFAULT '',
			fetched_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic, position);
		CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

// articleID identifies a record within a topic.
func articleID(topic string, a news.Article) string {
	h := sha256.Sum256([]byte(topic + "\x00" + a.Title + "\x00" + a.SourceURL))
	return hex.EncodeToString(h[:8])
}

// SaveTopic replaces the last-known articles for topic.
func (c *Cache) SaveTopic(topic string, articles []news.Article, fetchedAt time.Time) error {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles WHERE topic = ?", topic); err != nil {
		return fmt.Errorf("clearing topic %q: %w", topic, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, topic, position, title, summary, category, published_at, source_url, source_name, priority, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			category = excluded.category,
			published_at = excluded.published_at,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range articles {
		id := articleID(topic, a)
		_, err := stmt.Exec(id, topic, i, a.Title, a.Summary, string(a.Category), a.PublishedAt,
			a.SourceURL, a.SourceName, string(a.Priority), fetchedAt)
		if err != nil {
			return fmt.Errorf("saving article %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// TopicArticles returns the last-known articles for topic in their
// original order.
func (c *Cache) TopicArticles(topic string) ([]news.Article, error) {
	rows, err := c.GetArticles(QueryOpts{Topic: topic})
	if err != nil {
		return nil, err
	}
	out := make([]news.Article, len(rows))
	for i, r := range rows {
		out[i] = r.Article
	}
	return out, nil
}

func (c *Cache) GetArticles(opts QueryOpts) ([]Article, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, opts.Topic)
	}

	if !opts.Since.IsZero() {
		where = append(where, "fetched_at >= ?")
		args = append(args, opts.Since)
	}

	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, opts.Category)
	}

	if opts.Search != "" {
		where = append(where, "(title LIKE ? OR summary LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term)
	}

	query := `SELECT id, topic, position, title, summary, category, published_at, source_url, source_name, priority, fetched_at FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fetched_at DESC, topic, position"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := c.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var (
			a                  Article
			category, priority string
		)
		if err := rows.Scan(&a.ID, &a.Topic, &a.Position, &a.Title, &a.Summary, &category, &a.PublishedAt,
			&a.SourceURL, &a.SourceName, &priority, &a.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		a.Category = classify.Normalize(category)
		a.Priority = news.ParsePriority(priority)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Prune deletes articles fetched longer ago than olderThan.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := c.writeDB.Exec("DELETE FROM articles WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old articles: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		if _, err := c.writeDB.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats returns the article count and on-disk size of the database.
func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}

// GetMeta returns the value stored under key. ok is false when the key
// has never been set.
func (c *Cache) GetMeta(key string) (value string, ok bool, err error) {
	err = c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading meta %q: %w", key, err)
	}
	return value, true, nil
}

func (c *Cache) SetMeta(key, value string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing meta %q: %w", key, err)
	}
	return nil
}

func (c *Cache) SetLastRefresh(t time.Time) error {
	return c.SetMeta("last_refresh", t.Format(time.RFC3339))
}

// LastRefresh returns the time of the last successful cycle, or the zero
// time when none was recorded.
func (c *Cache) LastRefresh() time.Time {
	v, ok, err := c.GetMeta("last_refresh")
	if err != nil || !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpdateStreak records today as an active day and returns the number of
// consecutive days the dashboard has been opened.
func (c *Cache) UpdateStreak() (int, error) {
	today := time.Now().Format("2006-01-02")
	last, _, err := c.GetMeta("last_active_date")
	if err != nil {
		return 0, err
	}
	raw, _, err := c.GetMeta("streak_days")
	if err != nil {
		return 0, err
	}
	streak, _ := strconv.Atoi(raw)

	switch last {
	case today:
		if streak == 0 {
			streak = 1
		}
		return streak, nil
	case time.Now().AddDate(0, 0, -1).Format("2006-01-02"):
		streak++
	default:
		streak = 1
	}

	if err := c.SetMeta("last_active_date", today); err != nil {
		return 0, err
	}
	if err := c.SetMeta("streak_days", strconv.Itoa(streak)); err != nil {
		return 0, err
	}
	return streak, nil
}
