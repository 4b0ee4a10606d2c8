// Package store is the sqlite-backed document store behind the content
// service: source articles, figure overviews, per-category descriptions and
// curated timelines.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"factline/internal/timeline"
)

// MaxIDsPerQuery caps the ids in one equality (IN) lookup. Batch requests are
// chunked under it and the chunks queried in parallel.
const MaxIDsPerQuery = 30

var (
	// ErrNoFigure means the figure id is unknown.
	ErrNoFigure = errors.New("figure not found")
	// ErrNoTimeline means the figure exists but has no curated timeline yet.
	// Distinct from ErrNoFigure so the UI can say which.
	ErrNoTimeline = errors.New("no timeline content")
)

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
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

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			sub_title      TEXT NOT NULL DEFAULT '',
			body           TEXT NOT NULL DEFAULT '',
			source         TEXT NOT NULL,
			link           TEXT NOT NULL,
			image_urls     TEXT NOT NULL DEFAULT '[]',
			image_captions TEXT NOT NULL DEFAULT '[]',
			send_date      TEXT NOT NULL DEFAULT '',
			fetched_at     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);

		CREATE TABLE IF NOT EXISTS figures (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			main_overview TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS category_descriptions (
			figure_id   TEXT NOT NULL,
			category    TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (figure_id, category)
		);

		CREATE TABLE IF NOT EXISTS timelines (
			figure_id  TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

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

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *Store) UpsertArticles(articles []timeline.Article) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, title, sub_title, body, source, link, image_urls, image_captions, send_date, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			sub_title = excluded.sub_title,
			body = excluded.body,
			image_urls = excluded.image_urls,
			image_captions = excluded.image_captions,
			send_date = excluded.send_date,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range articles {
		urls, err := json.Marshal(orEmpty(a.ImageURLs))
		if err != nil {
			return err
		}
		captions, err := json.Marshal(orEmpty(a.ImageCaptions))
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(a.ID, a.Title, a.SubTitle, a.Body, a.Source, a.Link, string(urls), string(captions), a.SendDate, now); err != nil {
			return fmt.Errorf("upserting article %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

// ArticlesByIDs resolves ids to articles, chunking the lookup at
// MaxIDsPerQuery and running the chunks in parallel. Unknown ids are simply
// absent from the result.
func (s *Store) ArticlesByIDs(ids []string) (map[string]timeline.Article, error) {
	if len(ids) == 0 {
		return map[string]timeline.Article{}, nil
	}

	var chunks [][]string
	for len(ids) > 0 {
		n := MaxIDsPerQuery
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}

	var (
		mu   sync.Mutex
		out  = make(map[string]timeline.Article)
		errs []error
		wg   sync.WaitGroup
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			got, err := s.articlesChunk(chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for id, a := range got {
				out[id] = a
			}
		}(chunk)
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	return out, nil
}

func (s *Store) articlesChunk(ids []string) (map[string]timeline.Article, error) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT id, title, sub_title, body, source, link, image_urls, image_captions, send_date
		FROM articles WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]timeline.Article)
	for rows.Next() {
		var a timeline.Article
		var urls, captions string
		if err := rows.Scan(&a.ID, &a.Title, &a.SubTitle, &a.Body, &a.Source, &a.Link, &urls, &captions, &a.SendDate); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		json.Unmarshal([]byte(urls), &a.ImageURLs)
		json.Unmarshal([]byte(captions), &a.ImageCaptions)
		out[a.ID] = a
	}
	return out, rows.Err()
}

// UpsertFigure writes a figure's identity and overview text.
func (s *Store) UpsertFigure(figureID, name, mainOverview string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO figures (id, name, main_overview) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			main_overview = excluded.main_overview
	`, figureID, name, mainOverview)
	return err
}

// SetCategoryDescriptions replaces the figure's per-category descriptive text.
func (s *Store) SetCategoryDescriptions(figureID string, descriptions map[string]string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM category_descriptions WHERE figure_id = ?`, figureID); err != nil {
		return err
	}
	for category, description := range descriptions {
		if _, err := tx.Exec(`
			INSERT INTO category_descriptions (figure_id, category, description) VALUES (?, ?, ?)
		`, figureID, category, description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertTimeline writes the figure's curated timeline as one JSON document.
func (s *Store) UpsertTimeline(figureID string, t timeline.CuratedTimeline) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding timeline: %w", err)
	}
	_, err = s.writeDB.Exec(`
		INSERT INTO timelines (figure_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(figure_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, figureID, string(data), time.Now())
	return err
}

// FigureContent returns the figure's overview and its timeline with the
// separately stored category descriptions merged in, keyed by the formatted
// category names.
func (s *Store) FigureContent(figureID string) (string, timeline.CuratedTimeline, error) {
	var overview string
	err := s.readDB.QueryRow(`SELECT main_overview FROM figures WHERE id = ?`, figureID).Scan(&overview)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNoFigure
	}
	if err != nil {
		return "", nil, fmt.Errorf("querying figure: %w", err)
	}

	var data string
	err = s.readDB.QueryRow(`SELECT data FROM timelines WHERE figure_id = ?`, figureID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return overview, nil, ErrNoTimeline
	}
	if err != nil {
		return "", nil, fmt.Errorf("querying timeline: %w", err)
	}

	var t timeline.CuratedTimeline
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return "", nil, fmt.Errorf("decoding timeline: %w", err)
	}

	rows, err := s.readDB.Query(`SELECT category, description FROM category_descriptions WHERE figure_id = ?`, figureID)
	if err != nil {
		return "", nil, fmt.Errorf("querying descriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, description string
		if err := rows.Scan(&category, &description); err != nil {
			return "", nil, fmt.Errorf("scanning description: %w", err)
		}
		if cat, ok := t[category]; ok {
			cat.Description = description
			t[category] = cat
		}
	}
	return overview, t, rows.Err()
}

// Stats reports article count and db file size.
func (s *Store) Stats(dbPath string) (int64, int64, error) {
	var count int64
	if err := s.readDB.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}

// Prune deletes articles fetched longer ago than retention.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	res, err := s.writeDB.Exec(`DELETE FROM articles WHERE fetched_at < ?`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NeedsRefresh reports whether the last ingest run is older than interval.
func (s *Store) NeedsRefresh(interval time.Duration) bool {
	var value string
	err := s.readDB.QueryRow(`SELECT value FROM meta WHERE key = 'last_refresh'`).Scan(&value)
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return time.Since(t) > interval
}

func (s *Store) SetLastRefresh() error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_refresh', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().Format(time.RFC3339))
	return err
}
