package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"trendscout/models"
)

// Store wraps the Postgres connection holding sessions, trends and scraped
// articles.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a Postgres connection. Store credentials are a
// fatal startup condition for the scout path, so errors propagate.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// CreateSession inserts a research session and returns the store-assigned id.
func (s *Store) CreateSession(ctx context.Context, topic, status string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO research_sessions (topic, status) VALUES ($1,$2) RETURNING id`,
		topic, status).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// UpdateSessionStatus moves a session to a new status.
func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE research_sessions SET status = $2 WHERE id = $1`, id, status)
	return err
}

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (models.ResearchSession, error) {
	var sess models.ResearchSession
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, topic, status, created_at FROM research_sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.Topic, &sess.Status, &sess.CreatedAt)
	if err != nil {
		return models.ResearchSession{}, err
	}
	return sess, nil
}

// InsertTrends batch-inserts trends in one transaction and returns them with
// store-assigned ids. All-or-nothing: any row failure rolls the batch back.
func (s *Store) InsertTrends(ctx context.Context, trends []models.Trend) ([]models.Trend, error) {
	if len(trends) == 0 {
		return nil, nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trends (name, context, parent_details, status) VALUES ($1,$2,$3,$4) RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	out := make([]models.Trend, 0, len(trends))
	for _, t := range trends {
		details, err := json.Marshal(t.ParentDetails)
		if err != nil {
			return nil, fmt.Errorf("marshal parent details: %w", err)
		}
		var id string
		if err := stmt.QueryRowContext(ctx, t.Name, t.Context, details, t.Status).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert trend %q: %w", t.Name, err)
		}
		t.ID = id
		out = append(out, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// InsertArticles batch-inserts scraped articles under a session id.
func (s *Store) InsertArticles(ctx context.Context, sessionID string, articles []models.ScrapedArticle) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO raw_news (session_id, source, title, url, summary, published_at) VALUES ($1,$2,$3,$4,$5,$6)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range articles {
		if _, err := stmt.ExecContext(ctx, sessionID, a.Source, a.Title, a.URL, a.Summary, a.PublishedAt); err != nil {
			return fmt.Errorf("insert article %q: %w", a.URL, err)
		}
	}
	return tx.Commit()
}

// ListArticlesBySession returns the articles collected by one scouting run.
func (s *Store) ListArticlesBySession(ctx context.Context, sessionID string) ([]models.ScrapedArticle, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT source, title, url, summary, published_at FROM raw_news WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScrapedArticle
	for rows.Next() {
		var a models.ScrapedArticle
		if err := rows.Scan(&a.Source, &a.Title, &a.URL, &a.Summary, &a.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListTrends returns the most recent trends, newest first.
func (s *Store) ListTrends(ctx context.Context, limit int) ([]models.Trend, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, context, parent_details, status FROM trends ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trend
	for rows.Next() {
		var t models.Trend
		var details []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Context, &details, &t.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &t.ParentDetails); err != nil {
			return nil, fmt.Errorf("unmarshal parent details: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
