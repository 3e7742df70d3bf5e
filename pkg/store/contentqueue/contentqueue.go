// Package contentqueue persists the ingestion queue feeding the article
// generation pipeline. Items move through an enumerated lifecycle and are
// dequeued by descending relevance, oldest first within a score.
package contentqueue

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/store"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// allowedTransitions enumerates the legal status moves. failed → pending
// permits re-queueing after a transient failure; done is terminal.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusDone, StatusFailed},
	StatusFailed:     {StatusPending},
}

// Item is one queued piece of source content.
type Item struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	SourceURL      string         `json:"source_url"`
	SourceType     string         `json:"source_type"`
	Priority       string         `json:"priority"`
	RelevanceScore float64        `json:"relevance_score"`
	Status         string         `json:"status"`
	ScheduledFor   *time.Time     `json:"scheduled_for"`
	ProcessedAt    *time.Time     `json:"processed_at"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type EnqueueParams struct {
	Title          string
	Content        string
	SourceURL      string
	SourceType     string
	Priority       string
	RelevanceScore float64
	ScheduledFor   *time.Time
	AddedBy        string
}

type Filter struct {
	Status string
	Limit  int
	Offset int
}

const defaultListLimit = 50

// Store persists content queue items.
type Store struct {
	conn store.Conn
}

func New(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// Enqueue adds an item in pending state. Source type defaults to rss,
// priority to medium; the content's word count is recorded in metadata.
func (s *Store) Enqueue(ctx context.Context, params EnqueueParams) (*Item, error) {
	if params.Title == "" || params.Content == "" {
		return nil, eris.Wrap(store.ErrValidation, "contentqueue: title and content are required")
	}

	sourceType := params.SourceType
	if sourceType == "" {
		sourceType = "rss"
	}
	priority := params.Priority
	if priority == "" {
		priority = "medium"
	}
	addedBy := params.AddedBy
	if addedBy == "" {
		addedBy = "api"
	}
	metadata := map[string]any{
		"word_count": util.WordCount(params.Content),
		"added_by":   addedBy,
	}

	item := Item{
		Title:          params.Title,
		Content:        params.Content,
		SourceURL:      params.SourceURL,
		SourceType:     sourceType,
		Priority:       priority,
		RelevanceScore: util.Clamp01(params.RelevanceScore),
		Status:         StatusPending,
		ScheduledFor:   params.ScheduledFor,
		Metadata:       metadata,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO content_queue
		   (title, content, source_url, source_type, priority, relevance_score,
		    status, scheduled_for, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		 RETURNING id, created_at, updated_at`,
		item.Title, item.Content, item.SourceURL, item.SourceType, item.Priority,
		item.RelevanceScore, item.Status, item.ScheduledFor, metadata,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "contentqueue: enqueue")
	}

	return &item, nil
}

// DequeueNext returns up to limit pending items, most relevant first, oldest
// first within a score. An empty queue returns an empty slice.
func (s *Store) DequeueNext(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(ctx,
		`SELECT `+itemColumnList+`
		 FROM content_queue
		 WHERE status = 'pending'
		 ORDER BY relevance_score DESC, created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "contentqueue: dequeue")
	}
	defer rows.Close()

	return collectItems(rows)
}

// Get returns one item.
func (s *Store) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(s.conn.QueryRow(ctx,
		`SELECT `+itemColumnList+` FROM content_queue WHERE id = $1`, id))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "contentqueue: item %d", id)
		}
		return nil, eris.Wrapf(err, "contentqueue: get item %d", id)
	}
	return item, nil
}

// List returns items, newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, filter Filter) ([]Item, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := store.Builder.
		Select(itemColumns...).
		From("content_queue").
		OrderBy("created_at DESC").
		Offset(uint64(filter.Offset)).
		Limit(uint64(limit))
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "contentqueue: build list query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "contentqueue: list")
	}
	defer rows.Close()

	return collectItems(rows)
}

// UpdateStatus moves an item to a new lifecycle status. Illegal moves (done
// is terminal, pending cannot jump straight to done) are rejected with
// ErrInvalidTransition before any write happens.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string, processedAt *time.Time) (*Item, error) {
	if !validStatus(status) {
		return nil, eris.Wrapf(store.ErrValidation, "contentqueue: unknown status %q", status)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(current.Status, status) {
		return nil, eris.Wrapf(store.ErrInvalidTransition,
			"contentqueue: item %d cannot move %s → %s", id, current.Status, status)
	}

	q := store.Builder.
		Update("content_queue").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		// Guard against a concurrent transition between the read and the write.
		Where(sq.Eq{"id": id, "status": current.Status}).
		Suffix("RETURNING " + itemColumnList)
	if processedAt != nil {
		q = q.Set("processed_at", *processedAt)
	} else if status == StatusDone || status == StatusFailed {
		q = q.Set("processed_at", sq.Expr("now()"))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "contentqueue: build status update")
	}

	item, err := scanItem(s.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrInvalidTransition,
				"contentqueue: item %d changed status concurrently", id)
		}
		return nil, eris.Wrapf(err, "contentqueue: update item %d", id)
	}
	return item, nil
}

// Delete removes an item.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM content_queue WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "contentqueue: delete item %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(store.ErrNotFound, "contentqueue: item %d", id)
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var itemColumns = []string{
	"id", "title", "content", "source_url", "source_type", "priority",
	"relevance_score", "status", "scheduled_for", "processed_at", "metadata",
	"created_at", "updated_at",
}

const itemColumnList = `id, title, content, source_url, source_type, priority,
	relevance_score, status, scheduled_for, processed_at, metadata,
	created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.Title, &it.Content, &it.SourceURL, &it.SourceType, &it.Priority,
		&it.RelevanceScore, &it.Status, &it.ScheduledFor, &it.ProcessedAt, &it.Metadata,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "contentqueue: scan item")
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "contentqueue: iterate items")
	}
	return items, nil
}
