// Package mentions links articles to the business partners they reference.
// The (article, partner) pair is unique; duplicate creation is rejected by
// the database constraint rather than a check-then-insert read, so concurrent
// creators cannot both slip through.
package mentions

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/store"
)

// Mention records one business partner referenced inside one article.
type Mention struct {
	ID                int64          `json:"id"`
	ArticleID         int64          `json:"article_id"`
	BusinessPartnerID int64          `json:"business_partner_id"`
	MentionContext    string         `json:"mention_context"`
	RelevanceScore    float64        `json:"relevance_score"`
	MentionType       string         `json:"mention_type"`
	Verified          bool           `json:"verified"`
	CreditsCharged    int64          `json:"credits_charged"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	ArticleTitle string `json:"article_title,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
}

type CreateParams struct {
	ArticleID         int64
	BusinessPartnerID int64
	MentionContext    string
	RelevanceScore    *float64
	MentionType       string
	CreatedBy         string
	ExtractionMethod  string
}

type UpdateParams struct {
	MentionContext *string
	RelevanceScore *float64
	MentionType    *string
	Verified       *bool
}

type Filter struct {
	ArticleID         *int64
	BusinessPartnerID *int64
	Limit             int
	Offset            int
}

// TypeStats is the per-business-type rollup.
type TypeStats struct {
	Count        int64   `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

const (
	defaultRelevance = 0.5
	defaultListLimit = 50
)

// Store persists article/partner mentions.
type Store struct {
	conn store.Conn
}

func New(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// Create inserts a mention. Relevance defaults to 0.5 and is clamped into
// [0,1]; the type defaults to standard. A duplicate (article, partner) pair
// surfaces as ErrConflict, a dangling reference as ErrNotFound.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Mention, error) {
	if params.ArticleID == 0 || params.BusinessPartnerID == 0 {
		return nil, eris.Wrap(store.ErrValidation, "mentions: article_id and business_partner_id are required")
	}

	relevance := defaultRelevance
	if params.RelevanceScore != nil {
		relevance = util.Clamp01(*params.RelevanceScore)
	}
	mentionType := params.MentionType
	if mentionType == "" {
		mentionType = "standard"
	}
	createdBy := params.CreatedBy
	if createdBy == "" {
		createdBy = "api"
	}
	extraction := params.ExtractionMethod
	if extraction == "" {
		extraction = "ai"
	}
	metadata := map[string]any{
		"created_by":        createdBy,
		"extraction_method": extraction,
	}

	m := Mention{
		ArticleID:         params.ArticleID,
		BusinessPartnerID: params.BusinessPartnerID,
		MentionContext:    params.MentionContext,
		RelevanceScore:    relevance,
		MentionType:       mentionType,
		Metadata:          metadata,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO article_business_mentions
		   (article_id, business_partner_id, mention_context, relevance_score, mention_type,
		    verified, credits_charged, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, false, 0, $6, now(), now())
		 RETURNING id, created_at, updated_at`,
		m.ArticleID, m.BusinessPartnerID, m.MentionContext, m.RelevanceScore, m.MentionType, metadata,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, eris.Wrapf(store.ErrConflict,
				"mentions: article %d already mentions partner %d", m.ArticleID, m.BusinessPartnerID)
		}
		if store.IsForeignKeyViolation(err) {
			return nil, eris.Wrapf(store.ErrNotFound,
				"mentions: article %d or partner %d does not exist", m.ArticleID, m.BusinessPartnerID)
		}
		return nil, eris.Wrap(err, "mentions: create")
	}

	return &m, nil
}

// Update applies a partial edit. Only context, relevance, type and the
// verified flag are mutable; relevance is re-clamped.
func (s *Store) Update(ctx context.Context, id int64, params UpdateParams) (*Mention, error) {
	q := store.Builder.
		Update("article_business_mentions").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + mentionColumnList)

	if params.MentionContext != nil {
		q = q.Set("mention_context", *params.MentionContext)
	}
	if params.RelevanceScore != nil {
		q = q.Set("relevance_score", util.Clamp01(*params.RelevanceScore))
	}
	if params.MentionType != nil {
		q = q.Set("mention_type", *params.MentionType)
	}
	if params.Verified != nil {
		q = q.Set("verified", *params.Verified)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "mentions: build update")
	}

	mention, err := scanMention(s.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "mentions: mention %d", id)
		}
		return nil, eris.Wrapf(err, "mentions: update mention %d", id)
	}
	return mention, nil
}

// Delete removes a mention. Deleting an id that does not exist is an error,
// not a no-op, so callers learn their reference was stale.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM article_business_mentions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "mentions: delete mention %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(store.ErrNotFound, "mentions: mention %d", id)
	}
	return nil
}

// List returns mentions with article and partner names joined on.
func (s *Store) List(ctx context.Context, filter Filter) ([]Mention, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := store.Builder.
		Select(mentionJoinColumns...).
		From("article_business_mentions m").
		Join("articles a ON a.id = m.article_id").
		Join("business_partners p ON p.id = m.business_partner_id").
		OrderBy("m.created_at DESC").
		Offset(uint64(filter.Offset)).
		Limit(uint64(limit))
	if filter.ArticleID != nil {
		q = q.Where(sq.Eq{"m.article_id": *filter.ArticleID})
	}
	if filter.BusinessPartnerID != nil {
		q = q.Where(sq.Eq{"m.business_partner_id": *filter.BusinessPartnerID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "mentions: build list query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "mentions: list")
	}
	defer rows.Close()

	list := make([]Mention, 0)
	for rows.Next() {
		var m Mention
		err := rows.Scan(
			&m.ID, &m.ArticleID, &m.BusinessPartnerID, &m.MentionContext,
			&m.RelevanceScore, &m.MentionType, &m.Verified, &m.CreditsCharged,
			&m.Metadata, &m.CreatedAt, &m.UpdatedAt,
			&m.ArticleTitle, &m.BusinessName, &m.BusinessType,
		)
		if err != nil {
			return nil, eris.Wrap(err, "mentions: scan mention")
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "mentions: iterate mentions")
	}
	return list, nil
}

// ListUncharged returns verified mentions for an article that have not yet
// consumed partner credit. The worker bills these.
func (s *Store) ListUncharged(ctx context.Context, articleID int64) ([]Mention, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+mentionColumnList+`
		 FROM article_business_mentions
		 WHERE article_id = $1 AND verified = true AND credits_charged = 0
		 ORDER BY created_at ASC`,
		articleID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "mentions: uncharged for article %d", articleID)
	}
	defer rows.Close()

	list := make([]Mention, 0)
	for rows.Next() {
		mention, err := scanMention(rows)
		if err != nil {
			return nil, eris.Wrap(err, "mentions: scan mention")
		}
		list = append(list, *mention)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "mentions: iterate uncharged")
	}
	return list, nil
}

// MarkCharged records the credits billed for a mention.
func (s *Store) MarkCharged(ctx context.Context, id, credits int64) error {
	if credits <= 0 {
		return eris.Wrap(store.ErrValidation, "mentions: charged credits must be positive")
	}
	tag, err := s.conn.Exec(ctx,
		`UPDATE article_business_mentions SET credits_charged = $2, updated_at = now() WHERE id = $1`,
		id, credits,
	)
	if err != nil {
		return eris.Wrapf(err, "mentions: mark mention %d charged", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(store.ErrNotFound, "mentions: mention %d", id)
	}
	return nil
}

// CountTotal returns the total number of mentions.
func (s *Store) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM article_business_mentions`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "mentions: count")
	}
	return count, nil
}

// StatsByBusinessType groups mentions by the partner's business type and
// averages relevance within each group. Only observed types appear, so no
// group ever averages over zero rows.
func (s *Store) StatsByBusinessType(ctx context.Context) (map[string]TypeStats, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT p.business_type, COUNT(*), AVG(m.relevance_score)
		 FROM article_business_mentions m
		 JOIN business_partners p ON p.id = m.business_partner_id
		 GROUP BY p.business_type`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "mentions: stats by business type")
	}
	defer rows.Close()

	stats := map[string]TypeStats{}
	for rows.Next() {
		var businessType string
		var ts TypeStats
		if err := rows.Scan(&businessType, &ts.Count, &ts.AverageScore); err != nil {
			return nil, eris.Wrap(err, "mentions: scan type rollup")
		}
		stats[businessType] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "mentions: iterate type rollup")
	}
	return stats, nil
}

var mentionJoinColumns = []string{
	"m.id", "m.article_id", "m.business_partner_id", "m.mention_context",
	"m.relevance_score", "m.mention_type", "m.verified", "m.credits_charged",
	"m.metadata", "m.created_at", "m.updated_at",
	"a.title", "p.business_name", "p.business_type",
}

const mentionColumnList = `id, article_id, business_partner_id, mention_context,
	relevance_score, mention_type, verified, credits_charged,
	metadata, created_at, updated_at`

func scanMention(row pgx.Row) (*Mention, error) {
	var m Mention
	err := row.Scan(
		&m.ID, &m.ArticleID, &m.BusinessPartnerID, &m.MentionContext,
		&m.RelevanceScore, &m.MentionType, &m.Verified, &m.CreditsCharged,
		&m.Metadata, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
