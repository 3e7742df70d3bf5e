// Package articles persists generated news articles and their lifecycle
// state. Word counts are derived from content on the write path whenever the
// caller does not supply one.
package articles

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/store"
)

const defaultPageLimit = 20

var sortableColumns = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"published_at":    true,
	"quality_score":   true,
	"relevance_score": true,
	"word_count":      true,
	"title":           true,
}

// Store persists articles. Writes that flip publication flags go through the
// admin connection tier; everything else uses the restricted tier.
type Store struct {
	conn  store.Conn
	admin store.Conn
}

func New(conn, admin store.Conn) *Store {
	return &Store{conn: conn, admin: admin}
}

// Create inserts a new article. Status defaults to draft, scores to 0, and
// the word count is derived from content when not supplied.
func (s *Store) Create(ctx context.Context, params CreateArticleParams) (*Article, error) {
	if params.Title == "" || params.Content == "" {
		return nil, eris.Wrap(store.ErrValidation, "articles: title and content are required")
	}
	if params.Category != "" && !validCategories[params.Category] {
		return nil, eris.Wrapf(store.ErrValidation, "articles: unknown category %q", params.Category)
	}

	status := params.Status
	if status == "" {
		status = "draft"
	}
	wordCount := util.WordCount(params.Content)
	if params.WordCount != nil {
		wordCount = *params.WordCount
	}
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	article := Article{
		Title:               params.Title,
		Content:             params.Content,
		VoiceScore:          util.Clamp01(params.VoiceScore),
		QualityScore:        util.Clamp01(params.QualityScore),
		RelevanceScore:      util.Clamp01(params.RelevanceScore),
		EngagementPotential: util.Clamp01(params.EngagementPotential),
		Status:              status,
		Category:            params.Category,
		Tags:                tags,
		WordCount:           wordCount,
		SourceURL:           params.SourceURL,
		SourceTitle:         params.SourceTitle,
		SourceDescription:   params.SourceDescription,
		ImageURL:            params.ImageURL,
		ImageAltText:        params.ImageAltText,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO articles
		   (title, content, voice_score, quality_score, relevance_score, engagement_potential,
		    status, category, tags, word_count, source_url, source_title, source_description,
		    image_url, image_alt_text, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		 RETURNING id, created_at, updated_at`,
		article.Title, article.Content, article.VoiceScore, article.QualityScore,
		article.RelevanceScore, article.EngagementPotential, article.Status, article.Category,
		article.Tags, article.WordCount, article.SourceURL, article.SourceTitle,
		article.SourceDescription, article.ImageURL, article.ImageAltText,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "articles: create")
	}

	return &article, nil
}

// List returns a page of articles matching the filter. Unknown sort columns
// fall back to created_at so the column name never reaches the query raw.
func (s *Store) List(ctx context.Context, filter ArticleFilter) (*ArticlePage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	sortBy := filter.SortBy
	if !sortableColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	applyFilter := func(q sq.SelectBuilder) sq.SelectBuilder {
		if filter.Status != "" {
			q = q.Where(sq.Eq{"status": filter.Status})
		}
		if filter.Category != "" {
			q = q.Where(sq.Eq{"category": filter.Category})
		}
		if filter.Published != nil {
			q = q.Where(sq.Eq{"app_published": *filter.Published})
		}
		return q
	}

	countSQL, countArgs, err := applyFilter(store.Builder.Select("COUNT(*)").From("articles")).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "articles: build count query")
	}
	var total int64
	if err := s.conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "articles: count")
	}

	q := applyFilter(store.Builder.
		Select(articleColumns...).
		From("articles")).
		OrderBy(sortBy + " " + order).
		Offset(uint64((page - 1) * limit)).
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "articles: build list query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "articles: list")
	}
	defer rows.Close()

	list, err := collectArticles(rows)
	if err != nil {
		return nil, err
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return &ArticlePage{Articles: list, Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// GetByID returns one article together with its partner mentions.
func (s *Store) GetByID(ctx context.Context, id int64) (*Article, error) {
	article, err := scanArticle(s.conn.QueryRow(ctx,
		`SELECT `+articleColumnList+` FROM articles WHERE id = $1`, id))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "articles: article %d", id)
		}
		return nil, eris.Wrapf(err, "articles: get article %d", id)
	}

	rows, err := s.conn.Query(ctx,
		`SELECT m.id, m.mention_type, m.relevance_score, m.mention_context,
		        m.credits_charged, m.verified,
		        p.id, p.business_name, p.partnership_tier
		 FROM article_business_mentions m
		 JOIN business_partners p ON p.id = m.business_partner_id
		 WHERE m.article_id = $1
		 ORDER BY m.created_at DESC`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "articles: mentions for article %d", id)
	}
	defer rows.Close()

	article.Mentions = make([]ArticleMention, 0)
	for rows.Next() {
		var m ArticleMention
		err := rows.Scan(
			&m.ID, &m.MentionType, &m.RelevanceScore, &m.MentionContext,
			&m.CreditsCharged, &m.Verified,
			&m.PartnerID, &m.BusinessName, &m.PartnershipTier,
		)
		if err != nil {
			return nil, eris.Wrap(err, "articles: scan mention")
		}
		article.Mentions = append(article.Mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "articles: iterate mentions")
	}

	return article, nil
}

// Update applies a partial edit. When content changes without an explicit
// word count, the count is recomputed from the new content.
func (s *Store) Update(ctx context.Context, id int64, params UpdateArticleParams) (*Article, error) {
	if params.Category != nil && !validCategories[*params.Category] {
		return nil, eris.Wrapf(store.ErrValidation, "articles: unknown category %q", *params.Category)
	}

	q := store.Builder.
		Update("articles").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + articleColumnList)

	if params.Title != nil {
		q = q.Set("title", *params.Title)
	}
	if params.Content != nil {
		q = q.Set("content", *params.Content)
		if params.WordCount == nil {
			q = q.Set("word_count", util.WordCount(*params.Content))
		}
	}
	if params.WordCount != nil {
		q = q.Set("word_count", *params.WordCount)
	}
	if params.Category != nil {
		q = q.Set("category", *params.Category)
	}
	if params.Status != nil {
		q = q.Set("status", *params.Status)
	}
	if params.Tags != nil {
		q = q.Set("tags", params.Tags)
	}
	if params.VoiceScore != nil {
		q = q.Set("voice_score", util.Clamp01(*params.VoiceScore))
	}
	if params.QualityScore != nil {
		q = q.Set("quality_score", util.Clamp01(*params.QualityScore))
	}
	if params.RelevanceScore != nil {
		q = q.Set("relevance_score", util.Clamp01(*params.RelevanceScore))
	}
	if params.EngagementPotential != nil {
		q = q.Set("engagement_potential", util.Clamp01(*params.EngagementPotential))
	}
	if params.ImageURL != nil {
		q = q.Set("image_url", *params.ImageURL)
	}
	if params.ImageAltText != nil {
		q = q.Set("image_alt_text", *params.ImageAltText)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "articles: build update")
	}

	article, err := scanArticle(s.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "articles: article %d", id)
		}
		return nil, eris.Wrapf(err, "articles: update article %d", id)
	}
	return article, nil
}

// MarkPublished flips the app publication flags. This is an administrative
// write and goes through the elevated connection tier.
func (s *Store) MarkPublished(ctx context.Context, id int64) (*Article, error) {
	article, err := scanArticle(s.admin.QueryRow(ctx,
		`UPDATE articles
		 SET status = 'published', app_published = true, app_published_at = now(),
		     published_at = COALESCE(published_at, now()), updated_at = now()
		 WHERE id = $1
		 RETURNING `+articleColumnList,
		id,
	))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "articles: article %d", id)
		}
		return nil, eris.Wrapf(err, "articles: publish article %d", id)
	}
	return article, nil
}

// SetImage records the stored image location for an article.
func (s *Store) SetImage(ctx context.Context, id int64, imageURL, altText string) error {
	tag, err := s.conn.Exec(ctx,
		`UPDATE articles SET image_url = $2, image_alt_text = $3, updated_at = now() WHERE id = $1`,
		id, imageURL, altText,
	)
	if err != nil {
		return eris.Wrapf(err, "articles: set image for article %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(store.ErrNotFound, "articles: article %d", id)
	}
	return nil
}

// Count returns the total number of articles.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "articles: count")
	}
	return count, nil
}

// GetStats computes the analytics overview rollup.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := Stats{
		ByStatus:   map[string]int64{},
		ByCategory: map[string]int64{},
	}

	err := s.conn.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(word_count), 0) FROM articles`,
	).Scan(&stats.Total, &stats.AverageWords)
	if err != nil {
		return nil, eris.Wrap(err, "articles: stats totals")
	}

	rows, err := s.conn.Query(ctx, `SELECT status, COUNT(*) FROM articles GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "articles: stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "articles: scan status rollup")
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "articles: iterate status rollup")
	}

	catRows, err := s.conn.Query(ctx,
		`SELECT category, COUNT(*) FROM articles WHERE category <> '' GROUP BY category`)
	if err != nil {
		return nil, eris.Wrap(err, "articles: stats by category")
	}
	defer catRows.Close()
	for catRows.Next() {
		var category string
		var count int64
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, eris.Wrap(err, "articles: scan category rollup")
		}
		stats.ByCategory[category] = count
	}
	if err := catRows.Err(); err != nil {
		return nil, eris.Wrap(err, "articles: iterate category rollup")
	}

	return &stats, nil
}

var articleColumns = []string{
	"id", "title", "content", "voice_score", "quality_score", "relevance_score",
	"engagement_potential", "status", "category", "tags", "word_count",
	"source_url", "source_title", "source_description", "image_url", "image_alt_text",
	"published_at", "app_published", "app_published_at", "social_media_posted",
	"created_at", "updated_at",
}

const articleColumnList = `id, title, content, voice_score, quality_score, relevance_score,
	engagement_potential, status, category, tags, word_count,
	source_url, source_title, source_description, image_url, image_alt_text,
	published_at, app_published, app_published_at, social_media_posted,
	created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.VoiceScore, &a.QualityScore, &a.RelevanceScore,
		&a.EngagementPotential, &a.Status, &a.Category, &a.Tags, &a.WordCount,
		&a.SourceURL, &a.SourceTitle, &a.SourceDescription, &a.ImageURL, &a.ImageAltText,
		&a.PublishedAt, &a.AppPublished, &a.AppPublishedAt, &a.SocialMediaPosted,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectArticles(rows pgx.Rows) ([]Article, error) {
	list := make([]Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "articles: scan article")
		}
		list = append(list, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "articles: iterate articles")
	}
	return list, nil
}
