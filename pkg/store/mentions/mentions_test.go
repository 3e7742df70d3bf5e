package mentions

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

func TestCreate_ClampsRelevanceAndDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO article_business_mentions`).
		WithArgs(int64(1), int64(2), "featured in the opening", 1.0, "standard", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	relevance := 2.4
	mention, err := s.Create(context.Background(), CreateParams{
		ArticleID:         1,
		BusinessPartnerID: 2,
		MentionContext:    "featured in the opening",
		RelevanceScore:    &relevance,
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, mention.RelevanceScore)
	assert.Equal(t, "standard", mention.MentionType)
	assert.Equal(t, "api", mention.Metadata["created_by"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.Create(context.Background(), CreateParams{ArticleID: 1})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicatePairConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`INSERT INTO article_business_mentions`).
		WithArgs(int64(1), int64(2), "", 0.5, "standard", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = s.Create(context.Background(), CreateParams{ArticleID: 1, BusinessPartnerID: 2})

	assert.ErrorIs(t, err, store.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DanglingReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`INSERT INTO article_business_mentions`).
		WithArgs(int64(1), int64(999), "", 0.5, "standard", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err = s.Create(context.Background(), CreateParams{ArticleID: 1, BusinessPartnerID: 999})

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ReclampsRelevance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`UPDATE article_business_mentions SET updated_at = now\(\), relevance_score = \$1 WHERE id = \$2`).
		WithArgs(0.0, int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "article_id", "business_partner_id", "mention_context",
			"relevance_score", "mention_type", "verified", "credits_charged",
			"metadata", "created_at", "updated_at",
		}).AddRow(int64(11), int64(1), int64(2), "", 0.0, "standard", false, int64(0), map[string]any{}, now, now))

	relevance := -3.0
	mention, err := s.Update(context.Background(), 11, UpdateParams{RelevanceScore: &relevance})

	require.NoError(t, err)
	assert.Equal(t, 0.0, mention.RelevanceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectExec(`DELETE FROM article_business_mentions WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = s.Delete(context.Background(), 404)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsByBusinessType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`GROUP BY p\.business_type`).
		WillReturnRows(pgxmock.NewRows([]string{"business_type", "count", "avg"}).
			AddRow("restaurant", int64(4), 0.65).
			AddRow("retail", int64(1), 0.9))

	stats, err := s.StatsByBusinessType(context.Background())

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(4), stats["restaurant"].Count)
	assert.InDelta(t, 0.65, stats["restaurant"].AverageScore, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCharged_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	err = s.MarkCharged(context.Background(), 11, 0)
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
