package articles

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

func articleRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(articleColumns).AddRow(
		int64(1), "Fire at Main St", "one two  three", 0.0, 0.0, 0.0,
		0.0, "draft", "breaking_news", []string{}, 3,
		"", "", "", "", "",
		nil, false, nil, false,
		now, now,
	)
}

func TestCreate_DerivesWordCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO articles`).
		WithArgs("Fire at Main St", "one two  three", 0.0, 0.0, 0.0, 0.0,
			"draft", "breaking_news", []string{}, 3, "", "", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	article, err := s.Create(context.Background(), CreateArticleParams{
		Title:    "Fire at Main St",
		Content:  "one two  three",
		Category: "breaking_news",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, article.WordCount)
	assert.Equal(t, "draft", article.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)

	_, err = s.Create(context.Background(), CreateArticleParams{Title: "no body"})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = s.Create(context.Background(), CreateArticleParams{
		Title: "t", Content: "c", Category: "sports",
	})
	assert.ErrorIs(t, err, store.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RecomputesWordCountOnContentChange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)
	now := time.Now()

	// content = $1, word_count = $2 (derived), WHERE id = $3
	mock.ExpectQuery(`UPDATE articles SET updated_at = now\(\), content = \$1, word_count = \$2 WHERE id = \$3`).
		WithArgs("four words right here", 4, int64(1)).
		WillReturnRows(articleRow(now))

	content := "four words right here"
	article, err := s.Update(context.Background(), 1, UpdateArticleParams{Content: &content})

	require.NoError(t, err)
	assert.NotNil(t, article)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)

	mock.ExpectQuery(`UPDATE articles SET`).
		WithArgs("gone", int64(77)).
		WillReturnRows(pgxmock.NewRows(articleColumns))

	title := "gone"
	_, err = s.Update(context.Background(), 77, UpdateArticleParams{Title: &title})

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FilterAndPagination(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM articles WHERE status = \$1`).
		WithArgs("published").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(41)))
	mock.ExpectQuery(`FROM articles WHERE status = \$1 ORDER BY created_at DESC LIMIT 20 OFFSET 20`).
		WithArgs("published").
		WillReturnRows(articleRow(now))

	page, err := s.List(context.Background(), ArticleFilter{Status: "published", Page: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, int64(3), page.Pages)
	assert.Len(t, page.Articles, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPublished_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock, mock)

	mock.ExpectQuery(`UPDATE articles`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(articleColumns))

	_, err = s.MarkPublished(context.Background(), 9)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
