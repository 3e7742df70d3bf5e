package contentqueue

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

func itemRows(status string, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(itemColumns).AddRow(
		int64(1), "Council votes on rezoning", "one two  three", "", "rss", "medium",
		0.7, status, nil, nil, map[string]any{"word_count": 3},
		now, now,
	)
}

func TestEnqueue_DefaultsAndWordCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO content_queue`).
		WithArgs("Council votes on rezoning", "one two  three", "", "rss", "medium",
			0.7, "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	item, err := s.Enqueue(context.Background(), EnqueueParams{
		Title:          "Council votes on rezoning",
		Content:        "one two  three",
		RelevanceScore: 0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", item.Status)
	assert.Equal(t, "rss", item.SourceType)
	assert.Equal(t, "medium", item.Priority)
	assert.Equal(t, 3, item.Metadata["word_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueue_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.Enqueue(context.Background(), EnqueueParams{Title: "no content"})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDequeueNext_OrderAndEmptyQueue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`WHERE status = 'pending'\s+ORDER BY relevance_score DESC, created_at ASC`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(itemColumns))

	items, err := s.DequeueNext(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_LegalTransition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM content_queue WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRows("pending", now))
	mock.ExpectQuery(`UPDATE content_queue SET status = \$1, updated_at = now\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs("processing", int64(1), "pending").
		WillReturnRows(itemRows("processing", now))

	item, err := s.UpdateStatus(context.Background(), 1, "processing", nil)

	require.NoError(t, err)
	assert.Equal(t, "processing", item.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM content_queue WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRows("done", now))

	_, err = s.UpdateStatus(context.Background(), 1, "pending", nil)

	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.UpdateStatus(context.Background(), 1, "archived", nil)

	assert.ErrorIs(t, err, store.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectExec(`DELETE FROM content_queue WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = s.Delete(context.Background(), 9)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
