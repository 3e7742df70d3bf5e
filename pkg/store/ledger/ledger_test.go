package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

func TestDebit_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`UPDATE business_partners\s+SET mention_credits_remaining = mention_credits_remaining - \$2.*WHERE id = \$1 AND mention_credits_remaining >= \$2`).
		WithArgs(int64(7), int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "mention_credits_remaining", "mention_credits_total"}).
			AddRow(int64(7), int64(6), int64(10)))
	mock.ExpectExec(`INSERT INTO credit_usage_log`).
		WithArgs(int64(7), int64(4), "mention X").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	balance, err := s.Debit(context.Background(), 7, 4, "mention X")

	require.NoError(t, err)
	assert.Equal(t, int64(6), balance.Remaining)
	assert.Equal(t, int64(10), balance.Purchased)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_InsufficientBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	// Conditional UPDATE matches no row; the follow-up read finds the
	// partner, so it was the floor that rejected the debit. No log insert.
	mock.ExpectQuery(`UPDATE business_partners`).
		WithArgs(int64(7), int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "mention_credits_remaining", "mention_credits_total"}))
	mock.ExpectQuery(`SELECT mention_credits_remaining FROM business_partners WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"mention_credits_remaining"}).AddRow(int64(6)))

	_, err = s.Debit(context.Background(), 7, 10, "mention Y")

	assert.ErrorIs(t, err, store.ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_UnknownPartner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`UPDATE business_partners`).
		WithArgs(int64(404), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "mention_credits_remaining", "mention_credits_total"}))
	mock.ExpectQuery(`SELECT mention_credits_remaining FROM business_partners WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows([]string{"mention_credits_remaining"}))

	_, err = s.Debit(context.Background(), 404, 1, "x")

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_NonPositiveAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.Debit(context.Background(), 7, 0, "x")
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = s.Debit(context.Background(), 7, -3, "x")
	assert.ErrorIs(t, err, store.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_LogAppendFailureIsPartial(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`UPDATE business_partners`).
		WithArgs(int64(7), int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "mention_credits_remaining", "mention_credits_total"}).
			AddRow(int64(7), int64(6), int64(10)))
	mock.ExpectExec(`INSERT INTO credit_usage_log`).
		WithArgs(int64(7), int64(4), "mention X").
		WillReturnError(errors.New("connection reset"))

	balance, err := s.Debit(context.Background(), 7, 4, "mention X")

	var partial *store.PartialDebitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, int64(7), partial.PartnerID)
	assert.Equal(t, int64(4), partial.Amount)
	// The debit did apply; the caller still gets the moved balance.
	require.NotNil(t, balance)
	assert.Equal(t, int64(6), balance.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUp_MovesBothCounters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`SET mention_credits_remaining = mention_credits_remaining \+ \$2,\s+mention_credits_total = mention_credits_total \+ \$2`).
		WithArgs(int64(7), int64(50)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "mention_credits_remaining", "mention_credits_total"}).
			AddRow(int64(7), int64(56), int64(60)))

	balance, err := s.TopUp(context.Background(), 7, 50)

	require.NoError(t, err)
	assert.Equal(t, int64(56), balance.Remaining)
	assert.Equal(t, int64(60), balance.Purchased)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCredits_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`FROM business_partners WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows([]string{"mention_credits_remaining", "mention_credits_total", "monthly_mention_allowance"}))

	_, err = s.GetCredits(context.Background(), 404)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM credit_usage_log\s+WHERE business_partner_id = \$1`).
		WithArgs(int64(7), 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "business_partner_id", "amount", "description", "created_at"}).
			AddRow(int64(2), int64(7), int64(4), "mention X", now).
			AddRow(int64(1), int64(7), int64(2), "mention W", now.Add(-time.Hour)))

	entries, err := s.UsageHistory(context.Background(), 7, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
