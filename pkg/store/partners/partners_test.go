package partners

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

func TestCreate_DefaultsAndBalanceSeed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	// remaining is seeded from the purchased total
	mock.ExpectQuery(`INSERT INTO business_partners`).
		WithArgs(pgxmock.AnyArg(), "Main St Diner", "restaurant", "", "", "",
			"bronze", 0.0, int64(20), int64(20), int64(0),
			pgxmock.AnyArg(), pgxmock.AnyArg(), true, "active", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))

	partner, err := s.Create(context.Background(), CreateParams{
		BusinessName:        "Main St Diner",
		BusinessType:        "restaurant",
		MentionCreditsTotal: 20,
	})

	require.NoError(t, err)
	assert.Equal(t, "bronze", partner.PartnershipTier)
	assert.Equal(t, "active", partner.Status)
	assert.Equal(t, int64(20), partner.MentionCreditsRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.Create(context.Background(), CreateParams{BusinessType: "restaurant"})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = s.Create(context.Background(), CreateParams{BusinessName: "x", MentionCreditsTotal: -1})
	assert.ErrorIs(t, err, store.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`FROM business_partners WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(partnerColumns))

	_, err = s.GetByID(context.Background(), 42)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_TierFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM business_partners WHERE status = \$1 AND partnership_tier = \$2`).
		WithArgs("active", "gold").
		WillReturnRows(pgxmock.NewRows(partnerColumns).AddRow(
			int64(1), nil, "Hunter Hardware", "retail",
			"", "", "",
			"gold", 250.0,
			int64(100), int64(64), int64(25),
			nil, nil, true,
			"active", "", now, now,
		))

	list, err := s.List(context.Background(), Filter{Status: "active", Tier: "gold"})

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hunter Hardware", list[0].BusinessName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
