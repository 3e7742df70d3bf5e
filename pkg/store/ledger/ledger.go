// Package ledger mutates partner credit balances. A debit is a single
// conditional UPDATE with a balance floor, so concurrent debits against the
// same partner serialize at the row and the balance can never go negative.
// Every successful debit appends exactly one usage-log entry; if the append
// fails after the balance moved, the caller gets a PartialDebitError rather
// than a silent success.
package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/pkg/store"
)

// Credits is a partner's balance snapshot.
type Credits struct {
	Remaining        int64 `json:"remaining"`
	Purchased        int64 `json:"purchased"`
	MonthlyAllowance int64 `json:"monthlyAllowance"`
}

// UsageEntry is one append-only audit record for a debit.
type UsageEntry struct {
	ID                int64     `json:"id"`
	BusinessPartnerID int64     `json:"business_partner_id"`
	Amount            int64     `json:"amount"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
}

// Balance is the post-mutation balance returned by Debit and TopUp.
type Balance struct {
	PartnerID int64 `json:"business_partner_id"`
	Remaining int64 `json:"remaining"`
	Purchased int64 `json:"purchased"`
}

// Store performs all credit balance writes. All its operations run on the
// elevated connection tier; balance adjustment is an administrative write.
type Store struct {
	admin store.Conn
}

func New(admin store.Conn) *Store {
	return &Store{admin: admin}
}

// GetCredits returns the partner's balance snapshot.
func (s *Store) GetCredits(ctx context.Context, partnerID int64) (*Credits, error) {
	var c Credits
	err := s.admin.QueryRow(ctx,
		`SELECT mention_credits_remaining, mention_credits_total, monthly_mention_allowance
		 FROM business_partners WHERE id = $1`,
		partnerID,
	).Scan(&c.Remaining, &c.Purchased, &c.MonthlyAllowance)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "ledger: partner %d", partnerID)
		}
		return nil, eris.Wrapf(err, "ledger: credits for partner %d", partnerID)
	}
	return &c, nil
}

// Debit atomically subtracts amount from the partner's remaining balance and
// appends one usage-log entry. The subtraction and the floor check are one
// UPDATE, never a read followed by a write: two concurrent debits racing on
// the same stale read is exactly the failure this shape rules out. On
// insufficient balance nothing is mutated and no log entry is written.
func (s *Store) Debit(ctx context.Context, partnerID, amount int64, description string) (*Balance, error) {
	if amount <= 0 {
		return nil, eris.Wrapf(store.ErrValidation, "ledger: debit amount %d must be positive", amount)
	}

	var b Balance
	err := s.admin.QueryRow(ctx,
		`UPDATE business_partners
		 SET mention_credits_remaining = mention_credits_remaining - $2, updated_at = now()
		 WHERE id = $1 AND mention_credits_remaining >= $2
		 RETURNING id, mention_credits_remaining, mention_credits_total`,
		partnerID, amount,
	).Scan(&b.PartnerID, &b.Remaining, &b.Purchased)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyRejectedDebit(ctx, partnerID, amount)
		}
		return nil, eris.Wrapf(err, "ledger: debit partner %d", partnerID)
	}

	_, err = s.admin.Exec(ctx,
		`INSERT INTO credit_usage_log (business_partner_id, amount, description, created_at)
		 VALUES ($1, $2, $3, now())`,
		partnerID, amount, description,
	)
	if err != nil {
		// The balance already moved. Surfacing the gap distinctly lets an
		// operator reconcile the log against the balance.
		return &b, &store.PartialDebitError{PartnerID: partnerID, Amount: amount, Err: err}
	}

	return &b, nil
}

// classifyRejectedDebit distinguishes an unknown partner from an
// insufficient balance after the conditional UPDATE matched no row.
func (s *Store) classifyRejectedDebit(ctx context.Context, partnerID, amount int64) error {
	var remaining int64
	err := s.admin.QueryRow(ctx,
		`SELECT mention_credits_remaining FROM business_partners WHERE id = $1`,
		partnerID,
	).Scan(&remaining)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return eris.Wrapf(store.ErrNotFound, "ledger: partner %d", partnerID)
		}
		return eris.Wrapf(err, "ledger: inspect partner %d after rejected debit", partnerID)
	}
	return eris.Wrapf(store.ErrInsufficientCredits,
		"ledger: partner %d has %d credits, debit of %d rejected", partnerID, remaining, amount)
}

// TopUp adds purchased credits. Remaining and purchased move together so the
// ledger invariant purchased - sum(debits) = remaining is preserved.
func (s *Store) TopUp(ctx context.Context, partnerID, amount int64) (*Balance, error) {
	if amount <= 0 {
		return nil, eris.Wrapf(store.ErrValidation, "ledger: top-up amount %d must be positive", amount)
	}

	var b Balance
	err := s.admin.QueryRow(ctx,
		`UPDATE business_partners
		 SET mention_credits_remaining = mention_credits_remaining + $2,
		     mention_credits_total = mention_credits_total + $2,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, mention_credits_remaining, mention_credits_total`,
		partnerID, amount,
	).Scan(&b.PartnerID, &b.Remaining, &b.Purchased)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "ledger: partner %d", partnerID)
		}
		return nil, eris.Wrapf(err, "ledger: top up partner %d", partnerID)
	}
	return &b, nil
}

// UsageHistory returns the partner's debit log, newest first.
func (s *Store) UsageHistory(ctx context.Context, partnerID int64, limit int) ([]UsageEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.admin.Query(ctx,
		`SELECT id, business_partner_id, amount, description, created_at
		 FROM credit_usage_log
		 WHERE business_partner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		partnerID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: usage history for partner %d", partnerID)
	}
	defer rows.Close()

	entries := make([]UsageEntry, 0)
	for rows.Next() {
		var e UsageEntry
		if err := rows.Scan(&e.ID, &e.BusinessPartnerID, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "ledger: scan usage entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ledger: iterate usage history")
	}
	return entries, nil
}
