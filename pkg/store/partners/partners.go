// Package partners persists business partner accounts. Credit balance
// mutation lives in the ledger package; this package only creates and reads
// partner rows.
package partners

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/pkg/store"
)

// Partner is a sponsoring local business with a mention credit balance.
type Partner struct {
	ID                      int64      `json:"id"`
	EntityID                *int64     `json:"entity_id"`
	BusinessName            string     `json:"business_name"`
	BusinessType            string     `json:"business_type"`
	ContactName             string     `json:"contact_name"`
	ContactEmail            string     `json:"contact_email"`
	ContactPhone            string     `json:"contact_phone"`
	PartnershipTier         string     `json:"partnership_tier"`
	MonthlyFee              float64    `json:"monthly_fee"`
	MentionCreditsTotal     int64      `json:"mention_credits_total"`
	MentionCreditsRemaining int64      `json:"mention_credits_remaining"`
	MonthlyMentionAllowance int64      `json:"monthly_mention_allowance"`
	ContractStartDate       *time.Time `json:"contract_start_date"`
	ContractEndDate         *time.Time `json:"contract_end_date"`
	AutoRenewal             bool       `json:"auto_renewal"`
	Status                  string     `json:"status"`
	Notes                   string     `json:"notes"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

type CreateParams struct {
	EntityID                *int64
	BusinessName            string
	BusinessType            string
	ContactName             string
	ContactEmail            string
	ContactPhone            string
	PartnershipTier         string
	MonthlyFee              float64
	MentionCreditsTotal     int64
	MonthlyMentionAllowance int64
	ContractStartDate       *time.Time
	ContractEndDate         *time.Time
	AutoRenewal             *bool
	Status                  string
	Notes                   string
}

type Filter struct {
	Status string
	Tier   string
	Limit  int
}

const defaultListLimit = 50

// Store reads and creates business partners.
type Store struct {
	conn store.Conn
}

func New(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// Create inserts a partner. Tier defaults to bronze, status to active, and
// the remaining balance starts at the purchased total.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Partner, error) {
	if params.BusinessName == "" {
		return nil, eris.Wrap(store.ErrValidation, "partners: business_name is required")
	}
	if params.MentionCreditsTotal < 0 {
		return nil, eris.Wrap(store.ErrValidation, "partners: mention_credits_total must not be negative")
	}

	tier := params.PartnershipTier
	if tier == "" {
		tier = "bronze"
	}
	status := params.Status
	if status == "" {
		status = "active"
	}
	autoRenewal := true
	if params.AutoRenewal != nil {
		autoRenewal = *params.AutoRenewal
	}

	partner := Partner{
		EntityID:                params.EntityID,
		BusinessName:            params.BusinessName,
		BusinessType:            params.BusinessType,
		ContactName:             params.ContactName,
		ContactEmail:            params.ContactEmail,
		ContactPhone:            params.ContactPhone,
		PartnershipTier:         tier,
		MonthlyFee:              params.MonthlyFee,
		MentionCreditsTotal:     params.MentionCreditsTotal,
		MentionCreditsRemaining: params.MentionCreditsTotal,
		MonthlyMentionAllowance: params.MonthlyMentionAllowance,
		ContractStartDate:       params.ContractStartDate,
		ContractEndDate:         params.ContractEndDate,
		AutoRenewal:             autoRenewal,
		Status:                  status,
		Notes:                   params.Notes,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO business_partners
		   (entity_id, business_name, business_type, contact_name, contact_email, contact_phone,
		    partnership_tier, monthly_fee, mention_credits_total, mention_credits_remaining,
		    monthly_mention_allowance, contract_start_date, contract_end_date, auto_renewal,
		    status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
		 RETURNING id, created_at, updated_at`,
		partner.EntityID, partner.BusinessName, partner.BusinessType, partner.ContactName,
		partner.ContactEmail, partner.ContactPhone, partner.PartnershipTier, partner.MonthlyFee,
		partner.MentionCreditsTotal, partner.MentionCreditsRemaining, partner.MonthlyMentionAllowance,
		partner.ContractStartDate, partner.ContractEndDate, partner.AutoRenewal,
		partner.Status, partner.Notes,
	).Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, eris.Wrap(store.ErrNotFound, "partners: backing entity does not exist")
		}
		return nil, eris.Wrap(err, "partners: create")
	}

	return &partner, nil
}

// GetByID returns one partner.
func (s *Store) GetByID(ctx context.Context, id int64) (*Partner, error) {
	partner, err := scanPartner(s.conn.QueryRow(ctx,
		`SELECT `+partnerColumnList+` FROM business_partners WHERE id = $1`, id))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "partners: partner %d", id)
		}
		return nil, eris.Wrapf(err, "partners: get partner %d", id)
	}
	return partner, nil
}

// List returns partners matching the filter.
func (s *Store) List(ctx context.Context, filter Filter) ([]Partner, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := store.Builder.
		Select(partnerColumns...).
		From("business_partners").
		OrderBy("business_name ASC").
		Limit(uint64(limit))
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Tier != "" {
		q = q.Where(sq.Eq{"partnership_tier": filter.Tier})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "partners: build list query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "partners: list")
	}
	defer rows.Close()

	list := make([]Partner, 0)
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			return nil, eris.Wrap(err, "partners: scan partner")
		}
		list = append(list, *partner)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "partners: iterate partners")
	}
	return list, nil
}

// Count returns the total number of partners.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM business_partners`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "partners: count")
	}
	return count, nil
}

var partnerColumns = []string{
	"id", "entity_id", "business_name", "business_type",
	"contact_name", "contact_email", "contact_phone",
	"partnership_tier", "monthly_fee",
	"mention_credits_total", "mention_credits_remaining", "monthly_mention_allowance",
	"contract_start_date", "contract_end_date", "auto_renewal",
	"status", "notes", "created_at", "updated_at",
}

const partnerColumnList = `id, entity_id, business_name, business_type,
	contact_name, contact_email, contact_phone,
	partnership_tier, monthly_fee,
	mention_credits_total, mention_credits_remaining, monthly_mention_allowance,
	contract_start_date, contract_end_date, auto_renewal,
	status, notes, created_at, updated_at`

func scanPartner(row pgx.Row) (*Partner, error) {
	var p Partner
	err := row.Scan(
		&p.ID, &p.EntityID, &p.BusinessName, &p.BusinessType,
		&p.ContactName, &p.ContactEmail, &p.ContactPhone,
		&p.PartnershipTier, &p.MonthlyFee,
		&p.MentionCreditsTotal, &p.MentionCreditsRemaining, &p.MonthlyMentionAllowance,
		&p.ContractStartDate, &p.ContractEndDate, &p.AutoRenewal,
		&p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
