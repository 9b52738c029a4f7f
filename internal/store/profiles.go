package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pbaille/cfaprep/internal/domain"
)

// UpsertProfile creates or replaces a profile's account and subscription fields
func (s *Store) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	t := now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t
	}
	p.UpdatedAt = t
	if p.Plan == "" {
		p.Plan = domain.PlanFree
	}
	if p.SubscriptionStatus == "" {
		p.SubscriptionStatus = domain.SubscriptionNone
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, plan, subscription_status, current_period_end,
			payment_customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			plan = excluded.plan,
			subscription_status = excluded.subscription_status,
			current_period_end = excluded.current_period_end,
			payment_customer_id = excluded.payment_customer_id,
			updated_at = excluded.updated_at`,
		p.ID, p.Email, p.FullName, p.Plan, p.SubscriptionStatus, p.CurrentPeriodEnd,
		p.PaymentCustomerID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by user ID
func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var (
		p         domain.Profile
		periodEnd sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, plan, subscription_status, current_period_end,
			payment_customer_id, created_at, updated_at
		FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Email, &p.FullName, &p.Plan, &p.SubscriptionStatus, &periodEnd,
		&p.PaymentCustomerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	p.CurrentPeriodEnd = nullTime(periodEnd)
	return &p, nil
}
