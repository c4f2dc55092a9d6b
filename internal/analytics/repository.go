package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summaryQuery = `SELECT
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM webinars),
	(SELECT COUNT(*) FROM webinars WHERE status = 'published'),
	(SELECT COUNT(*) FROM services),
	(SELECT COUNT(*) FROM webinar_registrations),
	(SELECT COUNT(*) FROM webinar_registrations WHERE payment_status IN ('completed', 'free')),
	(SELECT COUNT(*) FROM service_purchases),
	(SELECT COUNT(*) FROM service_purchases WHERE payment_status IN ('completed', 'free')),
	(SELECT COALESCE(SUM(amount_paid), 0) FROM webinar_registrations WHERE payment_status = 'completed'),
	(SELECT COALESCE(SUM(amount_paid), 0) FROM service_purchases WHERE payment_status = 'completed'),
	(SELECT COALESCE(SUM(discount_amount), 0) FROM coupon_usages),
	(SELECT COUNT(*) FROM contact_leads),
	(SELECT COUNT(*) FROM contact_leads WHERE status = 'new')`

// Summary loads every dashboard counter in one round trip.
func (r *Repository) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, summaryQuery).Scan(
		&s.Users,
		&s.Webinars, &s.PublishedWebinars,
		&s.Services,
		&s.Registrations, &s.ConfirmedRegistrations,
		&s.Purchases, &s.ConfirmedPurchases,
		&s.Revenue.Webinars, &s.Revenue.Services,
		&s.DiscountsGiven,
		&s.Leads, &s.NewLeads,
	)
	if err != nil {
		return nil, err
	}
	s.Revenue.Total = s.Revenue.Webinars.Add(s.Revenue.Services)
	s.ConversionRate = conversion(s.ConfirmedRegistrations+s.ConfirmedPurchases, s.Registrations+s.Purchases)
	return &s, nil
}

func conversion(confirmed, total int) *float64 {
	if total == 0 {
		return nil
	}
	v := decimal.NewFromInt(int64(confirmed)).Div(decimal.NewFromInt(int64(total))).Round(4).InexactFloat64()
	return &v
}
