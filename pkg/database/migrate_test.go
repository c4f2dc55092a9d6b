package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
}

func TestSchemaDeclaresReconciliationKeys(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	require.NoError(t, err)
	sql := string(raw)

	for _, table := range []string{"coupons", "coupon_usages", "webinars", "webinar_registrations", "services", "service_purchases", "users", "contact_leads", "site_settings", "email_logs"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
	assert.Contains(t, sql, "UNIQUE (coupon_id, order_ref)")
	assert.Equal(t, 2, strings.Count(sql, "payment_id      TEXT UNIQUE"))
}
