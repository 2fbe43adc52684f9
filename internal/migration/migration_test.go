package migration_test

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/garagedesk/internal/migration"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := testutil.NewDB(t)

	for _, table := range []string{
		"customers", "vehicles", "technicians", "service_records", "billing_settings",
		"invoices", "invoice_line_items", "payments", "audit_logs",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("invoices", "ux_invoices_service_id"))
	assert.True(t, db.Migrator().HasIndex("invoices", "ux_invoices_invoice_number"))

	// running again is a no-op
	require.NoError(t, migration.Migrate(db))
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	up, err := fs.Glob(migration.EmbeddedFS(), "sql/*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(migration.EmbeddedFS(), "sql/*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, up)
	assert.Len(t, down, len(up))
}
