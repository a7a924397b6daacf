package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestMigrationsApplyAndRollBackOnSQLite(t *testing.T) {
	conn := openSQLite(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, Run(ctx, sqlDB, "sqlite", "up"))
	for _, table := range []string{"admins", "customers", "vendors", "delivery_users", "foods", "offers",
		"cart_items", "transactions", "orders", "order_items", "outbox_events", "outbox_dlq"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	require.NoError(t, MigrateToVersion(ctx, sqlDB, "sqlite", "20260301090100"))
	assert.True(t, conn.Migrator().HasTable("foods"))
	assert.False(t, conn.Migrator().HasTable("orders"))

	require.NoError(t, Run(ctx, sqlDB, "sqlite", "reset"))
	assert.False(t, conn.Migrator().HasTable("customers"))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"PRIMARY KEY (customer_id, food_id)",
		"CHECK (unit > 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_transaction ON orders (transaction_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"version BIGINT NOT NULL DEFAULT 1",
		"DROP TABLE IF EXISTS orders",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestValidateDir(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))

	dir := t.TempDir()
	require.Error(t, ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), []byte("-- +goose Up\n"), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goose Down")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte(""), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Offer Codes!")
	require.NoError(t, err)
	assert.Regexp(t, `\d{14}_add_offer_codes\.sql$`, path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestDialect(t *testing.T) {
	d, err := Dialect("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d)
	d, err = Dialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d)
	_, err = Dialect("mysql")
	assert.Error(t, err)
}
