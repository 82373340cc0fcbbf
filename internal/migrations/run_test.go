package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)

	migrationsPath := filepath.Join(projectRoot, "migrations")
	t.Logf("Migrations path: %s", migrationsPath)
	return migrationsPath
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	err := Run(db, migrationsPath)
	require.NoError(t, err)

	var exists bool
	for _, table := range []string{"users", "products", "subscriptions"} {
		err = db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "Table %q should exist", table)
	}

	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'subscriptions'
			AND indexname = 'subscriptions_user_product_current_idx'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Partial unique index should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	err := Run(db, migrationsPath)
	require.NoError(t, err)

	err = Run(db, migrationsPath)
	require.NoError(t, err, "Re-running migrations should be a no-op")
}

func TestPartialUniqueIndexGuard(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	require.NoError(t, Run(db, getMigrationsPath(t)))

	var uid string
	err := db.QueryRow(`INSERT INTO users (name, email, password_hash)
		VALUES ('Alice', 'alice@example.com', 'hash') RETURNING uid`).Scan(&uid)
	require.NoError(t, err)

	var productID int
	err = db.QueryRow(`INSERT INTO products (name, price)
		VALUES ('Netflix', 499) RETURNING id`).Scan(&productID)
	require.NoError(t, err)

	insert := `INSERT INTO subscriptions
		(user_uid, product_id, status, plan_type, start_date, end_date, next_billing_date, price)
		VALUES ($1, $2, $3, 'monthly', now(), now(), now(), 499)`

	_, err = db.Exec(insert, uid, productID, "active")
	require.NoError(t, err)

	// Вторая действующая подписка на ту же пару упирается в индекс.
	_, err = db.Exec(insert, uid, productID, "active")
	require.Error(t, err)

	// Отменённые записи индексом не учитываются.
	_, err = db.Exec(`UPDATE subscriptions SET status = 'cancelled' WHERE user_uid = $1`, uid)
	require.NoError(t, err)
	_, err = db.Exec(insert, uid, productID, "active")
	require.NoError(t, err)
}
