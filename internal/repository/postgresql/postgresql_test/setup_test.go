package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wecare/escalas-backend/internal/pkg/database"
)

// testDatabase connects to TEST_DATABASE_URL, which must point at a database
// with migrations/001_escalas.up.sql applied. Tests are skipped without it.
func testDatabase(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, truncateAll(context.Background(), db))
	return db
}

func truncateAll(ctx context.Context, db *database.DB) error {
	tables := []string{
		"notifications",
		"checkins",
		"shift_assignments",
		"shifts",
		"sectors",
		"establishments",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func seed(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO users (id, name, role) VALUES
			('p1', 'Ana', 'Socio'), ('p2', 'Bruno', 'Socio'),
			('sup', 'Carla', 'Supervisor'), ('adm', 'Davi', 'Administrador')`,
		`INSERT INTO establishments (id, name, address, latitude, longitude, radius_meters)
			VALUES ('est-1', 'Hospital Central', 'Av. Paulista, 1000', -23.5505, -46.6333, 100)`,
		`INSERT INTO sectors (id, establishment_id, name) VALUES ('uti', 'est-1', 'UTI')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}
