package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/Freeeeeet/jamroom/internal/app"
	"github.com/Freeeeeet/jamroom/internal/migrations"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"github.com/Freeeeeet/jamroom/internal/repository/storetest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const truncateAll = `
	TRUNCATE users, clans, clan_members, rooms, sessions, session_reservations,
		room_availability_slots, availability_votes, evaluations,
		group_chats
	RESTART IDENTITY CASCADE
`

// TestPgStoreContract требует TEST_DB_DSN с пустой базой, иначе пропускается
func TestPgStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	storetest.Run(t, func(t *testing.T) repository.Store {
		_, err := pool.Exec(ctx, truncateAll)
		require.NoError(t, err)
		return repository.NewStore(pool)
	})
}
