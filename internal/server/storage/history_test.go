package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/server/storage/migrations"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("uno"),
		tcpostgres.WithUsername("uno"),
		tcpostgres.WithPassword("uno"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrations.Up(dsn))
	// running again is a no-op
	require.NoError(t, migrations.Up(dsn))

	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewHistory(pool)
}

func TestHistory_RecordAndQuery(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	games := []room.GameResult{
		{
			RoomID: "000001", WinnerID: "a", WinnerName: "A", FinishedAt: base,
			Players: []room.PlayerRef{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}},
		},
		{
			RoomID: "000002", WinnerID: "d", WinnerName: "D", FinishedAt: base.Add(time.Hour),
			Players: []room.PlayerRef{{ID: "d", Name: "D"}, {ID: "a", Name: "A"}, {ID: "e", Name: "E"}},
		},
		{
			RoomID: "000003", WinnerID: "x", WinnerName: "X", FinishedAt: base.Add(2 * time.Hour),
			Players: []room.PlayerRef{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}, {ID: "z", Name: "Z"}},
		},
	}
	for _, g := range games {
		require.NoError(t, h.RecordFinishedGame(ctx, g))
	}

	records, err := h.GamesByPlayer(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "000002", records[0].RoomID)
	assert.Equal(t, "d", records[0].WinnerID)
	assert.Equal(t, []room.PlayerRef{{ID: "d", Name: "D"}, {ID: "a", Name: "A"}, {ID: "e", Name: "E"}}, records[0].Players)
	assert.Equal(t, "000001", records[1].RoomID)
	assert.True(t, records[1].FinishedAt.Equal(base))

	records, err = h.GamesByPlayer(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "000002", records[0].RoomID)

	records, err = h.GamesByPlayer(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistory_DuplicatePlayerRollsBack(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	bad := room.GameResult{
		RoomID: "000009", WinnerID: "a", WinnerName: "A", FinishedAt: time.Now(),
		Players: []room.PlayerRef{{ID: "a", Name: "A"}, {ID: "a", Name: "A"}},
	}
	require.Error(t, h.RecordFinishedGame(ctx, bad))

	records, err := h.GamesByPlayer(ctx, "a", 10)
	require.NoError(t, err)
	assert.Empty(t, records, "failed insert leaves no partial game")
}
