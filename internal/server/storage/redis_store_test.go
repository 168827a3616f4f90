package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/protocol"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	view := protocol.RoomView{
		ID:      "123456",
		Name:    "test",
		OwnerID: "p1",
		Status:  "WAITING",
		Seats:   []protocol.SeatView{{ID: "p1", Name: "P1", CardCount: 1}},
		Hand:    []card.Card{{Color: card.Red, Value: "1"}},
	}
	require.NoError(t, store.SaveRoom(ctx, view))
	assert.True(t, mr.Exists("room:123456"))
	assert.Equal(t, roomExpiration, mr.TTL("room:123456"))

	loaded, err := store.LoadRoom(ctx, "123456")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "test", loaded.Name)
	assert.Len(t, loaded.Seats, 1)
	assert.Nil(t, loaded.Hand, "private hands are never mirrored")

	require.NoError(t, store.DeleteRoom(ctx, "123456"))
	loaded, err = store.LoadRoom(ctx, "123456")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_GetAllRoomIDs(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	for _, id := range []string{"000001", "000002", "000003"} {
		require.NoError(t, store.SaveRoom(ctx, protocol.RoomView{ID: id}))
	}
	require.NoError(t, mr.Set("player:stats:p1", "{}"))

	ids, err := store.GetAllRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"000001", "000002", "000003"}, ids)
}

func TestRedisStore_LoadCorrupted(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	require.NoError(t, mr.Set("room:bad", "not json"))

	_, err := NewRedisStore(client).LoadRoom(context.Background(), "bad")
	assert.Error(t, err)
}
