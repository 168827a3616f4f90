package room

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-server/internal/game/card"
)

func TestWatchdog_ExpiryIsIdempotent(t *testing.T) {
	t.Parallel()

	e, clients := startedEngine(t, 3, nil)
	e.room.seat("p1").CalledLastCard = true
	gen := e.turnGen

	e.expireTurn(gen)
	assert.Len(t, e.room.seat("p1").Hand, 8, "owner who had not drawn gets one card")
	assert.False(t, e.room.seat("p1").CalledLastCard)
	assert.Equal(t, "p2", e.room.TurnOwnerID)
	assert.Equal(t, gen+1, e.turnGen, "exactly one fresh timer is armed")
	assertSingleTurn(t, e)
	_, ok := clients[0].LastRoom()
	assert.True(t, ok)

	// the same deadline firing again changes nothing
	clients[0].Reset()
	e.expireTurn(gen)
	assert.Equal(t, "p2", e.room.TurnOwnerID)
	assert.Len(t, e.room.seat("p2").Hand, 7)
	assert.Equal(t, gen+1, e.turnGen)
	assert.Empty(t, clients[0].SentMessages())
}

func TestWatchdog_NoExtraDrawAfterDrawing(t *testing.T) {
	t.Parallel()

	e, _ := startedEngine(t, 3, nil)
	require.NoError(t, e.DrawCard("p1"))

	e.expireTurn(e.turnGen)
	assert.Len(t, e.room.seat("p1").Hand, 8)
	assert.Equal(t, "p2", e.room.TurnOwnerID)
}

func TestWatchdog_ChoosesRandomColor(t *testing.T) {
	t.Parallel()

	e, _ := startedEngine(t, 3, nil)
	e.SetHandForTest("p1", c(card.Wild, card.WildDrawFour), c(card.Blue, "1"))
	require.NoError(t, e.PlayCard("p1", c(card.Wild, card.WildDrawFour)))

	e.expireTurn(e.turnGen)
	assert.True(t, slices.Contains(card.Colors, e.room.ActiveCard.ChosenColor))
	assert.Equal(t, SubStateNone, e.room.SubState)
	assert.Equal(t, "p3", e.room.TurnOwnerID)
	assert.Len(t, e.room.seat("p1").Hand, 1, "no auto-draw while choosing a color")
}

func TestWatchdog_StaleAfterWin(t *testing.T) {
	t.Parallel()

	e, _ := startedEngine(t, 3, nil)
	gen := e.turnGen
	e.SetHandForTest("p1", c(card.Red, "9"))
	require.NoError(t, e.PlayCard("p1", c(card.Red, "9")))

	e.expireTurn(gen)
	assert.Equal(t, StatusWaiting, e.room.Status)
	assert.Nil(t, e.turnTimer)
}

func TestWatchdog_StaleAfterDelete(t *testing.T) {
	t.Parallel()

	e, _ := startedEngine(t, 3, nil)
	gen := e.turnGen
	require.NoError(t, e.Delete("p1"))

	e.expireTurn(gen)
	assert.True(t, e.Closed())
	assert.Nil(t, e.turnTimer)
}

func TestWatchdog_RealTimer(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 3, func(o *Options) { o.TurnTimeout = 30 * time.Millisecond })
	require.NoError(t, e.Start("p1"))
	first := e.Snapshot("").TurnOwnerID

	require.Eventually(t, func() bool {
		return e.Snapshot("").TurnOwnerID != first
	}, time.Second, 5*time.Millisecond)
	assertSingleTurn(t, e)
}

func TestWatchdog_ConcurrentActionsStaySerialized(t *testing.T) {
	t.Parallel()

	e, clients := newTestEngine(t, 4, func(o *Options) { o.TurnTimeout = time.Millisecond })
	require.NoError(t, e.Start("p1"))

	deadline := time.Now().Add(300 * time.Millisecond)
	var wg sync.WaitGroup
	for i, cl := range clients {
		wg.Add(1)
		go func(id string, k int) {
			defer wg.Done()
			for n := 0; time.Now().Before(deadline); n++ {
				switch (n + k) % 5 {
				case 0:
					if hand := e.Snapshot(id).Hand; len(hand) > 0 {
						_ = e.PlayCard(id, hand[n%len(hand)])
					}
				case 1:
					_ = e.DrawCard(id)
				case 2:
					_ = e.ChooseColor(id, string(card.Colors[n%len(card.Colors)]))
				case 3:
					_ = e.SkipTurn(id)
				default:
					// a finished game goes back to waiting, so keep restarting it
					_ = e.Start(id)
				}
				assertSingleTurn(t, e)
			}
		}(cl.GetID(), i)
	}
	wg.Wait()

	assertSingleTurn(t, e)
	assert.False(t, e.Closed())
}
