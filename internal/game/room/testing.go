//go:build !production

package room

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/protocol"
)

// MockRecorder 对局记录 mock
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordFinishedGame(ctx context.Context, result GameResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockListener 引擎回调 mock
type MockListener struct {
	mock.Mock
}

func (m *MockListener) SeatsReleased(roomID string, playerIDs []string) {
	m.Called(roomID, playerIDs)
}

func (m *MockListener) RoomClosed(roomID string, playerIDs []string) {
	m.Called(roomID, playerIDs)
}

func (m *MockListener) RoomChanged(view protocol.RoomView) {
	m.Called(view)
}

// SetHandForTest 替换玩家手牌
func (e *Engine) SetHandForTest(playerID string, hand ...card.Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.room.seat(playerID); s != nil {
		s.Hand = hand
	}
}

// SetActiveCardForTest 替换当前牌
func (e *Engine) SetActiveCardForTest(c card.Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.room.ActiveCard = &c
}

// SetTurnForTest 把回合交给指定玩家
func (e *Engine) SetTurnForTest(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.room.seatIndex(playerID); i >= 0 {
		e.beginTurn(i)
	}
}
