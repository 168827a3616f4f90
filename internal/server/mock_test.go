package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/uno-server/internal/server/storage"
)

// MockLeaderboard 排行榜查询 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*storage.LeaderboardEntry, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboard) GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockLeaderboard) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockHistory 对局历史查询 mock
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) GamesByPlayer(ctx context.Context, playerID string, limit int) ([]storage.GameRecord, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.GameRecord), args.Error(1)
}
