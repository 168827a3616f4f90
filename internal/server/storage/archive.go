package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/palemoky/uno-server/internal/game/room"
)

// Archive 房间引擎的 Recorder：先写对局历史，再更新排行榜。
// 任一部分未配置时跳过
type Archive struct {
	History     *History
	Leaderboard *Leaderboard
}

// RecordFinishedGame 保存一局结果，两部分的错误合并返回
func (a *Archive) RecordFinishedGame(ctx context.Context, result room.GameResult) error {
	var errs []error
	if a.History != nil {
		if err := a.History.RecordFinishedGame(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
	}
	if a.Leaderboard != nil {
		if err := a.Leaderboard.RecordGame(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard: %w", err))
		}
	}
	return errors.Join(errs...)
}
