package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/uno-server/internal/game/room"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"

	// 同一玩家的并发写入冲突时的最大重试次数
	maxStatsRetries = 10
)

// ErrStatsContention 多次重试仍与其他写入冲突
var ErrStatsContention = errors.New("player stats update kept conflicting")

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`

	Score int `json:"score"`

	// 正数为连胜，负数为连败
	CurrentStreak int `json:"current_streak"`
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// 积分规则
const (
	WinScore  = 20
	LoseScore = -5

	// 连胜加成
	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// Leaderboard 基于 Redis 的玩家战绩和排行榜
type Leaderboard struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client, now: time.Now}
}

// GetPlayerStats 获取玩家统计，没有记录时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	return readStats(ctx, lb.redis, playerID)
}

// statsReader 普通客户端和 WATCH 事务都能读取统计
type statsReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readStats(ctx context.Context, c statsReader, playerID string) (*PlayerStats, error) {
	data, err := c.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGame 记录一局的所有参与者
func (lb *Leaderboard) RecordGame(ctx context.Context, result room.GameResult) error {
	var errs []error
	for _, p := range result.Players {
		if err := lb.RecordGameResult(ctx, p.ID, p.Name, p.ID == result.WinnerID); err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// RecordGameResult 记录单个玩家的胜负。统计在 WATCH 事务里读改写，
// 同一玩家的并发记录冲突时重试
func (lb *Leaderboard) RecordGameResult(ctx context.Context, playerID, playerName string, isWinner bool) error {
	key := playerStatsKey + playerID
	for range maxStatsRetries {
		err := lb.redis.Watch(ctx, func(tx *redis.Tx) error {
			stats, err := readStats(ctx, tx, playerID)
			if err != nil {
				return err
			}
			stats = lb.applyResult(stats, playerID, playerName, isWinner)
			data, err := json.Marshal(stats)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				lb.queueBoards(ctx, pipe, stats)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrStatsContention
}

// applyResult 在已有统计上计入一局，stats 为 nil 时新建
func (lb *Leaderboard) applyResult(stats *PlayerStats, playerID, playerName string, isWinner bool) *PlayerStats {
	now := lb.now()
	if stats == nil {
		stats = &PlayerStats{PlayerID: playerID, CreatedAt: now.Unix()}
	}

	stats.PlayerName = playerName
	stats.TotalGames++
	stats.LastPlayedAt = now.Unix()

	scoreChange := LoseScore
	if isWinner {
		scoreChange = WinScore
	}
	updateWinLossStats(stats, isWinner)
	scoreChange += calculateStreakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+scoreChange)
	return stats
}

// queueBoards 把总榜、日榜和周榜的更新加入事务
func (lb *Leaderboard) queueBoards(ctx context.Context, pipe redis.Pipeliner, stats *PlayerStats) {
	now := lb.now()
	z := redis.Z{Score: float64(stats.Score), Member: stats.PlayerID}
	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	year, week := now.ISOWeek()
	weeklyKey := fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)

	pipe.ZAdd(ctx, leaderboardKey, z)
	pipe.ZAdd(ctx, dailyKey, z)
	pipe.Expire(ctx, dailyKey, 48*time.Hour)
	pipe.ZAdd(ctx, weeklyKey, z)
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
}

// boardKey 按类型返回排行榜 key：total、daily、weekly
func (lb *Leaderboard) boardKey(kind string) string {
	now := lb.now()
	switch kind {
	case "daily":
		return dailyLeaderboard + now.Format("2006-01-02")
	case "weekly":
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// GetLeaderboard 获取排行榜（从高到低）
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := lb.redis.ZRevRangeWithScores(ctx, lb.boardKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, _ := result.Member.(string)
		stats, err := lb.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}
		entries = append(entries, &LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家在总榜的排名，未上榜返回 -1
func (lb *Leaderboard) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
