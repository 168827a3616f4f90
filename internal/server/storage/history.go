package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palemoky/uno-server/internal/game/room"
)

// GameRecord 一局已结束对局的记录
type GameRecord struct {
	ID         string           `json:"id"`
	RoomID     string           `json:"room_id"`
	WinnerID   string           `json:"winner_id"`
	WinnerName string           `json:"winner_name"`
	FinishedAt time.Time        `json:"finished_at"`
	Players    []room.PlayerRef `json:"players"`
}

// History 基于 PostgreSQL 的对局历史
type History struct {
	pool *pgxpool.Pool
}

// NewHistory 创建对局历史仓库
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// NewPool 按配置创建连接池并检查连通性
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("解析 postgres 配置失败: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 postgres 连接池失败: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("连接 postgres 失败: %w", err)
	}
	return pool, nil
}

// RecordFinishedGame 在一个事务内写入对局和所有参与者
func (h *History) RecordFinishedGame(ctx context.Context, result room.GameResult) error {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	gameID := uuid.New()
	if _, err := tx.Exec(ctx,
		`INSERT INTO games (id, room_id, winner_id, winner_name, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		gameID, result.RoomID, result.WinnerID, result.WinnerName, result.FinishedAt,
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	batch := &pgx.Batch{}
	for seat, p := range result.Players {
		batch.Queue(
			`INSERT INTO game_players (game_id, player_id, player_name, seat, is_winner) VALUES ($1, $2, $3, $4, $5)`,
			gameID, p.ID, p.Name, seat, p.ID == result.WinnerID,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert game players: %w", err)
	}

	return tx.Commit(ctx)
}

// GamesByPlayer 返回玩家最近参与的对局，按结束时间倒序
func (h *History) GamesByPlayer(ctx context.Context, playerID string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.pool.Query(ctx, `
		WITH recent AS (
			SELECT g.id FROM games g
			JOIN game_players p ON p.game_id = g.id
			WHERE p.player_id = $1
			ORDER BY g.finished_at DESC
			LIMIT $2
		)
		SELECT g.id, g.room_id, g.winner_id, g.winner_name, g.finished_at, gp.player_id, gp.player_name
		FROM games g
		JOIN recent r ON r.id = g.id
		JOIN game_players gp ON gp.game_id = g.id
		ORDER BY g.finished_at DESC, g.id, gp.seat`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var (
			id                 uuid.UUID
			rec                GameRecord
			playerID, nickname string
		)
		if err := rows.Scan(&id, &rec.RoomID, &rec.WinnerID, &rec.WinnerName, &rec.FinishedAt, &playerID, &nickname); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.ID = id.String()
		if n := len(records); n > 0 && records[n-1].ID == rec.ID {
			records[n-1].Players = append(records[n-1].Players, room.PlayerRef{ID: playerID, Name: nickname})
			continue
		}
		rec.Players = []room.PlayerRef{{ID: playerID, Name: nickname}}
		records = append(records, rec)
	}
	return records, rows.Err()
}
