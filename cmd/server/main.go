package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/config"
	"github.com/palemoky/uno-server/internal/game/registry"
	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/logger"
	"github.com/palemoky/uno-server/internal/server"
	"github.com/palemoky/uno-server/internal/server/auth"
	"github.com/palemoky/uno-server/internal/server/storage"
	"github.com/palemoky/uno-server/internal/server/storage/migrations"
)

// 收到退出信号后最多等待进行中的对局这么久
const drainTimeout = 10 * time.Minute

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("读取 .env 失败: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Infof("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}
	if err := logger.Init(cfg.Log); err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("redis 连接失败: %v", err)
	}

	leaderboard := storage.NewLeaderboard(rdb)
	archive := &storage.Archive{Leaderboard: leaderboard}
	deps := server.Deps{
		Verifier:    auth.NewVerifier(cfg.Auth.Secret),
		Leaderboard: leaderboard,
		Redis:       rdb,
	}

	if cfg.Postgres.DSN != "" {
		pool := openHistory(ctx, cfg.Postgres)
		defer pool.Close()
		history := storage.NewHistory(pool)
		archive.History = history
		deps.History = history
	} else {
		logrus.Info("未配置 POSTGRES_DSN，不记录对局历史")
	}

	rooms := registry.New(registry.Options{
		Engine: room.Options{
			TurnTimeout:    cfg.Game.TurnTimeoutDuration(),
			AbandonTimeout: cfg.Game.AbandonTimeoutDuration(),
			MaxSeats:       cfg.Game.MaxSeats,
			MinSeats:       cfg.Game.MinSeats,
			HandSize:       cfg.Game.HandSize,
			Recorder:       archive,
		},
		RoomTimeout: cfg.Game.RoomTimeoutDuration(),
		Store:       storage.NewRedisStore(rdb),
	})
	if err := rooms.PurgeStale(ctx); err != nil {
		logrus.Warnf("清理残留房间失败: %v", err)
	}
	deps.Rooms = rooms

	srv := server.New(cfg, deps)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-quit
		logrus.Info("正在关闭服务器...")
		srv.GracefulShutdown(drainTimeout)
		close(done)
	}()

	logrus.Info("🎮 UNO 服务器启动中...")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("服务器启动失败: %v", err)
	}
	<-done
}

// openHistory 连接对局历史库并执行迁移，失败直接退出
func openHistory(ctx context.Context, cfg config.PostgresConfig) *pgxpool.Pool {
	if err := migrations.Up(cfg.DSN); err != nil {
		logrus.Fatalf("数据库迁移失败: %v", err)
	}
	pool, err := storage.NewPool(ctx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		logrus.Fatalf("postgres 连接失败: %v", err)
	}
	return pool
}
