// Package server 提供 WebSocket 网关和大厅 HTTP 接口
package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/config"
	"github.com/palemoky/uno-server/internal/game/registry"
	"github.com/palemoky/uno-server/internal/server/auth"
	"github.com/palemoky/uno-server/internal/server/handler"
	"github.com/palemoky/uno-server/internal/server/storage"
)

const (
	monitorInterval       = 30 * time.Second
	shutdownCheckInterval = 5 * time.Second
)

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, kind string, limit int) ([]*storage.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
}

// HistoryReader 对局历史查询
type HistoryReader interface {
	GamesByPlayer(ctx context.Context, playerID string, limit int) ([]storage.GameRecord, error)
}

// Deps 服务器依赖。Leaderboard、History、Redis 可以为空
type Deps struct {
	Rooms       *registry.Registry
	Verifier    *auth.Verifier
	Leaderboard LeaderboardReader
	History     HistoryReader
	Redis       *redis.Client // 只用于健康检查
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	rooms       *registry.Registry
	verifier    *auth.Verifier
	leaderboard LeaderboardReader
	history     HistoryReader
	redis       *redis.Client
	handler     *handler.Handler
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	// 安全组件
	limiter      *connLimiter
	checkOrigin  func(r *http.Request) bool
	ipRules      ipRules
	msgPerSecond int

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	checkInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// New 创建服务器实例
func New(cfg *config.Config, deps Deps) *Server {
	sec := cfg.Security
	s := &Server{
		config:      cfg,
		rooms:       deps.Rooms,
		verifier:    deps.Verifier,
		leaderboard: deps.Leaderboard,
		history:     deps.History,
		redis:       deps.Redis,
		clients:     make(map[*Client]struct{}),

		limiter: newConnLimiter(
			sec.RateLimit.MaxPerSecond,
			sec.RateLimit.MaxPerMinute,
			sec.RateLimit.BanDurationTime(),
		),
		checkOrigin:  originCheck(sec.AllowedOrigins),
		ipRules:      newIPRules(sec.IPWhitelist, sec.IPBlacklist),
		msgPerSecond: sec.MessageLimit.MaxPerSecond,

		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		checkInterval:  shutdownCheckInterval,
		stop:           make(chan struct{}),
	}
	if s.verifier == nil {
		s.verifier = auth.NewVerifier(cfg.Auth.Secret)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server: s,
		Rooms:  deps.Rooms,
	})

	if s.verifier.GuestMode() {
		logrus.Warn("🔓 未配置 AUTH_SECRET，以游客模式运行")
	}
	logrus.Infof("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		sec.RateLimit.MaxPerSecond, sec.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)
	return s
}

// Routes 返回服务器的路由
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/ws/{roomId}", s.handleWebSocket)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.guard)

		r.Get("/rooms", s.handleListRooms)
		r.Post("/rooms", s.handleCreateRoom)
		r.Post("/rooms/{roomId}/join", s.handleJoinRoom)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Route("/me", func(r chi.Router) {
			r.Get("/room", s.handleMyRoom)
			r.Get("/games", s.handleMyGames)
			r.Get("/stats", s.handleMyStats)
		})
	})
	return r
}

// Start 启动服务器并阻塞，直到 Shutdown 被调用
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats()

	logrus.Infof("🚀 服务器启动在 ws://%s/ws/{roomId} (CPU核心数: %d)", addr, runtime.NumCPU())
	return s.httpServer.ListenAndServe()
}
