package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/server/auth"
	"github.com/palemoky/uno-server/internal/server/storage"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	maxBodySize      = 4096
)

// roomResponse 创建/加入房间的响应，带上服务端确认的玩家 ID（游客模式下由服务端分配）
type roomResponse struct {
	PlayerID string            `json:"playerId"`
	Room     protocol.RoomView `json:"room"`
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type myRoomResponse struct {
	InRoom bool   `json:"inRoom"`
	RoomID string `json:"roomId,omitempty"`
}

type myStatsResponse struct {
	Stats *storage.PlayerStats `json:"stats"`
	Rank  int64                `json:"rank"`
}

// guard 大厅接口的 IP 过滤和速率限制
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		if !s.ipRules.Allows(ip) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !s.limiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, protocol.ErrCodeRateLimit)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identify 解析调用者身份，失败时已写入 401
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, err := s.verifier.FromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, protocol.ErrCodeUnauthorized)
		return auth.Identity{}, false
	}
	return id, true
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.ListRooms())
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if s.IsMaintenanceMode() {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeServerMaintenance)
		return
	}
	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}

	view, err := s.rooms.CreateRoom(id.ID, id.Name, req.Name)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomResponse{PlayerID: id.ID, Room: view})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if s.IsMaintenanceMode() {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeServerMaintenance)
		return
	}
	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	view, err := s.rooms.JoinRoom(id.ID, id.Name, chi.URLParam(r, "roomId"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{PlayerID: id.ID, Room: view})
}

func (s *Server) handleMyRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}
	roomID, in := s.rooms.IsPlayerInActiveRoom(id.ID)
	writeJSON(w, http.StatusOK, myRoomResponse{InRoom: in, RoomID: roomID})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	games, err := s.history.GamesByPlayer(r.Context(), id.ID, queryLimit(r))
	if err != nil {
		logrus.WithField("player_id", id.ID).WithError(err).Error("❌ 查询对局历史失败")
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeUnknown)
		return
	}

	stats, err := s.leaderboard.GetPlayerStats(r.Context(), id.ID)
	if err != nil {
		logrus.WithField("player_id", id.ID).WithError(err).Error("❌ 查询玩家战绩失败")
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusOK, myStatsResponse{Rank: -1})
		return
	}
	rank, err := s.leaderboard.GetPlayerRank(r.Context(), id.ID)
	if err != nil {
		rank = -1
	}
	writeJSON(w, http.StatusOK, myStatsResponse{Stats: stats, Rank: rank})
}

// handleLeaderboard GET /api/leaderboard?type=total|daily|weekly&limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeUnknown)
		return
	}

	kind := r.URL.Query().Get("type")
	switch kind {
	case "":
		kind = "total"
	case "total", "daily", "weekly":
	default:
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}

	entries, err := s.leaderboard.GetLeaderboard(r.Context(), kind, queryLimit(r))
	if err != nil {
		logrus.WithError(err).Error("❌ 查询排行榜失败")
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleHealth 健康检查接口，配置了 Redis 时一并检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("写入响应失败")
	}
}

func writeError(w http.ResponseWriter, status, code int) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: protocol.ErrorMessages[code]})
}

// writeGameError 把 GameError 的类别映射为 HTTP 状态码
func writeGameError(w http.ResponseWriter, err error) {
	var gameErr *apperrors.GameError
	if !errors.As(err, &gameErr) {
		logrus.WithError(err).Error("❌ 大厅请求失败")
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}

	status := http.StatusConflict
	switch gameErr.Kind {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindAuthorization:
		status = http.StatusForbidden
	case apperrors.KindInternal:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, protocol.ErrorPayload{Code: gameErr.Code, Message: gameErr.Message})
}
