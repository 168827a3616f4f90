package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
)

// handleWebSocket 处理 /ws/{roomId}：校验、解析身份、升级连接并绑定座位
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	roomID := chi.URLParam(r, "roomId")
	log := logrus.WithFields(logrus.Fields{"ip": clientIP, "room_id": roomID})

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info("🔧 维护模式，拒绝新连接")
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeServerMaintenance)
		return
	}

	if !s.ipRules.Allows(clientIP) {
		log.Warn("🚫 IP 被过滤器拒绝")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.checkOrigin(r) {
		log.WithField("origin", r.Header.Get("Origin")).Warn("🚫 来源验证失败")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.limiter.Allow(clientIP) {
		writeError(w, http.StatusTooManyRequests, protocol.ErrCodeRateLimit)
		return
	}

	id, err := s.verifier.FromRequest(r)
	if err != nil {
		log.WithError(err).Info("🔑 身份验证失败")
		writeError(w, http.StatusUnauthorized, protocol.ErrCodeUnauthorized)
		return
	}

	if s.rooms.Get(roomID) == nil {
		writeError(w, http.StatusNotFound, protocol.ErrCodeRoomNotFound)
		return
	}

	// 连接数限制，名额在连接释放时归还
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warnf("🚫 达到最大连接数限制 (%d)", s.maxConnections)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.WithError(err).Warn("WebSocket 升级失败")
		return
	}

	client := NewClient(s, conn, id, clientIP)
	s.registerClient(client)
	go client.WritePump()

	_, reconnected, err := s.rooms.Connect(roomID, client)
	if err != nil {
		var gameErr *apperrors.GameError
		if errors.As(err, &gameErr) {
			client.SendMessage(codec.NewLeaveRoomError(gameErr.Code, gameErr.Message))
		}
		log.WithField("player_id", id.ID).WithError(err).Info("🚪 拒绝进入房间")
		client.Close()
		client.release()
		return
	}

	log.WithField("player_id", id.ID).Infof("✅ 玩家 %s 已连接 (重连: %t)", id.Name, reconnected)
	go client.ReadPump()
}
