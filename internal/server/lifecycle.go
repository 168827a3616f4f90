package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
)

// monitorStats 定期记录服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.logStats()
		}
	}
}

func (s *Server) logStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rooms, inGame := s.rooms.Stats()
	logrus.Infof("📊 [监控] 在线: %d | 房间: %d (对局中 %d) | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
		s.GetOnlineCount(),
		rooms,
		inGame,
		runtime.NumGoroutine(),
		len(s.semaphore),
		s.maxConnections,
		float64(m.Alloc)/1024/1024)
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接、新房间和新对局，进行中的对局不受影响
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		"👷🏻‍♂️ 维护模式：暂停创建房间和开始新对局"))
	logrus.Info("🔧 进入维护模式")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束（最多 timeout）后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()
	s.waitForGames(timeout)

	delay := s.config.Game.ShutdownDelayDuration()
	s.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		fmt.Sprintf("🚧 服务器将在 %d 秒后停机维护！", int(delay.Seconds()))))
	time.Sleep(delay)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Shutdown(ctx)
}

// waitForGames 等待所有对局结束，返回剩余对局数
func (s *Server) waitForGames(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		_, inGame := s.rooms.Stats()
		if inGame == 0 {
			logrus.Info("✅ 所有对局已结束")
			return 0
		}
		if !time.Now().Before(deadline) {
			logrus.Warnf("⚠️ 超时，仍有 %d 局进行中，强制关闭", inGame)
			return inGame
		}
		logrus.Infof("⏳ 等待 %d 局对局结束...", inGame)
		<-ticker.C
	}
}

// Shutdown 关闭 HTTP 服务、所有连接和注册表
func (s *Server) Shutdown(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.stop) })

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("HTTP 服务关闭超时")
		}
	}

	s.clientsMu.RLock()
	for client := range s.clients {
		client.Close()
	}
	s.clientsMu.RUnlock()

	s.rooms.Shutdown()
	s.limiter.Stop()
	logrus.Info("服务器已关闭")
}
