package handler

import (
	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
	"github.com/palemoky/uno-server/internal/types"
)

// handleStartGame 房主开始游戏，维护模式下不允许开新局
func (h *Handler) handleStartGame(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	if h.server != nil && h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "服务器维护中，暂停开始新对局"))
		return nil
	}
	return e.Start(client.GetID())
}

// handleDeleteRoom 房主解散房间
func (h *Handler) handleDeleteRoom(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.Delete(client.GetID())
}

// handleDisconnectVoluntary 开局前主动离开
func (h *Handler) handleDisconnectVoluntary(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.Leave(client.GetID())
}

// handleReconnect 重发完整快照
func (h *Handler) handleReconnect(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.Resync(client.GetID())
}
