// Package handler 把客户端动作分发到房间引擎
package handler

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/logger"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
	"github.com/palemoky/uno-server/internal/types"
)

// RoomLookup 按房间号取引擎
type RoomLookup interface {
	Get(roomID string) *room.Engine
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server types.ServerInterface
	Rooms  RoomLookup
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	rooms    RoomLookup
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名，返回的错误由 reply 回报给操作者
type handlerFunc func(e *room.Engine, client types.ClientInterface, msg *protocol.Message) error

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		rooms:  deps.Rooms,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 房间操作
		protocol.MsgStartGame:           h.handleStartGame,
		protocol.MsgDeleteRoom:          h.handleDeleteRoom,
		protocol.MsgDisconnectVoluntary: h.handleDisconnectVoluntary,
		protocol.MsgReconnect:           h.handleReconnect,

		// 游戏操作
		protocol.MsgPlayCard:    h.handlePlayCard,
		protocol.MsgBuyCard:     h.handleBuyCard,
		protocol.MsgSkipRound:   h.handleSkipRound,
		protocol.MsgYellUno:     h.handleYellUno,
		protocol.MsgAccuseNoUno: h.handleAccuseNoUno,
		protocol.MsgChooseColor: h.handleChooseColor,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	handler, ok := h.handlers[msg.Type]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"player_id": client.GetID(),
			"type":      msg.Type,
		}).Warnf("⚠️  未知消息类型，已丢弃 (payload %d bytes)", len(msg.Payload))
		return
	}

	e := h.rooms.Get(client.GetRoom())
	if e == nil {
		h.reply(client, msg, apperrors.ErrRoomNotFound)
		return
	}

	h.reply(client, msg, handler(e, client, msg))
}

// reply 把错误回报给操作者。基础设施错误只记录日志
func (h *Handler) reply(client types.ClientInterface, msg *protocol.Message, err error) {
	if err == nil {
		return
	}

	var gameErr *apperrors.GameError
	if !errors.As(err, &gameErr) {
		logger.Player(client.GetRoom(), client.GetID()).
			WithField("type", msg.Type).
			WithError(err).Error("❌ 处理消息失败")
		return
	}

	switch gameErr.Kind {
	case apperrors.KindInternal:
		logger.Player(client.GetRoom(), client.GetID()).
			WithField("type", msg.Type).
			WithError(err).Error("❌ 处理消息失败")
	case apperrors.KindNotFound:
		client.SendMessage(codec.NewLeaveRoomError(gameErr.Code, gameErr.Message))
	default:
		client.SendMessage(codec.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
	}
}
