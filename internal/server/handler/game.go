package handler

import (
	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
	"github.com/palemoky/uno-server/internal/types"
)

// handlePlayCard 处理出牌
func (h *Handler) handlePlayCard(e *room.Engine, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil || !payload.Card.Valid() {
		return apperrors.ErrInvalidMessage
	}
	return e.PlayCard(client.GetID(), payload.Card)
}

// handleBuyCard 摸一张牌
func (h *Handler) handleBuyCard(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.DrawCard(client.GetID())
}

// handleSkipRound 摸牌后过
func (h *Handler) handleSkipRound(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.SkipTurn(client.GetID())
}

// handleYellUno 喊 UNO
func (h *Handler) handleYellUno(e *room.Engine, client types.ClientInterface, _ *protocol.Message) error {
	return e.CallLastCard(client.GetID())
}

// handleAccuseNoUno 举报没喊 UNO 的玩家
func (h *Handler) handleAccuseNoUno(e *room.Engine, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.AccuseNoUnoPayload](msg)
	if err != nil || payload.AccusedID == "" {
		return apperrors.ErrInvalidMessage
	}
	return e.AccuseNoCall(client.GetID(), payload.AccusedID)
}

// handleChooseColor 万能牌选色
func (h *Handler) handleChooseColor(e *room.Engine, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.ChooseColorPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	return e.ChooseColor(client.GetID(), payload.Color)
}
