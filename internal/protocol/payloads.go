package protocol

import "github.com/palemoky/uno-server/internal/game/card"

// --- 客户端请求 Payloads ---

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	Card card.Card `json:"card"`
}

// ChooseColorPayload 选色请求
type ChooseColorPayload struct {
	Color string `json:"color"`
}

// AccuseNoUnoPayload 举报请求
type AccuseNoUnoPayload struct {
	AccusedID string `json:"accusedId"`
}

// --- 服务端响应 Payloads ---

// UpdateRoomPayload 房间快照
type UpdateRoomPayload struct {
	Room    RoomView `json:"room"`
	Winner  string   `json:"winner,omitempty"`  // 本局胜者昵称
	Message string   `json:"message,omitempty"` // 附带的提示文本
}

// RoomView 个性化房间视图，Hand 只包含接收者自己的手牌
type RoomView struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	OwnerID      string      `json:"ownerId"`
	Status       string      `json:"status"`
	CanStart     bool        `json:"canStart"`
	ActiveCard   *card.Card  `json:"activeCard,omitempty"`
	Direction    string      `json:"direction,omitempty"`
	TurnOwnerID  string      `json:"turnOwnerId,omitempty"`
	SubState     string      `json:"subState,omitempty"`
	TurnDeadline int64       `json:"turnDeadline,omitempty"` // 毫秒时间戳
	Seats        []SeatView  `json:"seats"`
	Hand         []card.Card `json:"hand,omitempty"`
}

// SeatView 座位公开信息
type SeatView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CardCount      int    `json:"cardCount"`
	IsTurn         bool   `json:"isTurn"`
	Disconnected   bool   `json:"disconnected"`
	CalledLastCard bool   `json:"calledLastCard"`
	AlreadyDrew    bool   `json:"alreadyDrew"`
	IsOnline       bool   `json:"isOnline"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// RoomDeletedPayload 房间解散通知
type RoomDeletedPayload struct {
	Message string `json:"message"`
}

// PlayerPresencePayload 玩家掉线/重连通知
type PlayerPresencePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}
