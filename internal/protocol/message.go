package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 房间操作
	MsgStartGame           MessageType = "START_GAME"           // 房主开始游戏
	MsgDeleteRoom          MessageType = "DELETE_ROOM"          // 房主解散房间
	MsgDisconnectVoluntary MessageType = "DISCONNECT_VOLUNTARY" // 开局前主动离开
	MsgReconnect           MessageType = "RECONNECT"            // 请求完整快照

	// 游戏操作
	MsgPlayCard    MessageType = "PLAY_CARD"     // 出牌
	MsgBuyCard     MessageType = "BUY_CARD"      // 摸牌
	MsgSkipRound   MessageType = "SKIP_ROUND"    // 摸牌后过
	MsgYellUno     MessageType = "YELL_UNO"      // 喊 UNO
	MsgAccuseNoUno MessageType = "ACCUSE_NO_UNO" // 举报未喊 UNO
	MsgChooseColor MessageType = "CHOOSE_COLOR"  // 万能牌选色
)

// 服务端 → 客户端 消息类型
const (
	MsgUpdateRoom         MessageType = "UPDATE_ROOM"         // 房间完整快照
	MsgError              MessageType = "ERROR"               // 错误
	MsgRoomDeleted        MessageType = "DELETE_ROOM"         // 房间已解散
	MsgPlayerDisconnected MessageType = "PLAYER_DISCONNECTED" // 玩家掉线通知
	MsgPlayerReconnected  MessageType = "PLAYER_RECONNECTED"  // 玩家重连通知
)

// ActionLeaveRoom 要求客户端退出房间页面
const ActionLeaveRoom = "LEAVE_ROOM"
