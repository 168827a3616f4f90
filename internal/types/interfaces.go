package types

import (
	"github.com/palemoky/uno-server/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口，一个连接对应一个房间里的一个座位
type ClientInterface interface {
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(roomID string)
	// SendMessage 尽力发送，不阻塞
	SendMessage(msg *protocol.Message)
	Close()
}
