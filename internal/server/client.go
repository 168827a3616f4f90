package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/logger"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
	"github.com/palemoky/uno-server/internal/server/auth"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	sendBufferSize = 256

	// 超速次数超过该值断开连接
	maxRateWarnings = 5
)

// Client 一个 WebSocket 连接，对应某个房间里的一个座位
type Client struct {
	ID   string
	Name string
	IP   string

	server *Server
	conn   *websocket.Conn
	send   chan []byte
	budget *msgBudget

	mu      sync.RWMutex
	roomID  string
	closed  bool
	cleanup sync.Once
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, id auth.Identity, ip string) *Client {
	return &Client{
		ID:     id.ID,
		Name:   id.Name,
		IP:     ip,
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		budget: newMsgBudget(s.msgPerSecond),
	}
}

func (c *Client) GetID() string   { return c.ID }
func (c *Client) GetName() string { return c.Name }

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// ReadPump 从 WebSocket 读取消息并分发，退出时释放连接
func (c *Client) ReadPump() {
	defer func() {
		c.release()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log().WithError(err).Warn("读取错误")
			}
			return
		}

		allowed, warning := c.budget.take(time.Now())
		if !allowed {
			c.log().Warn("⚠️ 消息过于频繁")
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.budget.strikes > maxRateWarnings {
				c.log().Warn("🚫 多次超速，断开连接")
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := codec.Decode(data)
		if err != nil {
			c.log().WithError(err).Debug("无法解析的消息，已丢弃")
			continue
		}
		c.dispatch(msg)
		codec.PutMessage(msg)
	}
}

// dispatch 单条消息的 panic 只影响这一条消息
func (c *Client) dispatch(msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	c.server.handler.Handle(c, msg)
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 非阻塞发送。发送缓冲区满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		c.log().WithError(err).Error("消息编码错误")
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
	default:
		c.mu.RUnlock()
		// 尽力发送：缓冲区满时丢弃本条消息，连接保持
		c.log().WithField("type", msg.Type).Debug("发送缓冲区已满，丢弃消息")
	}
}

// Close 关闭发送通道，写协程随后发送关闭帧并断开
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// release 连接结束：座位标记为掉线，注销连接并归还连接名额
func (c *Client) release() {
	c.cleanup.Do(func() {
		c.server.rooms.Disconnect(c)
		c.server.unregisterClient(c)
		<-c.server.semaphore
	})
}

func (c *Client) log() *logrus.Entry {
	return logger.Player(c.GetRoom(), c.ID).WithField("ip", c.IP)
}
