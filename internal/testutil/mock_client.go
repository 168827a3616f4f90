//go:build !production

package testutil

import (
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/uno-server/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）。
// 引擎的超时回调在其他 goroutine 中发送消息，所以需要加锁
type SimpleClient struct {
	ID   string
	Name string

	mu       sync.Mutex
	roomID   string
	messages []*protocol.Message
	closed   bool
}

// NewSimpleClient 创建简单客户端
func NewSimpleClient(id, name string) *SimpleClient {
	return &SimpleClient{ID: id, Name: name}
}

func (m *SimpleClient) GetID() string   { return m.ID }
func (m *SimpleClient) GetName() string { return m.Name }

func (m *SimpleClient) GetRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *SimpleClient) SetRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomID = roomID
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Closed 是否被关闭过
func (m *SimpleClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SentMessages 返回已收到消息的副本
func (m *SimpleClient) SentMessages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// Reset 清空已收到的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Last 返回最后一条指定类型的消息，没有则返回 nil
func (m *SimpleClient) Last(t protocol.MessageType) *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Type == t {
			return m.messages[i]
		}
	}
	return nil
}

// LastRoom 解析最后一条 UPDATE_ROOM 消息
func (m *SimpleClient) LastRoom() (protocol.UpdateRoomPayload, bool) {
	var p protocol.UpdateRoomPayload
	msg := m.Last(protocol.MsgUpdateRoom)
	if msg == nil {
		return p, false
	}
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return p, false
	}
	return p, true
}
