package codec

import (
	"encoding/json"
	"errors"

	"github.com/palemoky/uno-server/internal/protocol"
)

// ErrEmptyType 消息缺少 type 字段
var ErrEmptyType = errors.New("message type is empty")

// NewMessage 创建一个新消息，payload 以 JSON 编码
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节
func Encode(m *protocol.Message) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行，去掉后复制出来，buf 归还后会被复用
	data := buf.Bytes()
	out := make([]byte, len(data)-1)
	copy(out, data[:len(data)-1])
	return out, nil
}

// Decode 从 JSON 字节解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, ErrEmptyType
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return nil, errors.New("missing payload")
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}

// NewLeaveRoomError 创建要求客户端离开房间的错误消息
func NewLeaveRoomError(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
		Action:  protocol.ActionLeaveRoom,
	})
}
