package room

import (
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
)

// broadcastState 给每个在线座位发送各自视角的完整快照
func (e *Engine) broadcastState(winner, message string) {
	for _, s := range e.room.Seats {
		e.sendState(s, winner, message)
	}
}

func (e *Engine) sendState(s *Seat, winner, message string) {
	if s.client == nil {
		return
	}
	s.client.SendMessage(codec.MustNewMessage(protocol.MsgUpdateRoom, protocol.UpdateRoomPayload{
		Room:    Snapshot(e.room, s.ID),
		Winner:  winner,
		Message: message,
	}))
}

// broadcastExcept 广播同一条消息，跳过 excludeID
func (e *Engine) broadcastExcept(excludeID string, msg *protocol.Message) {
	for _, s := range e.room.Seats {
		if s.ID == excludeID || s.client == nil {
			continue
		}
		s.client.SendMessage(msg)
	}
}
