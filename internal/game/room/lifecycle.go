package room

import (
	"fmt"
	"time"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/protocol/codec"
	"github.com/palemoky/uno-server/internal/types"
)

// Join 加入房间，只允许在等待状态且未满时加入。已在房间中则什么也不做
func (e *Engine) Join(playerID, name string) error {
	return e.do(func() error {
		r := e.room
		if r.seat(playerID) != nil {
			return nil
		}
		if r.Status != StatusWaiting {
			return apperrors.ErrGameStarted
		}
		if len(r.Seats) >= e.opts.MaxSeats {
			return apperrors.ErrRoomFull
		}

		r.Seats = append(r.Seats, newSeat(playerID, name))
		e.log().WithField("player_id", playerID).Infof("👤 玩家 %s 加入房间", name)

		e.broadcastState("", "")
		e.notifyChanged()
		return nil
	})
}

// Attach 把连接绑定到已有座位（首次连接或重连），返回是否为掉线后重连
func (e *Engine) Attach(client types.ClientInterface) (bool, error) {
	var reconnected bool
	err := e.do(func() error {
		r := e.room
		s := r.seat(client.GetID())
		if s == nil {
			return apperrors.ErrNotInRoom
		}

		// 同一玩家的新连接顶替旧连接
		if old := s.client; old != nil && old != client {
			old.SetRoom("")
			old.Close()
		}

		reconnected = s.Disconnected && s.attached
		s.attached = true
		s.client = client
		s.Disconnected = false
		client.SetRoom(r.ID)
		e.cancelAbandon()

		if reconnected {
			e.log().WithField("player_id", s.ID).Infof("📶 玩家 %s 重连", s.Name)
			e.broadcastExcept(s.ID, codec.MustNewMessage(protocol.MsgPlayerReconnected, protocol.PlayerPresencePayload{
				PlayerID:   s.ID,
				PlayerName: s.Name,
				Message:    fmt.Sprintf("%s 重新连接了", s.Name),
			}))
		}
		e.broadcastState("", "")
		return nil
	})
	return reconnected, err
}

// Detach 连接断开。座位和手牌保留，只有当前绑定的连接才能触发掉线
func (e *Engine) Detach(client types.ClientInterface) {
	_ = e.do(func() error {
		r := e.room
		s := r.seat(client.GetID())
		if s == nil || s.client != client {
			return nil
		}

		s.client = nil
		s.Disconnected = true
		e.log().WithField("player_id", s.ID).Infof("📴 玩家 %s 掉线", s.Name)

		e.broadcastExcept(s.ID, codec.MustNewMessage(protocol.MsgPlayerDisconnected, protocol.PlayerPresencePayload{
			PlayerID:   s.ID,
			PlayerName: s.Name,
			Message:    fmt.Sprintf("%s 断开了连接", s.Name),
		}))
		e.broadcastState("", "")

		if r.allDisconnected() {
			e.armAbandon()
		}
		return nil
	})
}

// Leave 开局前主动离开。房主离开等同于解散房间
func (e *Engine) Leave(playerID string) error {
	return e.do(func() error {
		r := e.room
		s := r.seat(playerID)
		if s == nil {
			return apperrors.ErrNotInRoom
		}
		if r.Status != StatusWaiting {
			return apperrors.ErrLeaveInGame
		}

		if playerID == r.OwnerID {
			e.teardown(fmt.Sprintf("房主已离开，房间 %s 已解散", r.Name))
			return nil
		}

		r.removeSeat(playerID)
		if s.client != nil {
			s.client.SetRoom("")
			s.client.Close()
		}
		e.log().WithField("player_id", playerID).Infof("👋 玩家 %s 离开房间", s.Name)

		e.notifyReleased(playerID)
		e.broadcastState("", "")
		e.notifyChanged()
		return nil
	})
}

// Delete 房主解散房间
func (e *Engine) Delete(playerID string) error {
	return e.do(func() error {
		r := e.room
		if r.seat(playerID) == nil {
			return apperrors.ErrNotInRoom
		}
		if playerID != r.OwnerID {
			return apperrors.ErrNotOwner
		}
		e.teardown(fmt.Sprintf("房间 %s 已被房主解散", r.Name))
		return nil
	})
}

// Expire 由注册表清理长时间无人在线的等待房间。判断和关闭在同一次持锁内完成，
// 返回房间是否被关闭
func (e *Engine) Expire(now time.Time, timeout time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 不经过 do，避免刷新 LastActive
	if e.closed || !e.room.idle(now, timeout) {
		return false
	}
	e.teardown("房间超时已关闭")
	return true
}

// Close 服务器关闭时停止计时器，不通知玩家
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disarmTurn()
	e.cancelAbandon()
	e.closed = true
}

// teardown 通知所有在线座位房间关闭，解除绑定并从注册表移除
func (e *Engine) teardown(message string) {
	r := e.room
	e.disarmTurn()
	e.cancelAbandon()
	e.closed = true

	msg := codec.MustNewMessage(protocol.MsgRoomDeleted, protocol.RoomDeletedPayload{Message: message})
	for _, s := range r.Seats {
		if s.client == nil {
			continue
		}
		s.client.SendMessage(msg)
		s.client.SetRoom("")
		s.client.Close()
		s.client = nil
	}

	e.log().Infof("🏠 房间已关闭: %s", message)
	e.notifyClosed(r.seatIDs())
}

// armAbandon 所有座位都掉线后开始计时，超时仍无人回来则关闭房间
func (e *Engine) armAbandon() {
	e.cancelAbandon()
	gen := e.abandonGen
	e.abandonTimer = time.AfterFunc(e.opts.AbandonTimeout, func() { e.expireAbandon(gen) })
}

func (e *Engine) cancelAbandon() {
	if e.abandonTimer != nil {
		e.abandonTimer.Stop()
		e.abandonTimer = nil
	}
	e.abandonGen++
}

func (e *Engine) expireAbandon(gen uint64) {
	_ = e.do(func() error {
		if gen != e.abandonGen || !e.room.allDisconnected() {
			return nil
		}
		e.log().Info("🧹 所有玩家已断开连接，清理房间")
		e.teardown("房间因无人在线已关闭")
		return nil
	})
}
