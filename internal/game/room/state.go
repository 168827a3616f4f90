package room

import (
	"time"

	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/game/turn"
	"github.com/palemoky/uno-server/internal/types"
)

// Status 房间状态
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusInGame  Status = "IN_GAME"
)

// SubState 对局中的子状态
type SubState string

const (
	SubStateNone          SubState = ""
	SubStateChoosingColor SubState = "CHOOSING_COLOR"
)

// Seat 房间中的一个座位，掉线后保留手牌直到重连或被清理
type Seat struct {
	ID             string
	Name           string
	Hand           []card.Card // 开局前为 nil
	IsTurn         bool
	AlreadyDrew    bool
	CalledLastCard bool
	Disconnected   bool

	client   types.ClientInterface // 掉线或尚未连接时为 nil
	attached bool                  // 是否连接过
}

// newSeat 新座位在首次连接前按掉线处理
func newSeat(id, name string) *Seat {
	return &Seat{ID: id, Name: name, Disconnected: true}
}

// Online 是否有活动连接
func (s *Seat) Online() bool {
	return s.client != nil
}

// Room 一局游戏的权威状态，只由所属 Engine 在持锁时修改
type Room struct {
	ID           string
	Name         string
	OwnerID      string
	Status       Status
	Seats        []*Seat // 按加入顺序
	ActiveCard   *card.Card
	Direction    turn.Direction
	TurnOwnerID  string
	SubState     SubState
	TurnDeadline time.Time
	CreatedAt    time.Time
	LastActive   time.Time

	minSeats int
	// 万能+4 的受害者，选色后从该座位之后继续
	pendingSkipFrom string
}

// seat 按 ID 查找座位
func (r *Room) seat(id string) *Seat {
	for _, s := range r.Seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *Room) seatIndex(id string) int {
	for i, s := range r.Seats {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// activeCount 未掉线的座位数
func (r *Room) activeCount() int {
	n := 0
	for _, s := range r.Seats {
		if !s.Disconnected {
			n++
		}
	}
	return n
}

func (r *Room) allDisconnected() bool {
	return len(r.Seats) > 0 && r.activeCount() == 0
}

func (r *Room) hasOnlineSeat() bool {
	for _, s := range r.Seats {
		if s.Online() {
			return true
		}
	}
	return false
}

// idle 等待中、无人在线且超过 timeout 未活动
func (r *Room) idle(now time.Time, timeout time.Duration) bool {
	return r.Status == StatusWaiting && !r.hasOnlineSeat() && now.Sub(r.LastActive) > timeout
}

func (r *Room) seatIDs() []string {
	ids := make([]string, len(r.Seats))
	for i, s := range r.Seats {
		ids[i] = s.ID
	}
	return ids
}

func (r *Room) removeSeat(id string) {
	for i, s := range r.Seats {
		if s.ID == id {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			return
		}
	}
}

// resetRound 清空本局数据，房间回到等待状态
func (r *Room) resetRound() {
	r.Status = StatusWaiting
	r.ActiveCard = nil
	r.Direction = 0
	r.TurnOwnerID = ""
	r.SubState = SubStateNone
	r.TurnDeadline = time.Time{}
	r.pendingSkipFrom = ""
	for _, s := range r.Seats {
		s.Hand = nil
		s.IsTurn = false
		s.AlreadyDrew = false
		s.CalledLastCard = false
	}
}
