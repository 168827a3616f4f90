package room

import (
	"github.com/palemoky/uno-server/internal/protocol"
)

// Snapshot 生成 viewerID 视角的房间视图：所有座位只给出公开信息，
// 只有 viewer 自己的手牌会被带上。viewerID 为空时得到纯公开视图
func Snapshot(r *Room, viewerID string) protocol.RoomView {
	view := protocol.RoomView{
		ID:          r.ID,
		Name:        r.Name,
		OwnerID:     r.OwnerID,
		Status:      string(r.Status),
		CanStart:    r.Status == StatusWaiting && len(r.Seats) >= r.minSeats,
		Direction:   r.Direction.String(),
		TurnOwnerID: r.TurnOwnerID,
		SubState:    string(r.SubState),
		Seats:       make([]protocol.SeatView, 0, len(r.Seats)),
	}
	if r.ActiveCard != nil {
		c := *r.ActiveCard
		view.ActiveCard = &c
	}
	if !r.TurnDeadline.IsZero() {
		view.TurnDeadline = r.TurnDeadline.UnixMilli()
	}

	for _, s := range r.Seats {
		view.Seats = append(view.Seats, protocol.SeatView{
			ID:             s.ID,
			Name:           s.Name,
			CardCount:      len(s.Hand),
			IsTurn:         s.IsTurn,
			Disconnected:   s.Disconnected,
			CalledLastCard: s.CalledLastCard,
			AlreadyDrew:    s.AlreadyDrew,
			IsOnline:       s.Online(),
		})
		if viewerID != "" && s.ID == viewerID && s.Hand != nil {
			view.Hand = append(view.Hand[:0:0], s.Hand...)
		}
	}
	return view
}
