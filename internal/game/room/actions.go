package room

import (
	"fmt"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/game/turn"
)

// Start 房主开始游戏：每人发 7 张，翻一张非功能起始牌，随机决定先手
func (e *Engine) Start(playerID string) error {
	return e.do(func() error {
		r := e.room
		if r.seat(playerID) == nil {
			return apperrors.ErrNotInRoom
		}
		if playerID != r.OwnerID {
			return apperrors.ErrNotOwner
		}
		if r.Status != StatusWaiting {
			return apperrors.ErrGameStarted
		}
		if len(r.Seats) < e.opts.MinSeats {
			return apperrors.ErrNotEnoughSeats
		}

		for _, s := range r.Seats {
			s.Hand = card.Deal(e.opts.Rand, e.opts.HandSize)
			s.CalledLastCard = false
		}
		starter := card.RandomStarter(e.opts.Rand)
		r.ActiveCard = &starter
		r.Direction = turn.Forward
		r.SubState = SubStateNone
		r.pendingSkipFrom = ""
		r.Status = StatusInGame

		e.beginTurn(e.randomFirstSeat())
		e.log().Infof("🎮 游戏开始，起始牌 %s，先手 %s", starter, r.TurnOwnerID)

		e.broadcastState("", "")
		e.notifyChanged()
		return nil
	})
}

// randomFirstSeat 在未掉线的座位中随机选先手，全部掉线时在所有座位中选
func (e *Engine) randomFirstSeat() int {
	var candidates []int
	for i, s := range e.room.Seats {
		if !s.Disconnected {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return e.opts.Rand.IntN(len(e.room.Seats))
	}
	return candidates[e.opts.Rand.IntN(len(candidates))]
}

// turnOwner 校验对局状态和出牌权，返回当前出牌者座位
func (e *Engine) turnOwner(playerID string) (*Seat, error) {
	r := e.room
	s := r.seat(playerID)
	if s == nil {
		return nil, apperrors.ErrNotInRoom
	}
	if r.Status != StatusInGame {
		return nil, apperrors.ErrGameNotStart
	}
	if r.TurnOwnerID != playerID {
		return nil, apperrors.ErrNotYourTurn
	}
	return s, nil
}

// PlayCard 出牌
func (e *Engine) PlayCard(playerID string, c card.Card) error {
	return e.do(func() error {
		r := e.room
		s, err := e.turnOwner(playerID)
		if err != nil {
			return err
		}
		if r.SubState == SubStateChoosingColor {
			return apperrors.ErrChoosingColor
		}

		idx := -1
		for i, h := range s.Hand {
			if h.Same(c) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.ErrCardNotInHand
		}
		if !card.CanPlay(c, *r.ActiveCard) {
			return apperrors.ErrIllegalCard
		}

		played := card.Card{Color: s.Hand[idx].Color, Value: s.Hand[idx].Value}
		s.Hand = append(s.Hand[:idx], s.Hand[idx+1:]...)
		s.CalledLastCard = false
		r.ActiveCard = &played

		if len(s.Hand) == 0 {
			e.win(s)
			return nil
		}

		e.applyEffect(s, played)
		e.broadcastState("", "")
		return nil
	})
}

// applyEffect 结算牌效并推进回合；需要选色时回合停在出牌者
func (e *Engine) applyEffect(s *Seat, played card.Card) {
	r := e.room
	eff := card.EffectOf(played)
	cur := r.seatIndex(s.ID)

	skip := eff.Skip
	if eff.Reverse {
		r.Direction = r.Direction.Flip()
		if r.activeCount() == 2 {
			skip = true
		}
	}

	if eff.ChooseColor {
		r.SubState = SubStateChoosingColor
		if eff.Draw > 0 {
			if res := e.scan(cur); res.OK {
				e.give(r.Seats[res.Index], eff.Draw)
				r.pendingSkipFrom = r.Seats[res.Index].ID
			}
		}
		// 等待选色，给出牌者一个新的决策窗口
		e.armTurn()
		return
	}

	if !skip {
		e.advanceFrom(cur)
		return
	}

	res := e.scan(cur)
	if !res.OK {
		e.beginTurn(cur)
		return
	}
	if eff.Draw > 0 {
		e.give(r.Seats[res.Index], eff.Draw)
	}
	e.advanceFrom(res.Index)
}

// DrawCard 摸一张牌，不结束回合
func (e *Engine) DrawCard(playerID string) error {
	return e.do(func() error {
		s, err := e.turnOwner(playerID)
		if err != nil {
			return err
		}
		if e.room.SubState == SubStateChoosingColor {
			return apperrors.ErrChoosingColor
		}
		if s.AlreadyDrew {
			return apperrors.ErrAlreadyDrew
		}

		e.give(s, 1)
		s.AlreadyDrew = true
		e.armTurn()
		e.broadcastState("", "")
		return nil
	})
}

// SkipTurn 摸牌后选择不出
func (e *Engine) SkipTurn(playerID string) error {
	return e.do(func() error {
		s, err := e.turnOwner(playerID)
		if err != nil {
			return err
		}
		if e.room.SubState == SubStateChoosingColor {
			return apperrors.ErrChoosingColor
		}
		if !s.AlreadyDrew {
			return apperrors.ErrMustDrawFirst
		}

		e.advanceFrom(e.room.seatIndex(s.ID))
		e.broadcastState("", "")
		return nil
	})
}

// CallLastCard 只剩一张牌时喊 UNO
func (e *Engine) CallLastCard(playerID string) error {
	return e.do(func() error {
		r := e.room
		s := r.seat(playerID)
		if s == nil {
			return apperrors.ErrNotInRoom
		}
		if r.Status != StatusInGame {
			return apperrors.ErrGameNotStart
		}
		if len(s.Hand) != 1 {
			return apperrors.ErrCannotCallUno
		}

		s.CalledLastCard = true
		e.broadcastState("", fmt.Sprintf("%s 喊了 UNO！", s.Name))
		return nil
	})
}

// AccuseNoCall 举报只剩一张牌却没喊 UNO 的玩家，被举报者罚摸 2 张
func (e *Engine) AccuseNoCall(playerID, accusedID string) error {
	return e.do(func() error {
		r := e.room
		if r.seat(playerID) == nil {
			return apperrors.ErrNotInRoom
		}
		if r.Status != StatusInGame {
			return apperrors.ErrGameNotStart
		}
		accused := r.seat(accusedID)
		if accused == nil || accusedID == playerID || len(accused.Hand) != 1 || accused.CalledLastCard {
			return apperrors.ErrInvalidAccuse
		}

		e.give(accused, 2)
		e.broadcastState("", fmt.Sprintf("%s 没喊 UNO，罚摸 2 张！", accused.Name))
		return nil
	})
}

// ChooseColor 万能牌选色，选完后推进回合
func (e *Engine) ChooseColor(playerID, color string) error {
	return e.do(func() error {
		r := e.room
		if r.seat(playerID) == nil {
			return apperrors.ErrNotInRoom
		}
		if r.Status != StatusInGame || r.SubState != SubStateChoosingColor {
			return apperrors.ErrNotChoosing
		}
		if r.TurnOwnerID != playerID {
			return apperrors.ErrNotYourTurn
		}
		c, ok := card.ParseColor(color)
		if !ok {
			return apperrors.ErrInvalidColor
		}

		e.resolveColor(c)
		e.broadcastState("", "")
		return nil
	})
}

// resolveColor 设置选定颜色，清除子状态并推进回合
func (e *Engine) resolveColor(c card.Color) {
	r := e.room
	r.ActiveCard.ChosenColor = c
	r.SubState = SubStateNone

	from := r.seatIndex(r.TurnOwnerID)
	if r.pendingSkipFrom != "" {
		if i := r.seatIndex(r.pendingSkipFrom); i >= 0 {
			from = i
		}
		r.pendingSkipFrom = ""
	}
	e.advanceFrom(from)
}

// Resync 重新发送完整快照给请求者
func (e *Engine) Resync(playerID string) error {
	return e.do(func() error {
		s := e.room.seat(playerID)
		if s == nil {
			return apperrors.ErrNotInRoom
		}
		e.sendState(s, "", "")
		return nil
	})
}

// scan 从 from 出发寻找下一个未掉线的座位。扫描中被跳过的掉线座位各摸一张牌
func (e *Engine) scan(from int) turn.Result {
	r := e.room
	res := turn.Next(len(r.Seats), from, r.Direction, func(i int) bool {
		return !r.Seats[i].Disconnected
	})
	for _, i := range res.Skipped {
		e.give(r.Seats[i], 1)
	}
	return res
}

// advanceFrom 把回合交给 from 之后的下一个可用座位；没有可用座位时留在当前出牌者
func (e *Engine) advanceFrom(from int) {
	r := e.room
	next := r.seatIndex(r.TurnOwnerID)
	if res := e.scan(from); res.OK {
		next = res.Index
	} else if from >= 0 && !r.Seats[from].Disconnected {
		next = from
	}
	if next < 0 {
		next = 0
	}
	e.beginTurn(next)
}

// beginTurn 设置出牌者，重置所有人的摸牌标记并重新计时
func (e *Engine) beginTurn(idx int) {
	r := e.room
	r.TurnOwnerID = r.Seats[idx].ID
	for i, s := range r.Seats {
		s.IsTurn = i == idx
		s.AlreadyDrew = false
	}
	e.armTurn()
}

// give 给座位发 n 张牌，摸牌会清除 UNO 标记
func (e *Engine) give(s *Seat, n int) {
	if s.Hand == nil {
		s.Hand = make([]card.Card, 0, n)
	}
	s.Hand = append(s.Hand, card.Deal(e.opts.Rand, n)...)
	s.CalledLastCard = false
}

// win 一局结束：回到等待状态，清理掉线座位，异步保存结果
func (e *Engine) win(winner *Seat) {
	r := e.room
	result := GameResult{
		RoomID:     r.ID,
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		FinishedAt: e.opts.Now(),
	}
	for _, s := range r.Seats {
		result.Players = append(result.Players, PlayerRef{ID: s.ID, Name: s.Name})
	}

	e.disarmTurn()
	r.resetRound()

	var kept []*Seat
	var evicted []string
	for _, s := range r.Seats {
		if s.Disconnected {
			evicted = append(evicted, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	r.Seats = kept
	if r.seat(r.OwnerID) == nil && len(kept) > 0 {
		r.OwnerID = kept[0].ID
	}

	e.log().WithField("player_id", winner.ID).Infof("🏆 %s 获胜，清理掉线座位 %d 个", winner.Name, len(evicted))
	e.notifyReleased(evicted...)
	e.record(result)

	e.broadcastState(winner.Name, fmt.Sprintf("%s 赢得了本局！", winner.Name))
	e.notifyChanged()
}
