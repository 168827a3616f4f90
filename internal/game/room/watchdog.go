package room

import (
	"time"

	"github.com/palemoky/uno-server/internal/game/card"
)

// armTurn 为当前出牌者重新计时。旧计时器先失效，同一房间最多一个有效计时器
func (e *Engine) armTurn() {
	e.stopTurnTimer()
	e.turnGen++
	gen := e.turnGen
	e.room.TurnDeadline = e.opts.Now().Add(e.opts.TurnTimeout)
	e.turnTimer = time.AfterFunc(e.opts.TurnTimeout, func() { e.expireTurn(gen) })
}

func (e *Engine) stopTurnTimer() {
	if e.turnTimer != nil {
		e.turnTimer.Stop()
		e.turnTimer = nil
	}
}

// disarmTurn 停止计时，已触发但还在排队等锁的回调也会因代数不匹配而放弃
func (e *Engine) disarmTurn() {
	e.stopTurnTimer()
	e.turnGen++
	e.room.TurnDeadline = time.Time{}
}

// expireTurn 超时代为操作：选色阶段随机选色，否则未摸牌时自动摸一张，然后推进回合
func (e *Engine) expireTurn(gen uint64) {
	_ = e.do(func() error {
		r := e.room
		if gen != e.turnGen || r.Status != StatusInGame {
			return nil
		}
		owner := r.seat(r.TurnOwnerID)
		if owner == nil {
			return nil
		}
		log := e.log().WithField("player_id", owner.ID)

		owner.CalledLastCard = false
		if r.SubState == SubStateChoosingColor {
			c := card.Colors[e.opts.Rand.IntN(len(card.Colors))]
			log.Infof("⏰ %s 选色超时，随机选择 %s", owner.Name, c)
			e.resolveColor(c)
		} else {
			if !owner.AlreadyDrew {
				e.give(owner, 1)
				owner.AlreadyDrew = true
			}
			log.Infof("⏰ %s 出牌超时，自动跳过", owner.Name)
			e.advanceFrom(r.seatIndex(owner.ID))
		}

		e.broadcastState("", "")
		return nil
	})
}
