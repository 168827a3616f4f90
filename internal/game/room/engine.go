package room

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/game/card"
	"github.com/palemoky/uno-server/internal/logger"
	"github.com/palemoky/uno-server/internal/protocol"
)

const recordTimeout = 10 * time.Second

// PlayerRef 对局参与者
type PlayerRef struct {
	ID   string
	Name string
}

// GameResult 一局结束时交给外部存储的结果
type GameResult struct {
	RoomID     string
	WinnerID   string
	WinnerName string
	Players    []PlayerRef
	FinishedAt time.Time
}

// Recorder 持久化已结束的对局，失败只记录日志
type Recorder interface {
	RecordFinishedGame(ctx context.Context, result GameResult) error
}

// Listener 接收引擎的成员变化，由注册表实现。
// 回调在引擎持锁时调用，实现方不能反过来调用引擎
type Listener interface {
	SeatsReleased(roomID string, playerIDs []string)
	RoomClosed(roomID string, playerIDs []string)
	RoomChanged(view protocol.RoomView)
}

// Options 引擎参数
type Options struct {
	TurnTimeout    time.Duration
	AbandonTimeout time.Duration
	MaxSeats       int
	MinSeats       int
	HandSize       int
	Rand           card.Source
	Recorder       Recorder
	Listener       Listener
	Now            func() time.Time
}

func (o *Options) withDefaults() {
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = 15 * time.Second
	}
	if o.AbandonTimeout <= 0 {
		o.AbandonTimeout = 5 * time.Minute
	}
	if o.MaxSeats <= 0 {
		o.MaxSeats = 4
	}
	if o.MinSeats <= 0 {
		o.MinSeats = 3
	}
	if o.HandSize <= 0 {
		o.HandSize = 7
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Engine 房间会话引擎。一个房间一个实例，mu 是该房间唯一的串行化点：
// 客户端动作和超时回调都经由 do 执行
type Engine struct {
	room *Room
	opts Options

	mu     sync.Mutex
	closed bool

	turnTimer *time.Timer
	turnGen   uint64

	abandonTimer *time.Timer
	abandonGen   uint64
}

// NewEngine 创建房间，创建者成为房主并占据第一个座位
func NewEngine(id, name string, owner PlayerRef, opts Options) *Engine {
	opts.withDefaults()
	now := opts.Now()
	return &Engine{
		opts: opts,
		room: &Room{
			ID:         id,
			Name:       name,
			OwnerID:    owner.ID,
			Status:     StatusWaiting,
			Seats:      []*Seat{newSeat(owner.ID, owner.Name)},
			CreatedAt:  now,
			LastActive: now,
			minSeats:   opts.MinSeats,
		},
	}
}

// ID 房间号
func (e *Engine) ID() string {
	return e.room.ID
}

// do 在房间锁内执行 fn
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return apperrors.ErrRoomNotFound
	}
	e.room.LastActive = e.opts.Now()
	return fn()
}

// view 只读访问
func (e *Engine) view(fn func(r *Room)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.room)
}

// Snapshot 返回 viewerID 视角的视图
func (e *Engine) Snapshot(viewerID string) protocol.RoomView {
	var v protocol.RoomView
	e.view(func(r *Room) { v = Snapshot(r, viewerID) })
	return v
}

// Info 返回公开视图
func (e *Engine) Info() protocol.RoomView {
	return e.Snapshot("")
}

// Status 当前房间状态
func (e *Engine) Status() Status {
	var s Status
	e.view(func(r *Room) { s = r.Status })
	return s
}

// HasSeat 玩家是否在该房间有座位
func (e *Engine) HasSeat(playerID string) bool {
	var ok bool
	e.view(func(r *Room) { ok = r.seat(playerID) != nil })
	return ok
}

// Closed 房间是否已关闭
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) log() *logrus.Entry {
	return logger.Room(e.room.ID)
}

// record 异步保存对局结果
func (e *Engine) record(result GameResult) {
	if e.opts.Recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := e.opts.Recorder.RecordFinishedGame(ctx, result); err != nil {
			logger.Room(result.RoomID).WithError(err).Error("❌ 对局结果保存失败")
		}
	}()
}

func (e *Engine) notifyChanged() {
	if e.opts.Listener != nil {
		e.opts.Listener.RoomChanged(Snapshot(e.room, ""))
	}
}

func (e *Engine) notifyReleased(ids ...string) {
	if e.opts.Listener != nil && len(ids) > 0 {
		e.opts.Listener.SeatsReleased(e.room.ID, ids)
	}
}

func (e *Engine) notifyClosed(ids []string) {
	if e.opts.Listener != nil {
		e.opts.Listener.RoomClosed(e.room.ID, ids)
	}
}
