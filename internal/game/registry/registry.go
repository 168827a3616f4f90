// Package registry 维护房间号到房间引擎、玩家到房间的映射，并提供大厅操作
package registry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/apperrors"
	"github.com/palemoky/uno-server/internal/game/room"
	"github.com/palemoky/uno-server/internal/logger"
	"github.com/palemoky/uno-server/internal/protocol"
	"github.com/palemoky/uno-server/internal/types"
)

const (
	defaultCleanupInterval = time.Minute
	mirrorTimeout          = 5 * time.Second
	mirrorQueueSize        = 256
)

// RoomStore 房间视图的外部镜像（Redis），只用于观测和重启后清理
type RoomStore interface {
	SaveRoom(ctx context.Context, view protocol.RoomView) error
	DeleteRoom(ctx context.Context, roomID string) error
	GetAllRoomIDs(ctx context.Context) ([]string, error)
}

// Options 注册表参数
type Options struct {
	Engine          room.Options
	RoomTimeout     time.Duration // 无人在线的等待房间超过该时间被清理，0 表示不清理
	CleanupInterval time.Duration
	Store           RoomStore
}

// Registry 会话注册表。按 key 分段加锁，不同房间之间互不阻塞。
// 持有分段锁时不会调用引擎，引擎回调 Listener 时只会获取分段锁
type Registry struct {
	rooms   [stripeCount]roomStripe
	players [stripeCount]playerStripe

	engineOpts  room.Options
	roomTimeout time.Duration
	store       RoomStore
	mirrorQueue chan func(ctx context.Context) error

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New 创建注册表并启动清理协程
func New(opts Options) *Registry {
	r := &Registry{
		engineOpts:  opts.Engine,
		roomTimeout: opts.RoomTimeout,
		store:       opts.Store,
		stop:        make(chan struct{}),
	}
	r.engineOpts.Listener = r
	for i := range r.rooms {
		r.rooms[i].rooms = make(map[string]*room.Engine)
		r.players[i].roomIDs = make(map[string]string)
	}

	if r.store != nil {
		r.mirrorQueue = make(chan func(ctx context.Context) error, mirrorQueueSize)
		r.wg.Add(1)
		go r.mirrorLoop()
	}

	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if r.roomTimeout > 0 {
		r.wg.Add(1)
		go r.cleanupLoop(interval)
	}
	return r
}

// CreateRoom 创建房间，创建者成为房主
func (r *Registry) CreateRoom(ownerID, ownerName, roomName string) (protocol.RoomView, error) {
	if _, ok := r.lookupPlayer(ownerID); ok {
		return protocol.RoomView{}, apperrors.ErrInOtherRoom
	}
	if roomName = strings.TrimSpace(roomName); roomName == "" {
		roomName = fmt.Sprintf("%s 的房间", ownerName)
	}

	e := r.newEngine(room.PlayerRef{ID: ownerID, Name: ownerName}, roomName)
	if fresh, ok := r.claim(ownerID, e.ID()); !ok || !fresh {
		r.removeRoom(e.ID())
		e.Close()
		return protocol.RoomView{}, apperrors.ErrInOtherRoom
	}

	view := e.Snapshot(ownerID)
	r.mirror(func(ctx context.Context) error { return r.store.SaveRoom(ctx, view) })
	logger.Room(e.ID()).WithField("player_id", ownerID).Infof("🏠 房间已创建，房主 %s", ownerName)
	return view, nil
}

// newEngine 生成不重复的 6 位房间号并登记引擎
func (r *Registry) newEngine(owner room.PlayerRef, name string) *room.Engine {
	for {
		id := fmt.Sprintf("%06d", rand.IntN(1_000_000))
		s := r.roomStripe(id)
		s.mu.Lock()
		if _, exists := s.rooms[id]; exists {
			s.mu.Unlock()
			continue
		}
		e := room.NewEngine(id, name, owner, r.engineOpts)
		s.rooms[id] = e
		s.mu.Unlock()
		return e
	}
}

// JoinRoom 通过大厅加入房间，已在该房间时直接返回当前视图
func (r *Registry) JoinRoom(playerID, name, roomID string) (protocol.RoomView, error) {
	e := r.Get(roomID)
	if e == nil {
		return protocol.RoomView{}, apperrors.ErrRoomNotFound
	}
	if err := r.join(e, playerID, name); err != nil {
		return protocol.RoomView{}, err
	}
	return e.Snapshot(playerID), nil
}

// join 先登记玩家再修改房间，失败时撤销登记
func (r *Registry) join(e *room.Engine, playerID, name string) error {
	fresh, ok := r.claim(playerID, e.ID())
	if !ok {
		return apperrors.ErrInOtherRoom
	}
	if err := e.Join(playerID, name); err != nil {
		if fresh {
			r.release(playerID, e.ID())
		}
		return err
	}
	return nil
}

// Connect 建立连接时绑定座位：已有座位则重新挂载，否则在允许时先加入
func (r *Registry) Connect(roomID string, client types.ClientInterface) (*room.Engine, bool, error) {
	e := r.Get(roomID)
	if e == nil {
		return nil, false, apperrors.ErrRoomNotFound
	}
	if !e.HasSeat(client.GetID()) {
		if err := r.join(e, client.GetID(), client.GetName()); err != nil {
			return nil, false, err
		}
	}
	reconnected, err := e.Attach(client)
	if err != nil {
		return nil, false, err
	}
	return e, reconnected, nil
}

// Disconnect 连接断开，座位保留
func (r *Registry) Disconnect(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		return
	}
	if e := r.Get(roomID); e != nil {
		e.Detach(client)
	}
}

// Get 按房间号查找引擎
func (r *Registry) Get(roomID string) *room.Engine {
	s := r.roomStripe(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// ListRooms 返回所有房间的公开视图，按房间号排序
func (r *Registry) ListRooms() []protocol.RoomView {
	engines := r.engines()
	views := make([]protocol.RoomView, 0, len(engines))
	for _, e := range engines {
		if e.Closed() {
			continue
		}
		views = append(views, e.Info())
	}
	slices.SortFunc(views, func(a, b protocol.RoomView) int { return strings.Compare(a.ID, b.ID) })
	return views
}

// IsPlayerInActiveRoom 返回玩家当前所在的房间号
func (r *Registry) IsPlayerInActiveRoom(playerID string) (string, bool) {
	return r.lookupPlayer(playerID)
}

// Stats 房间总数和进行中的对局数
func (r *Registry) Stats() (rooms, inGame int) {
	for _, e := range r.engines() {
		rooms++
		if e.Status() == room.StatusInGame {
			inGame++
		}
	}
	return rooms, inGame
}

func (r *Registry) removeRoom(roomID string) {
	s := r.roomStripe(roomID)
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
}

// mirror 把镜像写入排入队列，由单个协程按顺序执行。队列满时丢弃，不阻塞引擎
func (r *Registry) mirror(fn func(ctx context.Context) error) {
	if r.store == nil {
		return
	}
	select {
	case r.mirrorQueue <- fn:
	default:
		logrus.Warn("⚠️ 房间镜像队列已满，丢弃一次写入")
	}
}

func (r *Registry) mirrorLoop() {
	defer r.wg.Done()
	run := func(fn func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logrus.WithError(err).Warn("⚠️ 房间镜像写入失败")
		}
	}

	for {
		select {
		case fn := <-r.mirrorQueue:
			run(fn)
		case <-r.stop:
			// 把已排队的写入做完再退出
			for {
				select {
				case fn := <-r.mirrorQueue:
					run(fn)
				default:
					return
				}
			}
		}
	}
}

// SeatsReleased 引擎回调：玩家离开房间
func (r *Registry) SeatsReleased(roomID string, playerIDs []string) {
	for _, id := range playerIDs {
		r.release(id, roomID)
	}
}

// RoomClosed 引擎回调：房间关闭，移除房间和所有玩家登记
func (r *Registry) RoomClosed(roomID string, playerIDs []string) {
	for _, id := range playerIDs {
		r.release(id, roomID)
	}
	r.removeRoom(roomID)
	r.mirror(func(ctx context.Context) error { return r.store.DeleteRoom(ctx, roomID) })
}

// RoomChanged 引擎回调：房间公开信息变化
func (r *Registry) RoomChanged(view protocol.RoomView) {
	r.mirror(func(ctx context.Context) error { return r.store.SaveRoom(ctx, view) })
}

// PurgeStale 删除上一个进程遗留的镜像数据。引擎状态只在内存中，重启后无法恢复
func (r *Registry) PurgeStale(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	ids, err := r.store.GetAllRoomIDs(ctx)
	if err != nil {
		return fmt.Errorf("list mirrored rooms: %w", err)
	}
	purged := 0
	for _, id := range ids {
		if r.Get(id) != nil {
			continue
		}
		if err := r.store.DeleteRoom(ctx, id); err != nil {
			return fmt.Errorf("delete mirrored room %s: %w", id, err)
		}
		purged++
	}
	if purged > 0 {
		logrus.Infof("🧹 已清理 %d 个遗留房间", purged)
	}
	return nil
}

// cleanupLoop 定期清理无人在线的等待房间
func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.cleanup(now)
		}
	}
}

func (r *Registry) cleanup(now time.Time) {
	for _, e := range r.engines() {
		if e.Expire(now, r.roomTimeout) {
			logger.Room(e.ID()).Info("🏠 房间超时已清理")
		}
	}
}

// Shutdown 停止清理协程并停止所有房间的计时器
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	for _, e := range r.engines() {
		e.Close()
	}
}
