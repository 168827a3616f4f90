package registry

import (
	"hash/fnv"
	"sync"

	"github.com/palemoky/uno-server/internal/game/room"
)

const stripeCount = 32

type roomStripe struct {
	mu    sync.RWMutex
	rooms map[string]*room.Engine
}

type playerStripe struct {
	mu      sync.Mutex
	roomIDs map[string]string
}

func stripeIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % stripeCount
}

func (r *Registry) roomStripe(roomID string) *roomStripe {
	return &r.rooms[stripeIndex(roomID)]
}

func (r *Registry) playerStripe(playerID string) *playerStripe {
	return &r.players[stripeIndex(playerID)]
}

// engines 复制所有房间引擎，调用方在锁外使用
func (r *Registry) engines() []*room.Engine {
	var list []*room.Engine
	for i := range r.rooms {
		s := &r.rooms[i]
		s.mu.RLock()
		for _, e := range s.rooms {
			list = append(list, e)
		}
		s.mu.RUnlock()
	}
	return list
}

// claim 登记玩家所在房间。已在其他房间时失败，fresh 表示是否为新登记
func (r *Registry) claim(playerID, roomID string) (fresh bool, ok bool) {
	s := r.playerStripe(playerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, exists := s.roomIDs[playerID]; exists {
		return false, cur == roomID
	}
	s.roomIDs[playerID] = roomID
	return true, true
}

// release 只在玩家仍登记在 roomID 时移除
func (r *Registry) release(playerID, roomID string) {
	s := r.playerStripe(playerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roomIDs[playerID] == roomID {
		delete(s.roomIDs, playerID)
	}
}

func (r *Registry) lookupPlayer(playerID string) (string, bool) {
	s := r.playerStripe(playerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.roomIDs[playerID]
	return id, ok
}
