package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/uno-server/internal/protocol"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RedisStore 房间公开视图的 Redis 镜像
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, view protocol.RoomView) error {
	// 镜像只保存公开信息
	view.Hand = nil

	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return rs.client.Set(ctx, roomKeyPrefix+view.ID, data, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*protocol.RoomView, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var view protocol.RoomView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &view, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}

// GetAllRoomIDs 获取所有房间号
func (rs *RedisStore) GetAllRoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
