package repository

import (
	"context"
	"encoding/json"
	"pulse_backend/internal/model"
	"sync"

	"github.com/go-redis/redis/v8"
)

// statusKey 单键存放整张 videoID -> status 映射
const statusKey = "training_video_statuses"

// StatusStore 可注入的观看状态存储。读-改-写之间没有跨实例协调，
// 并发更新可能互相覆盖，这是接受的限制。
type StatusStore interface {
	Load(ctx context.Context) (map[string]model.VideoStatus, error)
	Save(ctx context.Context, statuses map[string]model.VideoStatus) error
}

type RedisStatusStore struct {
	rdb *redis.Client
}

func NewRedisStatusStore(rdb *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{rdb: rdb}
}

func (s *RedisStatusStore) Load(ctx context.Context) (map[string]model.VideoStatus, error) {
	raw, err := s.rdb.Get(ctx, statusKey).Result()
	if err == redis.Nil {
		return map[string]model.VideoStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	var statuses map[string]model.VideoStatus
	if err := json.Unmarshal([]byte(raw), &statuses); err != nil {
		// 损坏的存储按空映射处理，下一次写入会覆盖
		return map[string]model.VideoStatus{}, nil
	}
	return statuses, nil
}

func (s *RedisStatusStore) Save(ctx context.Context, statuses map[string]model.VideoStatus) error {
	data, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, statusKey, data, 0).Err()
}

// MemoryStatusStore 测试与无 Redis 部署时的替身
type MemoryStatusStore struct {
	mu       sync.Mutex
	statuses map[string]model.VideoStatus
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: map[string]model.VideoStatus{}}
}

func (s *MemoryStatusStore) Load(ctx context.Context) (map[string]model.VideoStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.VideoStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStatusStore) Save(ctx context.Context, statuses map[string]model.VideoStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = make(map[string]model.VideoStatus, len(statuses))
	for k, v := range statuses {
		s.statuses[k] = v
	}
	return nil
}
