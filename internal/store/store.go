// Package store persists conversation threads. A thread is an ordered
// transcript of user and assistant messages keyed by thread ID, backed
// by Redis or an in-memory cache.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/models"
)

// Store interface defines thread transcript operations
type Store interface {
	Append(ctx context.Context, threadID string, msg models.Message) error
	Tail(ctx context.Context, threadID string, n int) ([]models.Message, error)
	Clear(ctx context.Context, threadID string) error
	Count(ctx context.Context) (int, error)
}

// Manager selects and delegates to the configured backend
type Manager struct {
	store       Store
	logger      *logrus.Logger
	redisClient *redis.Client
}

// NewManager creates a new thread store manager
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	manager := &Manager{logger: logger}

	switch cfg.Threads.Type {
	case "redis":
		redisStore, err := NewRedisStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		manager.store = redisStore
		manager.redisClient = redisStore.client
	case "memory":
		manager.store = NewMemoryStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported thread store type: %s", cfg.Threads.Type)
	}

	return manager, nil
}

func (m *Manager) Append(ctx context.Context, threadID string, msg models.Message) error {
	return m.store.Append(ctx, threadID, msg)
}

func (m *Manager) Tail(ctx context.Context, threadID string, n int) ([]models.Message, error) {
	return m.store.Tail(ctx, threadID, n)
}

func (m *Manager) Clear(ctx context.Context, threadID string) error {
	return m.store.Clear(ctx, threadID)
}

// Count reports how many threads currently hold messages.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// GetRedisClient returns the Redis client if available
func (m *Manager) GetRedisClient() *redis.Client {
	return m.redisClient
}

// RedisStore implements Store using a Redis list per thread
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStore(cfg *config.Config, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Threads.Redis.Addr,
		Password: cfg.Threads.Redis.Password,
		DB:       cfg.Threads.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger,
	}, nil
}

func threadKey(threadID string) string {
	return fmt.Sprintf("thread:%s", threadID)
}

func (r *RedisStore) Append(ctx context.Context, threadID string, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := threadKey(threadID)
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	// Threads expire after a day of inactivity
	return r.client.Expire(ctx, key, 24*time.Hour).Err()
}

func (r *RedisStore) Tail(ctx context.Context, threadID string, n int) ([]models.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := r.client.LRange(ctx, threadKey(threadID), int64(-n), -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(values))
	for _, value := range values {
		var msg models.Message
		if err := json.Unmarshal([]byte(value), &msg); err != nil {
			r.logger.WithError(err).WithField("threadID", threadID).Warn("Skipping malformed message")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisStore) Clear(ctx context.Context, threadID string) error {
	return r.client.Del(ctx, threadKey(threadID)).Err()
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	keys, err := r.client.Keys(ctx, threadKey("*")).Result()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// MemoryStore implements Store using an in-memory cache. The mutex
// serializes the read-modify-write in Append: go-cache guards single
// operations, not slice updates spanning a Get and a Set.
type MemoryStore struct {
	mu      sync.Mutex
	threads *cache.Cache
	logger  *logrus.Logger
}

func NewMemoryStore(cfg *config.Config, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		threads: cache.New(cfg.Threads.Memory.DefaultExpiration, cfg.Threads.Memory.CleanupInterval),
		logger:  logger,
	}
}

func (m *MemoryStore) Append(ctx context.Context, threadID string, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := threadKey(threadID)

	var messages []models.Message
	if val, found := m.threads.Get(key); found {
		messages = val.([]models.Message)
	}
	messages = append(messages, msg)
	m.threads.SetDefault(key, messages)
	return nil
}

func (m *MemoryStore) Tail(ctx context.Context, threadID string, n int) ([]models.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	val, found := m.threads.Get(threadKey(threadID))
	if !found {
		return nil, nil
	}

	messages := val.([]models.Message)
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}

	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (m *MemoryStore) Clear(ctx context.Context, threadID string) error {
	m.threads.Delete(threadKey(threadID))
	return nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	return m.threads.ItemCount(), nil
}
