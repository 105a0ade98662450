// Package cache is a Redis read-through cache for task and user records.
// Task payloads carry completion reports, so everything is AES-encrypted
// before it leaves the process.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"taskboard/internal/models"
	"taskboard/pkg/crypto"
	"taskboard/pkg/logger"
)

const ttl = time.Hour

type Cache struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, encryptionKey string) *Cache {
	return &Cache{client: client, key: encryptionKey}
}

// GetTask returns the cached task for id, if present and decodable. Cache
// problems are logged and treated as misses.
func (c *Cache) GetTask(ctx context.Context, id int) (models.Task, bool) {
	var task models.Task
	if !c.get(ctx, taskKey(id), &task) {
		return models.Task{}, false
	}
	return task, true
}

func (c *Cache) PutTask(ctx context.Context, task models.Task) {
	c.put(ctx, taskKey(task.ID), task)
}

func (c *Cache) DropTask(ctx context.Context, id int) {
	c.client.Del(ctx, taskKey(id))
}

func (c *Cache) GetUser(ctx context.Context, id int) (models.User, bool) {
	var user models.User
	if !c.get(ctx, userKey(id), &user) {
		return models.User{}, false
	}
	return user, true
}

func (c *Cache) PutUser(ctx context.Context, user models.User) {
	c.put(ctx, userKey(user.ID), user)
}

func (c *Cache) DropUser(ctx context.Context, id int) {
	c.client.Del(ctx, userKey(id))
}

func (c *Cache) get(ctx context.Context, key string, out any) bool {
	sealed, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	plain, err := crypto.Decrypt(sealed, c.key)
	if err != nil {
		logger.ErrorLogger.Error("Error decrypting cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return false
	}
	if err := json.Unmarshal([]byte(plain), out); err != nil {
		logger.ErrorLogger.Error("Error decoding cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return false
	}
	return true
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	plain, err := json.Marshal(v)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	sealed, err := crypto.Encrypt(string(plain), c.key)
	if err != nil {
		logger.ErrorLogger.Error("Error encrypting cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.SetEX(ctx, key, sealed, ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching entry", zap.String("key", key), zap.Error(err))
	}
}

func taskKey(id int) string { return fmt.Sprintf("task:%d", id) }
func userKey(id int) string { return fmt.Sprintf("user:%d", id) }
