package services

import (
	"context"
	"fmt"
	"time"

	"TaskPilotGo/config"

	"github.com/go-redis/redis/v8"
)

// 锁的有效期要盖过一次完整的生成往返，模型调用加写库远在此之内
const lockTTL = 2 * time.Minute

// GenerationLock 基于 Redis SETNX 的 per-(entity, generation_type) 级
// 建议锁，串行化同一范围的并发生成，避免两次 refresh 互相覆盖。
type GenerationLock struct {
	client *redis.Client
}

func NewGenerationLock(client *redis.Client) *GenerationLock {
	return &GenerationLock{client: client}
}

// Acquire 获取锁，返回释放函数。已被占用时返回 ErrGenerationInProgress。
func (l *GenerationLock) Acquire(ctx context.Context, entityType, entityID, generationType string) (func(), error) {
	key := fmt.Sprintf("genlock:%s:%s:%s", entityType, entityID, generationType)

	ok, err := l.client.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("获取生成锁失败: %w", err)
	}
	if !ok {
		return nil, ErrGenerationInProgress
	}

	release := func() {
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			config.Logger.Warnw("释放生成锁失败", "key", key, "error", err)
		}
	}
	return release, nil
}
