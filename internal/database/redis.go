package database

import (
	"sync"

	"mtrbac/pkg/config"
	"mtrbac/pkg/queue"
)

var (
	redisQueueInstance *queue.RedisQueue
	redisQueueOnce     sync.Once
)

// GetRedisQueue 获取Redis队列的单例实例；未启用 Redis 时返回 nil
func GetRedisQueue() *queue.RedisQueue {
	cfg := config.GetConfig()
	if cfg == nil || !cfg.Redis.Enabled {
		return nil
	}
	redisQueueOnce.Do(func() {
		redisQueueInstance = queue.NewRedisQueue(&queue.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return redisQueueInstance
}

// CloseRedisQueue 关闭Redis连接
func CloseRedisQueue() error {
	if redisQueueInstance != nil {
		return redisQueueInstance.Close()
	}
	return nil
}
