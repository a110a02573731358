package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrEmpty 阻塞等待超时，队列中没有消息
var ErrEmpty = errors.New("queue is empty")

// RedisQueue 基于 Redis List 的简单队列，左进右出
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisQueue 创建Redis队列实例
func NewRedisQueue(config *Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	return NewRedisQueueWithClient(client, config.Prefix)
}

// NewRedisQueueWithClient 复用已有客户端
func NewRedisQueueWithClient(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "mtrbac:queue"
	}
	return &RedisQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue 序列化后加入指定队列
func (q *RedisQueue) Enqueue(ctx context.Context, name string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key(name), data).Err(); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// Dequeue 阻塞取出一条消息并反序列化到 dest；超时返回 ErrEmpty
func (q *RedisQueue) Dequeue(ctx context.Context, name string, timeout time.Duration, dest interface{}) error {
	result, err := q.client.BRPop(ctx, timeout, q.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrEmpty
	}
	if err != nil {
		return fmt.Errorf("dequeue message: %w", err)
	}
	// BRPop 返回 [key, value]
	if len(result) != 2 {
		return fmt.Errorf("unexpected BRPOP reply: %v", result)
	}
	if err := json.Unmarshal([]byte(result[1]), dest); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}

// Len 队列长度
func (q *RedisQueue) Len(ctx context.Context, name string) (int64, error) {
	return q.client.LLen(ctx, q.key(name)).Result()
}

// GetClient 获取Redis客户端（用于高级操作）
func (q *RedisQueue) GetClient() *redis.Client {
	return q.client
}

func (q *RedisQueue) key(name string) string {
	return fmt.Sprintf("%s:%s", q.prefix, name)
}
