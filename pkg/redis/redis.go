package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"exam-planner/config"
)

// ErrLockHeld 运行锁已被其他进程持有
var ErrLockHeld = errors.New("排考运行锁已被占用")

// Client Redis 客户端封装
// 用于排考运行锁、最近一次运行摘要缓存以及接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 运行锁 ──

const runLockKey = "planner:run:lock"

// releaseScript 仅当 token 匹配时删除，避免误删他人续上的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireRunLock 以 SET NX 获取全局排考锁，返回释放函数
func (c *Client) AcquireRunLock(ctx context.Context, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, runLockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("获取运行锁失败: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// 调用方 ctx 可能已取消，释放使用独立超时
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, c.rdb, []string{runLockKey}, token).Err(); err != nil {
			c.logger.Warn("释放运行锁失败", zap.Error(err))
		}
	}
	return release, nil
}

// ── 摘要缓存 ──

const latestRunKey = "planner:run:latest"

// SetLatestRun 缓存最近一次运行的序列化摘要
func (c *Client) SetLatestRun(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, latestRunKey, payload, ttl).Err()
}

// GetLatestRun 读取缓存摘要；未命中返回 nil, nil
func (c *Client) GetLatestRun(ctx context.Context) ([]byte, error) {
	b, err := c.rdb.Get(ctx, latestRunKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return b, err
}

// ── 限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数
// 返回 true 表示本次请求允许通过
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()[:8]
	minScore := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", "("+minScore)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
