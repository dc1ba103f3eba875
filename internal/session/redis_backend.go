package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix はRedis上のセッションキーの接頭辞。
const keyPrefix = "eduqa:session:"

// RedisBackend はセッション状態をRedisに保存する。
// 複数プロセスで同じログイン状態を共有したい場合に使用する。
type RedisBackend struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisBackend はRedisBackendを生成する。ttlが0の場合は有効期限を設定しない。
func NewRedisBackend(rdb *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{rdb: rdb, ttl: ttl}
}

// NewRedisClient は接続情報からRedisクライアントを生成する。
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Load は保存済みの状態を読み込む。
func (b *RedisBackend) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := b.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Save は状態を書き込み、TTLを更新する。
func (b *RedisBackend) Save(ctx context.Context, key string, data []byte) error {
	return b.rdb.Set(ctx, keyPrefix+key, data, b.ttl).Err()
}

// Delete は保存済みの状態を削除する。
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, keyPrefix+key).Err()
}

// Ping はRedisへの疎通を確認する。
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
