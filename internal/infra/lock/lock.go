// Package lock serialises checkouts per user.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

// 自分のトークンのときだけ消す
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds keys with SET NX PX so that several API instances share
// the same lock space. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client *redis.Client
	prefix string
	lg     *zap.Logger
}

func NewRedisLocker(client *redis.Client, lg *zap.Logger) *RedisLocker {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &RedisLocker{client: client, prefix: "lock:", lg: lg}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	k := l.prefix + key

	ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func() {
		//リクエストがキャンセルされても解放はする
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		//解放できなくてもTTLで切れるが、切れるまで同じユーザーは確定できない
		if err := releaseScript.Run(ctx, l.client, []string{k}, token).Err(); err != nil {
			l.lg.Warn("release lock failed", zap.String("key", k), zap.Error(err))
		}
	}
	return release, nil
}

// LocalLocker is the single-process fallback used when no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, ErrNotAcquired
	}
	exp := now.Add(ttl)
	l.held[key] = exp

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			//期限切れ後に別の保持者が取っていたら消さない
			if cur, ok := l.held[key]; ok && cur.Equal(exp) {
				delete(l.held, key)
			}
		})
	}, nil
}
