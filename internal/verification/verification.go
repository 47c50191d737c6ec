// Package verification issues short-lived numeric codes used to
// confirm an account's email address or phone number. Codes live in
// redis with an explicit TTL so they survive restarts and expire on
// their own; when redis is not configured an in-process store is used.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	CodeTTL    = 10 * time.Minute
	codeDigits = 6
)

var (
	ErrCodeMismatch = errors.New("code_mismatch")
	ErrCodeExpired  = errors.New("code_expired")
)

// Service manages one code per account and channel. Issuing a new code
// replaces any outstanding one.
type Service interface {
	Issue(ctx context.Context, accountID snowflake.ID, channel string) (string, error)
	Check(ctx context.Context, accountID snowflake.ID, channel string, code string) error
	Invalidate(ctx context.Context, accountID snowflake.ID, channel string) error
}

// Channel names accepted by Issue/Check.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

type store interface {
	set(ctx context.Context, key, value string, ttl time.Duration) error
	get(ctx context.Context, key string) (string, error)
	del(ctx context.Context, key string) error
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
}

type service struct {
	log   *zap.Logger
	store store
}

func New(p Params) Service {
	log := p.Log.Named("verification")

	addr := strings.TrimSpace(p.Config.RedisAddr)
	if addr == "" {
		log.Warn("redis not configured, verification codes held in process")
		return &service{log: log, store: newMemoryStore(p.Clock)}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Config.RedisPassword),
		DB:       p.Config.RedisDB,
	})
	return &service{log: log, store: &redisStore{client: client}}
}

func (s *service) Issue(ctx context.Context, accountID snowflake.ID, channel string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if err := s.store.set(ctx, codeKey(accountID, channel), code, CodeTTL); err != nil {
		return "", err
	}
	s.log.Info("verification code issued",
		zap.String("account_id", accountID.String()),
		zap.String("channel", channel),
	)
	return code, nil
}

func (s *service) Check(ctx context.Context, accountID snowflake.ID, channel string, code string) error {
	stored, err := s.store.get(ctx, codeKey(accountID, channel))
	if err != nil {
		return err
	}
	if stored == "" {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrCodeMismatch
	}
	// One-shot: a matched code is consumed.
	return s.store.del(ctx, codeKey(accountID, channel))
}

func (s *service) Invalidate(ctx context.Context, accountID snowflake.ID, channel string) error {
	return s.store.del(ctx, codeKey(accountID, channel))
}

func codeKey(accountID snowflake.ID, channel string) string {
	return fmt.Sprintf("verify:%s:%s", channel, accountID.String())
}

func randomCode() (string, error) {
	upper := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		upper.Mul(upper, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

type redisStore struct {
	client *redis.Client
}

func (r *redisStore) set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisStore) get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (r *redisStore) del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	clock clock.Clock
	data  map[string]memoryEntry
}

func newMemoryStore(c clock.Clock) *memoryStore {
	return &memoryStore{clock: c, data: make(map[string]memoryEntry)}
}

func (m *memoryStore) set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: value, expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

func (m *memoryStore) get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.data[key]
	if !ok {
		return "", nil
	}
	if !m.clock.Now().Before(entry.expiresAt) {
		delete(m.data, key)
		return "", nil
	}
	return entry.value, nil
}

func (m *memoryStore) del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
