package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllowCountsPerScope(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "api:user:u1", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.Equal(t, int64(i+1), count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "api:user:u2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)

	require.Len(t, mock.evals, 4)
	assert.Equal(t, "accounts:rate_limit:api:user:u1", mock.evals[0].key)
	assert.Equal(t, int64(60000), mock.evals[0].ttlMillis)
}

func TestIncrWithTTLPropagatesErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.evalErr = fmt.Errorf("NOSCRIPT")
	client := &Client{store: mock}

	_, err := client.IncrWithTTL(context.Background(), "auth:ip:login:1.2.3.4", time.Minute)
	assert.Error(t, err)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "accounts:idempotency:contact:abc", client.IdempotencyKey("contact", "abc"))
	assert.Equal(t, "accounts:rate_limit:login:user:ali", client.RateLimitKey("login:user:ali"))
	assert.Equal(t, "accounts:session:access:jti-1", client.AccessSessionKey("jti-1"))
	assert.Equal(t, "accounts:idempotency:scope", client.IdempotencyKey("scope", " "), "blank parts are skipped")
}

func TestSetNXAndGet(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "v1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Set(ctx, "k", "v3", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", got)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUnconnectedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.ErrorIs(t, client.Ping(ctx), errNotConnected)
	_, err := client.IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, errNotConnected)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)
}

type evalCall struct {
	key       string
	ttlMillis int64
}

type mockCmdable struct {
	data    map[string]string
	counts  map[string]int64
	evals   []evalCall
	evalErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:   make(map[string]string),
		counts: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval emulates incrementScript.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if m.evalErr != nil {
		return redis.NewCmdResult(nil, m.evalErr)
	}
	ttl, _ := args[0].(int64)
	m.evals = append(m.evals, evalCall{key: keys[0], ttlMillis: ttl})
	m.counts[keys[0]]++
	return redis.NewCmdResult(m.counts[keys[0]], nil)
}
