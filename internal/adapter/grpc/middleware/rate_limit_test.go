package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

// frozen returns a limiter whose clock only moves when the returned func is called.
func frozen(t *testing.T, client *redis.Client, cfg RateLimiterConfig) (*RateLimiter, func(time.Duration)) {
	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, func(d time.Duration) { now = now.Add(d) }
}

func peerCtx(addr string) context.Context {
	tcp, _ := net.ResolveTCPAddr("tcp", addr)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcp})
}

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerCtx("127.0.0.1:12345")

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 5, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerCtx("127.0.0.1:12345")

	for i := 0; i < 5; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}

	_, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	interceptor := rl.UnaryInterceptor()
	ctx := peerCtx("127.0.0.1:12345")

	for i := 0; i < 20; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		ctx := peerCtx(addr)
		for i := 0; i < 2; i++ {
			_, err := interceptor(ctx, nil, info, mockHandler)
			require.NoError(t, err, "addr %s request %d", addr, i)
		}
	}
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	md := metadata.Pairs("x-forwarded-for", "203.0.113.7")
	ctx := metadata.NewIncomingContext(peerCtx("127.0.0.1:1"), md)

	_, err := interceptor(ctx, nil, info, mockHandler)
	require.NoError(t, err)
	assert.True(t, mr.Exists("ratelimit:tb:grpc:/grpc.health.v1.Health/Check:203.0.113.7"))
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, advance := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	advance(500 * time.Millisecond)

	ok, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "one token refilled after half a second at 2 req/s")
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := frozen(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	mr.Close()

	resp, err := interceptor(peerCtx("127.0.0.1:1"), nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}
