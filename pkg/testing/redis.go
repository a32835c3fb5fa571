package testing

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// GetRedisClient connects to the redis on REDIS_HOST (localhost by default)
// and the given port, and fails the test when it does not answer a ping.
func GetRedisClient(t *testing.T, port string) *redis.Client {
	t.Helper()

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	t.Logf("using redis: [%s:%s]", redisHost, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(redisHost, port),
		Password: os.Getenv("REDIS_PASS"),
		DB:       0, // use default DB
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pingRes, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	t.Logf("redis ping res: %s", pingRes)

	return rdb
}
