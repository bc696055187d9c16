package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nabhacare/backend/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(&config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2, PoolSize: 32})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 32, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
}

func TestOptions_DefaultPool(t *testing.T) {
	opts := Options(&config.RedisConfig{Host: "cache", Port: 6379})
	assert.Zero(t, opts.PoolSize)
}
