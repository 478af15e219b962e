package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("FEED_MAX_LIMIT", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 20, cfg.FeedDefaultLimit)
	assert.Equal(t, 50, cfg.FeedMaxLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("FEED_MAX_LIMIT", "10")

	cfg := Load()
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 10, cfg.FeedMaxLimit)
}

func TestLoad_IgnoresGarbage(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")
	t.Setenv("FEED_DEFAULT_LIMIT", "-3")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 20, cfg.FeedDefaultLimit)
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(&Config{StoreDriver: "cassandra"}, nil)
	assert.Error(t, err)
}
