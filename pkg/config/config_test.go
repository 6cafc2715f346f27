package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrder_Defaults(t *testing.T) {
	cfg, err := LoadOrder()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "grpc", cfg.CatalogTransport)
	assert.Equal(t, 2*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, 1, cfg.LookupConcurrency)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaAddrs)
	assert.Equal(t, "order.events", cfg.EventsTopic)
}

func TestLoadOrder_Overrides(t *testing.T) {
	t.Setenv("ORDER_STORE", "Memory")
	t.Setenv("CATALOG_TRANSPORT", "http")
	t.Setenv("CATALOG_HTTP_URL", "http://catalog:8080/")
	t.Setenv("CATALOG_TIMEOUT", "750ms")
	t.Setenv("ORDER_LOOKUP_CONCURRENCY", "4")
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092,")

	cfg, err := LoadOrder()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "http", cfg.CatalogTransport)
	assert.Equal(t, "http://catalog:8080", cfg.CatalogHTTPURL)
	assert.Equal(t, 750*time.Millisecond, cfg.CatalogTimeout)
	assert.Equal(t, 4, cfg.LookupConcurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaAddrs)
}

func TestLoadOrder_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad timeout", "CATALOG_TIMEOUT", "soon"},
		{"negative timeout", "CATALOG_TIMEOUT", "-1s"},
		{"bad concurrency", "ORDER_LOOKUP_CONCURRENCY", "many"},
		{"zero concurrency", "ORDER_LOOKUP_CONCURRENCY", "0"},
		{"unknown store", "ORDER_STORE", "mongo"},
		{"unknown transport", "CATALOG_TRANSPORT", "soap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadOrder()
			assert.Error(t, err)
		})
	}
}

func TestLoadProduct(t *testing.T) {
	t.Setenv("CATALOG_STORE", "sqlite")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CATALOG_CACHE_TTL", "30s")

	cfg, err := LoadProduct()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, ":50051", cfg.GRPCAddr)

	t.Setenv("CATALOG_STORE", "oracle")
	_, err = LoadProduct()
	assert.Error(t, err)
}
