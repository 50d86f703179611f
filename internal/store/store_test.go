package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthWithNothingConfigured(t *testing.T) {
	ok, status := Health{}.Healthy(context.Background())
	assert.True(t, ok)
	assert.Empty(t, status)
}

func TestHealthReportsUnreachableRedis(t *testing.T) {
	client := OpenRedis("127.0.0.1:1")
	defer client.Close()

	ok, status := Health{Redis: client}.Healthy(context.Background())
	assert.False(t, ok)
	assert.Equal(t, map[string]bool{"redis": false}, status)
}
