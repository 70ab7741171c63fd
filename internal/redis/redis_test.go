package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/config"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(context.Background(), config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	checker := NewChecker(client)
	assert.NoError(t, checker.Check(context.Background()))

	mr.Close()
	assert.Error(t, checker.Check(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	host := mr.Host()
	mr.Close()

	_, err = NewClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}
