package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/robalyx/zoonas/internal/redis"
	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerReusesClients(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{
		Host:         server.Host(),
		Port:         port,
		DisableCache: true,
	}, zap.NewNop())
	t.Cleanup(manager.Close)

	first, err := manager.GetClient(redis.RankingDBIndex)
	require.NoError(t, err)
	again, err := manager.GetClient(redis.RankingDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, again)

	status, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	assert.NotSame(t, first, status)

	require.NoError(t, first.Do(t.Context(), first.B().Set().Key("k").Value("v").Build()).Error())
	assert.True(t, server.DB(redis.RankingDBIndex).Exists("k"))
	assert.False(t, server.DB(redis.WorkerStatusDBIndex).Exists("k"))
}
