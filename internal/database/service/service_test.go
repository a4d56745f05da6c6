package service_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mofucat/chatrank/internal/database/service"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

// Cached authorization flags are served without touching the database. The
// services are built without a model here so any database access would panic
// the test.
func TestAuthIsAuthorizedCacheHit(t *testing.T) {
	t.Parallel()

	mr, client := setupCache(t)
	auth := service.NewAuth(nil, client, zap.NewNop())

	require.NoError(t, mr.Set("auth:guild:123", "1"))
	require.NoError(t, mr.Set("auth:guild:456", "0"))

	authorized, err := auth.IsAuthorized(t.Context(), snowflake.ID(123))
	require.NoError(t, err)
	assert.True(t, authorized)

	authorized, err = auth.IsAuthorized(t.Context(), snowflake.ID(456))
	require.NoError(t, err)
	assert.False(t, authorized)
}

func TestGuildExcludedRolesCacheHit(t *testing.T) {
	t.Parallel()

	mr, client := setupCache(t)
	guild := service.NewGuild(nil, client, zap.NewNop())

	require.NoError(t, mr.Set("exclusions:guild:123", `["11","22"]`))

	excluded, err := guild.ExcludedRoles(t.Context(), snowflake.ID(123))
	require.NoError(t, err)

	assert.Len(t, excluded, 2)
	assert.Contains(t, excluded, snowflake.ID(11))
	assert.Contains(t, excluded, snowflake.ID(22))
}

func TestGuildExcludedRolesEmptyCachedSet(t *testing.T) {
	t.Parallel()

	mr, client := setupCache(t)
	guild := service.NewGuild(nil, client, zap.NewNop())

	require.NoError(t, mr.Set("exclusions:guild:123", `[]`))

	excluded, err := guild.ExcludedRoles(t.Context(), snowflake.ID(123))
	require.NoError(t, err)
	assert.Empty(t, excluded)
}
