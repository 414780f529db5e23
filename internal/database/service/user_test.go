package service_test

import (
	"strings"
	"testing"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	users := f.svc().User()

	user, err := users.CreateUser(ctx, "  alice ", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)

	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"duplicate", "alice", types.ErrNameTaken},
		{"empty", "   ", types.ErrInvalidInput},
		{"inner space", "bob smith", types.ErrInvalidInput},
		{"too long", strings.Repeat("x", 21), types.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.CreateUser(ctx, tt.username, false)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestBanAndAllow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	users := f.svc().User()

	zone := f.zone(t, "Moderated")
	mod := f.user(t, "mod")
	bystander := f.user(t, "bystander")
	require.NoError(t, f.svc().Zone().GrantPermission(ctx, zone.ID, mod.ID, f.admin.ID))

	require.ErrorIs(t, users.Ban(ctx, mod.ID, bystander.ID), types.ErrNotAuthorized)
	require.ErrorIs(t, users.Ban(ctx, 1, f.admin.ID), types.ErrInvalidInput)

	require.NoError(t, users.Ban(ctx, mod.ID, f.admin.ID))

	banned := f.reloadUser(t, mod.ID)
	assert.True(t, banned.IsRejected)
	assert.False(t, banned.IsActive)

	isModerator, err := f.svc().Zone().IsModerator(ctx, zone.ID, mod.ID)
	require.NoError(t, err)
	assert.False(t, isModerator)

	require.NoError(t, users.Allow(ctx, mod.ID, f.admin.ID))

	allowed := f.reloadUser(t, mod.ID)
	assert.False(t, allowed.IsRejected)
	assert.True(t, allowed.IsActive)

	// Permissions are not restored
	isModerator, err = f.svc().Zone().IsModerator(ctx, zone.ID, mod.ID)
	require.NoError(t, err)
	assert.False(t, isModerator)

	logs, err := f.client.Model().Activity().GetLogs(ctx, types.ActivityFilter{ActorID: f.admin.ID}, 20)
	require.NoError(t, err)
	kinds := make([]enum.ActivityType, 0, len(logs))
	for _, log := range logs {
		kinds = append(kinds, log.ActivityType)
	}
	assert.Contains(t, kinds, enum.ActivityTypeUserBanned)
	assert.Contains(t, kinds, enum.ActivityTypeUserAllowed)
}

func TestErase(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	users := f.svc().User()

	first := f.zone(t, "First")
	second := f.zone(t, "Second")
	leaver := f.user(t, "leaver")
	other := f.user(t, "other")

	for _, zone := range []*types.Zone{first, second} {
		_, err := f.svc().Zone().Subscribe(ctx, zone.ID, leaver.ID)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc().Zone().GrantPermission(ctx, first.ID, leaver.ID, f.admin.ID))
	assert.Equal(t, 2, f.reloadZone(t, first.ID).Size)

	require.ErrorIs(t, users.Erase(ctx, leaver.ID, other.ID), types.ErrNotAuthorized)
	require.NoError(t, users.Erase(ctx, leaver.ID, leaver.ID))

	erased := f.reloadUser(t, leaver.ID)
	assert.True(t, erased.IsErased)
	assert.False(t, erased.IsActive)
	assert.NotEqual(t, "leaver", erased.Username)
	assert.True(t, strings.HasPrefix(erased.Username, "erased-"))

	assert.Equal(t, 1, f.reloadZone(t, first.ID).Size)
	assert.Equal(t, 1, f.reloadZone(t, second.ID).Size)

	isModerator, err := f.svc().Zone().IsModerator(ctx, first.ID, leaver.ID)
	require.NoError(t, err)
	assert.False(t, isModerator)

	// The name is free again
	_, err = users.CreateUser(ctx, "leaver", false)
	require.NoError(t, err)
}
