package service_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateZone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "  Gardening   Club ")
	assert.Equal(t, "Gardening Club", zone.Name)
	assert.Equal(t, "gardening-club", zone.Slug)
	assert.Equal(t, 1, zone.Size)

	isAdmin, err := zones.IsAdmin(ctx, zone.ID, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	subscribed, err := zones.IsSubscriber(ctx, zone.ID, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	_, err = zones.CreateZone(ctx, f.admin.ID, "gardening club", "again")
	require.ErrorIs(t, err, types.ErrNameTaken)

	regular := f.user(t, "regular")
	_, err = zones.CreateZone(ctx, regular.ID, "Knitting", "")
	require.ErrorIs(t, err, types.ErrNotAuthorized)

	_, err = zones.CreateZone(ctx, f.admin.ID, "   ", "")
	require.ErrorIs(t, err, types.ErrInvalidInput)

	logs, err := f.client.Model().Activity().GetLogs(ctx, types.ActivityFilter{ZoneID: zone.ID}, 10)
	require.NoError(t, err)
	kinds := make([]enum.ActivityType, 0, len(logs))
	for _, log := range logs {
		kinds = append(kinds, log.ActivityType)
	}
	assert.Contains(t, kinds, enum.ActivityTypeZoneCreated)
	assert.Contains(t, kinds, enum.ActivityTypeFounderAdded)
}

func TestUpdateZone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Reading")
	outsider := f.user(t, "outsider")

	updated, err := f.svc().Zone().UpdateZone(ctx, zone.ID, f.admin.ID, "books", "be kind")
	require.NoError(t, err)
	assert.Equal(t, "books", updated.Description)
	assert.Equal(t, "be kind", updated.Information)

	_, err = f.svc().Zone().UpdateZone(ctx, zone.ID, outsider.ID, "hijacked", "")
	require.ErrorIs(t, err, types.ErrNotAuthorized)
	assert.Equal(t, "books", f.reloadZone(t, zone.ID).Description)
}

func TestGrantPermissionPreconditions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "Chess")
	outsider := f.user(t, "outsider")
	target := f.user(t, "target")
	banned := f.user(t, "banned")
	erased := f.user(t, "erased")

	require.NoError(t, f.svc().User().Ban(ctx, banned.ID, f.admin.ID))
	require.NoError(t, f.svc().User().Erase(ctx, erased.ID, erased.ID))

	err := zones.GrantPermission(ctx, zone.ID, target.ID, outsider.ID)
	require.ErrorIs(t, err, types.ErrNotAuthorized)

	err = zones.GrantPermission(ctx, zone.ID, banned.ID, f.admin.ID)
	require.ErrorIs(t, err, types.ErrTargetBanned)

	err = zones.GrantPermission(ctx, zone.ID, erased.ID, f.admin.ID)
	require.ErrorIs(t, err, types.ErrTargetErased)

	require.NoError(t, zones.GrantPermission(ctx, zone.ID, target.ID, f.admin.ID))

	err = zones.GrantPermission(ctx, zone.ID, target.ID, f.admin.ID)
	require.ErrorIs(t, err, types.ErrAlreadyModerator)

	// Granting does not subscribe
	subscribed, err := zones.IsSubscriber(ctx, zone.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	// Moderators may grant in turn
	require.NoError(t, zones.GrantPermission(ctx, zone.ID, outsider.ID, target.ID))

	count, err := zones.ModeratorCount(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGrantPermissionLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "Capped")
	mods := f.users(t, "mod", 5)

	for _, mod := range mods[:4] {
		require.NoError(t, zones.GrantPermission(ctx, zone.ID, mod.ID, f.admin.ID))
	}

	err := zones.GrantPermission(ctx, zone.ID, mods[4].ID, f.admin.ID)
	require.ErrorIs(t, err, types.ErrLimitExceeded)

	// The cap is checked before the target's own state
	err = zones.GrantPermission(ctx, zone.ID, mods[0].ID, f.admin.ID)
	require.ErrorIs(t, err, types.ErrLimitExceeded)

	perms, err := zones.Permissions(ctx, zone.ID)
	require.NoError(t, err)
	require.Len(t, perms.Permissions, 5)
	assert.Equal(t, f.admin.ID, perms.Permissions[0].UserID)
}

func TestGrantPermissionConcurrentLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "Crowded")
	candidates := f.users(t, "candidate", 10)

	var granted, refused atomic.Int32
	var wg conc.WaitGroup
	for _, candidate := range candidates {
		wg.Go(func() {
			err := zones.GrantPermission(ctx, zone.ID, candidate.ID, f.admin.ID)
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, types.ErrLimitExceeded):
				refused.Add(1)
			default:
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(4), granted.Load())
	assert.Equal(t, int32(6), refused.Load())

	count, err := zones.ModeratorCount(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRevokePermissionSeniority(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "Seniority")
	founder := f.user(t, "founder")
	junior := f.user(t, "junior")
	outsider := f.user(t, "outsider")

	require.NoError(t, zones.GrantPermission(ctx, zone.ID, founder.ID, f.admin.ID))
	require.NoError(t, zones.GrantPermission(ctx, zone.ID, junior.ID, founder.ID))

	superior, err := zones.IsSuperior(ctx, zone.ID, founder.ID, junior.ID)
	require.NoError(t, err)
	assert.True(t, superior)

	superior, err = zones.IsSuperior(ctx, zone.ID, junior.ID, founder.ID)
	require.NoError(t, err)
	assert.False(t, superior)

	superior, err = zones.IsSuperior(ctx, zone.ID, outsider.ID, outsider.ID)
	require.NoError(t, err)
	assert.True(t, superior)

	superior, err = zones.IsSuperior(ctx, zone.ID, outsider.ID, junior.ID)
	require.NoError(t, err)
	assert.False(t, superior)

	err = zones.RevokePermission(ctx, zone.ID, founder.ID, junior.ID)
	require.ErrorIs(t, err, types.ErrNotAuthorized)

	err = zones.RevokePermission(ctx, zone.ID, junior.ID, outsider.ID)
	require.ErrorIs(t, err, types.ErrNotAuthorized)

	require.NoError(t, zones.RevokePermission(ctx, zone.ID, junior.ID, founder.ID))

	err = zones.RevokePermission(ctx, zone.ID, junior.ID, founder.ID)
	require.ErrorIs(t, err, types.ErrNotModerator)

	// Global admins outrank everyone and moderators may step down themselves
	require.NoError(t, zones.GrantPermission(ctx, zone.ID, junior.ID, founder.ID))
	require.NoError(t, zones.RevokePermission(ctx, zone.ID, junior.ID, junior.ID))
	require.NoError(t, zones.RevokePermission(ctx, zone.ID, founder.ID, f.admin.ID))

	isModerator, err := zones.IsModerator(ctx, zone.ID, founder.ID)
	require.NoError(t, err)
	assert.False(t, isModerator)
}

func TestSubscriptionSize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.svc().Zone()

	zone := f.zone(t, "Popular")
	members := f.users(t, "member", 20)

	var wg conc.WaitGroup
	for _, member := range members {
		wg.Go(func() {
			_, err := zones.Subscribe(ctx, zone.ID, member.ID)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	for _, member := range members[:7] {
		wg.Go(func() {
			_, err := zones.Unsubscribe(ctx, zone.ID, member.ID)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	rows, err := f.client.DB().NewSelect().
		Model((*types.ZoneSubscription)(nil)).
		Where("zone_id = ?", zone.ID).
		Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 14, rows)
	assert.Equal(t, rows, f.reloadZone(t, zone.ID).Size)

	// Both directions are idempotent
	size, err := zones.Subscribe(ctx, zone.ID, members[10].ID)
	require.NoError(t, err)
	assert.Equal(t, 14, size)

	size, err = zones.Unsubscribe(ctx, zone.ID, members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 14, size)
}

func TestSubscriptionLimit(t *testing.T) {
	t.Parallel()

	settings := service.DefaultSettings()
	settings.SubscriptionLimit = 2
	f := newFixtureWithSettings(t, settings)
	ctx := t.Context()
	zones := f.svc().Zone()

	first := f.zone(t, "First")
	second := f.zone(t, "Second")
	third := f.zone(t, "Third")
	member := f.user(t, "member")

	_, err := zones.Subscribe(ctx, first.ID, member.ID)
	require.NoError(t, err)
	_, err = zones.Subscribe(ctx, second.ID, member.ID)
	require.NoError(t, err)

	_, err = zones.Subscribe(ctx, third.ID, member.ID)
	require.ErrorIs(t, err, types.ErrSubscriptionLimit)

	size, err := zones.Subscribe(ctx, first.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	_, err = zones.Unsubscribe(ctx, second.ID, member.ID)
	require.NoError(t, err)
	_, err = zones.Subscribe(ctx, third.ID, member.ID)
	require.NoError(t, err)
}

func TestPromotedZoneSlugCollisionIsRetryable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	zones := f.client.Model().Zone()

	taken := f.zone(t, "Chess")

	err := zones.CreatePromotedZoneWithTx(ctx, f.client.DB(), &types.Zone{Slug: taken.Slug, Name: "Chess"})
	require.ErrorIs(t, err, dbretry.ErrConflict)
	assert.True(t, dbretry.IsRetryableError(err))

	err = zones.CreateZoneWithTx(ctx, f.client.DB(), &types.Zone{Slug: taken.Slug, Name: "Chess"})
	require.ErrorIs(t, err, types.ErrNameTaken)
	assert.False(t, dbretry.IsRetryableError(err))
}

func TestFounderSubscriptionIgnoresLimit(t *testing.T) {
	t.Parallel()

	settings := service.DefaultSettings()
	settings.SubscriptionLimit = 1
	f := newFixtureWithSettings(t, settings)
	ctx := t.Context()

	first := f.zone(t, "First")
	second := f.zone(t, "Second")

	for _, zone := range []*types.Zone{first, second} {
		subscribed, err := f.svc().Zone().IsSubscriber(ctx, zone.ID, f.admin.ID)
		require.NoError(t, err)
		assert.True(t, subscribed)
	}

	count, err := f.client.Model().Subscription().CountUserSubscriptionsWithTx(ctx, f.client.DB(), f.admin.ID)
	require.NoError(t, err)
	assert.Greater(t, count, settings.SubscriptionLimit)

	follower := f.user(t, "follower")
	_, err = f.svc().Zone().Subscribe(ctx, first.ID, follower.ID)
	require.NoError(t, err)
	_, err = f.svc().Zone().Subscribe(ctx, second.ID, follower.ID)
	require.ErrorIs(t, err, types.ErrSubscriptionLimit)
}
