package service_test

import (
	"testing"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteToggle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	votes := f.svc().Vote()

	zone := f.zone(t, "Toggles")
	voter := f.user(t, "voter")
	before := zone.Value

	first, err := votes.CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.InDelta(t, 1.0, first.Vote.Value, 1e-9)
	assert.InDelta(t, 1.0, first.ItemValue, 1e-9)
	assert.Equal(t, "positive", first.Description)

	second, err := votes.CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Zero(t, second.Vote.Value)
	assert.InDelta(t, before, second.ItemValue, 1e-9)
	assert.Equal(t, "neutral", second.Description)

	// A retracted row never retracts again
	third, err := votes.CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
	require.NoError(t, err)
	assert.Positive(t, third.Vote.Value)
}

func TestCastVoteDiscount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Discounts")
	voter := f.user(t, "heavy")
	require.NoError(t, f.client.Model().User().UpdateVoteEWMAWithTx(ctx, f.client.DB(), voter.ID, 0.4))

	result, err := f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.Vote.Value, 1e-9)

	// Only the first cast on an item moves the voter's aggressiveness
	assert.InDelta(t, 0.46, f.reloadUser(t, voter.ID).VoteEWMA, 1e-9)

	// Flipping the vote discounts the opposite direction by the updated signal
	flipped, err := f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionDown)
	require.NoError(t, err)
	assert.False(t, flipped.Created)
	assert.InDelta(t, -1.23, flipped.Vote.Value, 1e-9)
	assert.InDelta(t, 0.46, f.reloadUser(t, voter.ID).VoteEWMA, 1e-9)
}

func TestCastVoteUniqueness(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Unique")
	voter := f.user(t, "voter")

	var wg conc.WaitGroup
	for range 6 {
		wg.Go(func() {
			_, err := f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	count, err := f.svc().Vote().GetVoteCount(ctx, enum.ItemKindZone, zone.ID, types.VoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Six alternating toggles end on a retraction
	vote, err := f.svc().Vote().GetVote(ctx, enum.ItemKindZone, zone.ID, voter.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Zero(t, vote.Value)
}

func TestCastVoteSubscriberWeight(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Weights")
	subscriber := f.user(t, "member")
	outsider := f.user(t, "outsider")

	_, err := f.svc().Zone().Subscribe(ctx, zone.ID, subscriber.ID)
	require.NoError(t, err)

	_, err = f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, subscriber.ID, enum.DirectionUp)
	require.NoError(t, err)
	result, err := f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, outsider.ID, enum.DirectionDown)
	require.NoError(t, err)

	// (1·1 + 0.5·-1) / 1.5
	assert.InDelta(t, 1.0/3.0, result.ItemValue, 1e-9)

	reloaded := f.reloadZone(t, zone.ID)
	assert.InDelta(t, 1.0/3.0, reloaded.Value, 1e-9)
	assert.InDelta(t, -0.01, reloaded.VoteEWMA, 1e-9)
	assert.NotZero(t, reloaded.ScoreEWMA)
}

func TestCastVoteRejectedVoter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Spam")
	troll := f.user(t, "troll")
	fan := f.user(t, "fan")
	require.NoError(t, f.svc().User().Ban(ctx, troll.ID, f.admin.ID))

	banned, err := f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, troll.ID, enum.DirectionDown)
	require.NoError(t, err)
	assert.True(t, banned.Vote.IsRejected)
	assert.True(t, banned.Vote.IsPrivate)
	assert.Zero(t, banned.ItemValue)

	_, err = f.svc().Vote().CastVote(ctx, enum.ItemKindZone, zone.ID, fan.ID, enum.DirectionUp)
	require.NoError(t, err)

	public, err := f.svc().Vote().GetVotes(ctx, enum.ItemKindZone, zone.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, fan.ID, public[0].VoterID)

	sum, err := f.svc().Vote().GetValueSum(ctx, enum.ItemKindZone, zone.ID, types.VoteFilter{ExcludeRejected: true})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCastVoteValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	voter := f.user(t, "voter")

	tests := []struct {
		name      string
		kind      enum.ItemKind
		itemID    int64
		voterID   int64
		direction enum.Direction
		wantErr   error
	}{
		{"unknown kind", enum.ItemKind("poll"), 1, voter.ID, enum.DirectionUp, types.ErrInvalidInput},
		{"unknown direction", enum.ItemKindZone, 1, voter.ID, enum.Direction("sideways"), types.ErrInvalidInput},
		{"missing submission", enum.ItemKindSubmission, 999, voter.ID, enum.DirectionUp, types.ErrItemNotFound},
		{"missing voter", enum.ItemKindZone, 1, 999, enum.DirectionUp, types.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc().Vote().CastVote(ctx, tt.kind, tt.itemID, tt.voterID, tt.direction)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := f.svc().Vote().GetVoteCount(ctx, enum.ItemKindZone, 1, types.VoteFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCastVotePublishesScores(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	zone := f.zone(t, "Published")
	voter := f.user(t, "voter")

	_, err := f.svc().Vote().CastVote(t.Context(), enum.ItemKindZone, zone.ID, voter.ID, enum.DirectionUp)
	require.NoError(t, err)

	published, _ := f.publisher.snapshot()
	assert.Contains(t, published, "zone:"+itoa(zone.ID))
}

func TestDisplayValue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.Equal(t, 5, f.svc().Vote().DisplayValue(1))
	assert.Equal(t, 3, f.svc().Vote().DisplayValue(0.61))
	assert.Equal(t, -2, f.svc().Vote().DisplayValue(-0.4))
}
