package score_test

import (
	"math"
	"testing"

	"github.com/robalyx/zoonas/internal/score"
	"github.com/stretchr/testify/assert"
)

func TestVoteValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		existing  float64
		raw       float64
		voterEWMA float64
		want      float64
	}{
		{name: "first upvote without history", existing: 0, raw: 1, voterEWMA: 0, want: 1},
		{name: "first upvote is discounted", existing: 0, raw: 1, voterEWMA: 0.4, want: 0.8},
		{name: "first downvote is discounted", existing: 0, raw: -1, voterEWMA: 0.4, want: -1.2},
		{name: "repeated upvote retracts", existing: 0.8, raw: 1, voterEWMA: 0.4, want: 0},
		{name: "repeated downvote retracts", existing: -1.2, raw: -1, voterEWMA: 0.4, want: 0},
		{name: "upvote flips a downvote", existing: -1, raw: 1, voterEWMA: 0, want: 1},
		{name: "downvote flips an upvote", existing: 0.5, raw: -1, voterEWMA: 0.2, want: -1.1},
		{name: "negative ewma amplifies", existing: 0, raw: 1, voterEWMA: -0.5, want: 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, score.VoteValue(tt.existing, tt.raw, tt.voterEWMA), 1e-9)
		})
	}
}

func TestEWMA(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	assert.InDelta(t, 0.1, p.UserVoteEWMA(0, 1), 1e-9)
	assert.InDelta(t, 0.19, p.UserVoteEWMA(0.1, 1), 1e-9)
	assert.InDelta(t, -0.1, p.ZoneVoteEWMA(0, -1), 1e-9)

	// Repeated identical samples converge on the sample.
	v := 0.0
	for range 500 {
		v = p.ZoneScoreEWMA(v, 0.7)
	}
	assert.InDelta(t, 0.7, v, 1e-6)
}

func TestValue(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	assert.Zero(t, p.Value(nil))
	assert.Zero(t, p.ZoneValue(nil))

	samples := []score.Sample{
		{Value: 1},
		{Value: 0.5},
		{Value: 0},
		{Value: -1, IsRejected: true},
	}
	assert.InDelta(t, 0.75, p.Value(samples), 1e-9)

	// Only rejected or retracted rows behave like an empty ledger.
	assert.Zero(t, p.Value([]score.Sample{{Value: 0}, {Value: 1, IsRejected: true}}))
}

func TestZoneValueWeighsSubscribers(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	samples := []score.Sample{
		{Value: 1, IsSubscriber: true},
		{Value: -1, IsSubscriber: false},
	}
	// (1*1 + 0.5*-1) / 1.5
	assert.InDelta(t, 1.0/3.0, p.ZoneValue(samples), 1e-9)

	p.NonSubscriberWeight = 0
	assert.InDelta(t, 1.0, p.ZoneValue(samples), 1e-9)
	assert.Zero(t, p.ZoneValue([]score.Sample{{Value: 1}}))
}

func TestThresholdAndProposalScore(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	threshold := p.Threshold(100)
	assert.InDelta(t, 23.03, threshold, 0.01)

	got := score.ProposalScore(20, 0.9, threshold)
	assert.InDelta(t, 30.94, got, 0.01)
	assert.GreaterOrEqual(t, got, threshold)

	assert.Zero(t, p.Threshold(1))
	assert.Zero(t, p.Threshold(0))
	assert.InDelta(t, 5*math.Log(2), p.Threshold(2), 1e-9)
}

func TestProgress(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 50.0, score.Progress(5, 10), 1e-9)
	assert.InDelta(t, 100.0, score.Progress(0, 0), 1e-9)
}

func TestDisplayValueAndDescription(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	assert.Equal(t, 5, p.DisplayValue(1))
	assert.Equal(t, 4, p.DisplayValue(0.8))
	assert.Equal(t, -3, p.DisplayValue(-0.5))
	assert.Equal(t, 0, p.DisplayValue(0))

	assert.Equal(t, "positive", score.Description(0.2))
	assert.Equal(t, "negative", score.Description(-0.2))
	assert.Equal(t, "neutral", score.Description(0))
}

func TestBaseAndRankingScores(t *testing.T) {
	t.Parallel()
	p := score.DefaultPolicy()

	assert.InDelta(t, 0.2, p.BaseScore(0.2, 0.2), 1e-9)
	assert.InDelta(t, 0.11, p.BaseScore(0.2, 0.1), 1e-9)
	assert.InDelta(t, 0.1*1+0.9*0.5, p.ZoneScore(1, 0.5), 1e-9)
	assert.InDelta(t, 0.1*-1+0.9*0.3, p.GlobalScore(-1, 0.3), 1e-9)
}

func TestShouldBePublic(t *testing.T) {
	t.Parallel()
	assert.True(t, score.ShouldBePublic(false, false, false))
	assert.False(t, score.ShouldBePublic(true, false, false))
	assert.False(t, score.ShouldBePublic(false, true, false))
	assert.False(t, score.ShouldBePublic(false, false, true))
}

func TestPolicyNormalize(t *testing.T) {
	t.Parallel()
	p := score.Policy{Alpha: 2, NonSubscriberWeight: -1}.Normalize()
	assert.Equal(t, score.DefaultPolicy(), p)

	custom := score.Policy{Alpha: 0.3, NonSubscriberWeight: 1, ThresholdFactor: 2, DisplayScale: 10}
	assert.Equal(t, custom, custom.Normalize())
}
