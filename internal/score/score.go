// Package score holds the pure reputation formulas used to rank votable items, weigh voters,
// and decide when a zone proposal has gathered enough support.
//
// Nothing here touches the store. Callers load the relevant ledger rows, hand them over as
// samples, and persist whatever comes back inside their own transaction.
package score

import (
	"math"
)

// Default policy values.
const (
	DefaultAlpha               = 0.1
	DefaultNonSubscriberWeight = 0.5
	DefaultThresholdFactor     = 5.0
	DefaultDisplayScale        = 5.0
)

// Policy contains the numeric knobs of the score engine.
type Policy struct {
	// Alpha is the EWMA smoothing constant in (0, 1]. Higher values react faster.
	Alpha float64
	// NonSubscriberWeight scales votes cast on zone-scoped items by non-subscribers.
	NonSubscriberWeight float64
	// ThresholdFactor multiplies ln(population) to get a proposal's promotion threshold.
	ThresholdFactor float64
	// DisplayScale maps an item value onto the star-style display range.
	DisplayScale float64
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Alpha:               DefaultAlpha,
		NonSubscriberWeight: DefaultNonSubscriberWeight,
		ThresholdFactor:     DefaultThresholdFactor,
		DisplayScale:        DefaultDisplayScale,
	}
}

// Normalize replaces out-of-range values with their defaults.
func (p Policy) Normalize() Policy {
	if p.Alpha <= 0 || p.Alpha > 1 || math.IsNaN(p.Alpha) {
		p.Alpha = DefaultAlpha
	}
	if p.NonSubscriberWeight < 0 || math.IsNaN(p.NonSubscriberWeight) {
		p.NonSubscriberWeight = DefaultNonSubscriberWeight
	}
	if p.ThresholdFactor <= 0 || math.IsNaN(p.ThresholdFactor) {
		p.ThresholdFactor = DefaultThresholdFactor
	}
	if p.DisplayScale <= 0 || math.IsNaN(p.DisplayScale) {
		p.DisplayScale = DefaultDisplayScale
	}
	return p
}

// Sample is the part of a ledger row the score engine looks at.
type Sample struct {
	Value        float64
	IsRejected   bool
	IsSubscriber bool
}

// EWMA blends a new observation into a running average.
func (p Policy) EWMA(previous, sample float64) float64 {
	return p.Alpha*sample + (1-p.Alpha)*previous
}

// VoteValue returns the value to store for a cast with raw magnitude raw (+1 or -1)
// given the value already stored for the same voter and item.
//
// Repeating a stance retracts it. A zero row (fresh or retracted) never retracts.
// Otherwise the raw magnitude is discounted by half of the voter's vote EWMA.
func VoteValue(existing, raw, voterEWMA float64) float64 {
	if (existing > 0 && raw > 0) || (existing < 0 && raw < 0) {
		return 0
	}
	return raw - voterEWMA/2
}

// UserVoteEWMA returns the voter's updated aggressiveness after a first cast on an item.
func (p Policy) UserVoteEWMA(previous, raw float64) float64 {
	return p.EWMA(previous, raw)
}

// ZoneVoteEWMA returns the zone's updated aggressiveness after a first cast inside it.
func (p Policy) ZoneVoteEWMA(previous, raw float64) float64 {
	return p.EWMA(previous, raw)
}

// ZoneScoreEWMA returns the zone's updated quality signal after absorbing an item value.
func (p Policy) ZoneScoreEWMA(previous, value float64) float64 {
	return p.EWMA(previous, value)
}

// Value is the plain aggregate of a ledger: the mean of every counted vote.
// Rejected voters and retracted (zero) rows are ignored. An empty ledger is neutral.
func (p Policy) Value(samples []Sample) float64 {
	var sum float64
	var n int
	for _, s := range samples {
		if !counts(s) {
			continue
		}
		sum += s.Value
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ZoneValue is the aggregate used for zone-scoped items. Votes from subscribers of the
// owning zone count fully, the rest are scaled by NonSubscriberWeight.
func (p Policy) ZoneValue(samples []Sample) float64 {
	var sum, weights float64
	for _, s := range samples {
		if !counts(s) {
			continue
		}
		w := 1.0
		if !s.IsSubscriber {
			w = p.NonSubscriberWeight
		}
		sum += w * s.Value
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// ZoneScore ranks an item inside its own zone.
func (p Policy) ZoneScore(value, zoneScoreEWMA float64) float64 {
	return p.EWMA(zoneScoreEWMA, value)
}

// GlobalScore ranks an item across every zone, using the reference zone's quality
// signal as the global baseline.
func (p Policy) GlobalScore(value, globalScoreEWMA float64) float64 {
	return p.EWMA(globalScoreEWMA, value)
}

// BaseScore is the expected starting visibility of a new item in a zone whose quality
// signal is zoneScoreEWMA, relative to the reference zone's own signal.
func (p Policy) BaseScore(zoneScoreEWMA, referenceScoreEWMA float64) float64 {
	return referenceScoreEWMA + p.Alpha*(zoneScoreEWMA-referenceScoreEWMA)
}

// ShouldBePublic decides whether a single vote may be listed publicly.
func ShouldBePublic(voterRejected, voterErased, itemPrivate bool) bool {
	return !voterRejected && !voterErased && !itemPrivate
}

// Threshold is the score a proposal needs before it becomes a zone.
// Populations of one or fewer have no threshold at all.
func (p Policy) Threshold(totalUsers int) float64 {
	if totalUsers <= 1 {
		return 0
	}
	return p.ThresholdFactor * math.Log(float64(totalUsers))
}

// ProposalScore combines the raw count of positive votes with a bonus that rewards a high
// average approval, scaled to the same magnitude as the threshold.
func ProposalScore(positiveVotes int, averageValue, threshold float64) float64 {
	bonus := (averageValue + 1) / 4 * threshold
	return float64(positiveVotes) + bonus
}

// Progress returns score as a percentage of threshold.
func Progress(score, threshold float64) float64 {
	if threshold <= 0 {
		return 100
	}
	return 100 * score / threshold
}

// DisplayValue maps an item value to the rounded star-style scale.
func (p Policy) DisplayValue(value float64) int {
	return int(math.Round(value * p.DisplayScale))
}

// Description labels a stored vote value.
func Description(value float64) string {
	switch {
	case value > 0:
		return "positive"
	case value < 0:
		return "negative"
	default:
		return "neutral"
	}
}

func counts(s Sample) bool {
	return !s.IsRejected && s.Value != 0
}
