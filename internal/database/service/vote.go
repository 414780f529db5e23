package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/score"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VoteService records votes and keeps every score derived from them up to date.
type VoteService struct {
	db        *bun.DB
	users     *models.UserModel
	zones     *models.ZoneModel
	subs      *models.SubscriptionModel
	items     *models.ItemModel
	votes     *models.VoteModel
	promotion *PromotionService
	publisher Publisher
	settings  Settings
	logger    *zap.Logger
}

// NewVote creates a new vote service. publisher may be nil.
func NewVote(
	db *bun.DB,
	users *models.UserModel,
	zones *models.ZoneModel,
	subs *models.SubscriptionModel,
	items *models.ItemModel,
	votes *models.VoteModel,
	promotion *PromotionService,
	publisher Publisher,
	settings Settings,
	logger *zap.Logger,
) *VoteService {
	return &VoteService{
		db:        db,
		users:     users,
		zones:     zones,
		subs:      subs,
		items:     items,
		votes:     votes,
		promotion: promotion,
		publisher: publisher,
		settings:  settings,
		logger:    logger.Named("vote_service"),
	}
}

// castOutcome is everything a cast changed, kept until the transaction commits.
type castOutcome struct {
	kind      enum.ItemKind
	item      types.Votable
	zone      *types.Zone
	vote      *types.Vote
	created   bool
	promotion *types.PromotionResult
}

func (o *castOutcome) result() *types.CastResult {
	result := &types.CastResult{
		Kind:      o.kind,
		Vote:      o.vote,
		Created:   o.created,
		Promotion: o.promotion,
	}
	if o.item != nil {
		voted, _ := o.item.Scores()
		result.ItemValue = voted.Value
	}
	if o.vote != nil {
		result.Description = score.Description(o.vote.Value)
	}
	return result
}

// CastVote records voterID's stance on an item and recomputes the scores that depend on it.
// Casting the same direction twice retracts the vote. Voting on a proposal that has
// already been promoted is a no-op reported through the promotion status.
func (s *VoteService) CastVote(
	ctx context.Context, kind enum.ItemKind, itemID, voterID int64, direction enum.Direction,
) (result *types.CastResult, err error) {
	ctx, span := startSpan(ctx, "VoteService.CastVote",
		attribute.String("kind", kind.String()),
		attribute.Int64("itemID", itemID),
		attribute.Int64("voterID", voterID),
		attribute.String("direction", direction.String()))
	defer func() { endSpan(span, err) }()

	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown item kind %q", types.ErrInvalidInput, kind)
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: unknown direction %q", types.ErrInvalidInput, direction)
	}

	outcome, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*castOutcome, error) {
		return s.castWithTx(ctx, tx, kind, itemID, voterID, direction)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, outcome)

	result = outcome.result()
	s.logger.Debug("Vote cast",
		zap.String("kind", kind.String()),
		zap.Int64("itemID", itemID),
		zap.Int64("voterID", voterID),
		zap.String("direction", direction.String()),
		zap.Bool("created", result.Created),
		zap.Float64("itemValue", result.ItemValue))

	return result, nil
}

// castWithTx is the ledger upsert and score recomputation of a single cast.
// Rows are locked in the order item, voter, zone.
func (s *VoteService) castWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID, voterID int64, direction enum.Direction,
) (*castOutcome, error) {
	item, err := s.items.GetItemWithTx(ctx, tx, kind, itemID, true)
	if err != nil {
		if kind == enum.ItemKindProposal && errors.Is(err, types.ErrItemNotFound) {
			return &castOutcome{
				kind:      kind,
				promotion: &types.PromotionResult{Status: enum.PromotionStatusGone},
			}, nil
		}
		return nil, err
	}

	voter, err := s.users.GetUserByIDWithTx(ctx, tx, voterID, true)
	if err != nil {
		return nil, err
	}

	var zone *types.Zone
	if zoneID, ok := item.OwningZoneID(); ok {
		if z, isZone := item.(*types.Zone); isZone {
			zone = z
		} else {
			zone, err = s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true)
			if err != nil {
				return nil, err
			}
		}
	}

	vote, err := s.votes.GetVoteWithTx(ctx, tx, kind, itemID, voterID)
	if err != nil {
		return nil, err
	}

	policy := s.settings.Policy
	raw := direction.Raw()
	created := vote == nil

	if created {
		isSubscriber := false
		if zone != nil {
			isSubscriber, err = s.subs.IsSubscribedWithTx(ctx, tx, zone.ID, voterID)
			if err != nil {
				return nil, err
			}
		}

		vote = &types.Vote{
			ItemID:       itemID,
			VoterID:      voterID,
			Value:        score.VoteValue(0, raw, voter.VoteEWMA),
			IsPrivate:    !score.ShouldBePublic(voter.IsRejected, voter.IsErased, item.Hidden()),
			IsRejected:   voter.IsRejected,
			IsSubscriber: isSubscriber,
		}
		if err := s.votes.InsertVoteWithTx(ctx, tx, kind, vote); err != nil {
			return nil, err
		}

		voter.VoteEWMA = policy.UserVoteEWMA(voter.VoteEWMA, raw)
		if err := s.users.UpdateVoteEWMAWithTx(ctx, tx, voterID, voter.VoteEWMA); err != nil {
			return nil, err
		}

		if zone != nil {
			zone.VoteEWMA = policy.ZoneVoteEWMA(zone.VoteEWMA, raw)
		}
	} else {
		vote.Value = score.VoteValue(vote.Value, raw, voter.VoteEWMA)
		if err := s.votes.UpdateVoteValueWithTx(ctx, tx, kind, vote); err != nil {
			return nil, err
		}
	}

	if err := s.recomputeWithTx(ctx, tx, item, zone); err != nil {
		return nil, err
	}

	// The zone's quality signal absorbs each counted voter once
	if zone != nil && created {
		if !voter.IsRejected {
			voted, _ := item.Scores()
			zone.ScoreEWMA = policy.ZoneScoreEWMA(zone.ScoreEWMA, voted.Value)
		}
		if err := s.zones.UpdateReputationWithTx(ctx, tx, zone); err != nil {
			return nil, err
		}
	}

	outcome := &castOutcome{
		kind:    kind,
		item:    item,
		zone:    zone,
		vote:    vote,
		created: created,
	}

	if proposal, ok := item.(*types.Proposal); ok {
		outcome.promotion, err = s.promotion.EvaluateWithTx(ctx, tx, proposal)
		if err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// recomputeWithTx refreshes an item's value from its whole ledger and, for zone-scoped
// items, its zone and global ranking scores. zone must be set for zone-scoped items.
func (s *VoteService) recomputeWithTx(ctx context.Context, tx bun.IDB, item types.Votable, zone *types.Zone) error {
	ledger, err := s.votes.GetVotesWithTx(ctx, tx, item.VoteKind(), item.VotableID(), types.VoteFilter{})
	if err != nil {
		return err
	}

	samples := make([]score.Sample, len(ledger))
	for i, vote := range ledger {
		samples[i] = score.Sample{
			Value:        vote.Value,
			IsRejected:   vote.IsRejected,
			IsSubscriber: vote.IsSubscriber,
		}
	}

	policy := s.settings.Policy
	voted, scored := item.Scores()

	if scored == nil {
		voted.Value = policy.Value(samples)
	} else {
		voted.Value = policy.ZoneValue(samples)

		reference := zone
		if zone.ID != s.settings.DefaultZoneID {
			reference, err = s.zones.GetZoneByIDWithTx(ctx, tx, s.settings.DefaultZoneID, false)
			if err != nil {
				return fmt.Errorf("failed to load reference zone: %w", err)
			}
		}

		scored.ZoneScore = policy.ZoneScore(voted.Value, zone.ScoreEWMA)
		scored.GlobalScore = policy.GlobalScore(voted.Value, reference.ScoreEWMA)
	}

	return s.items.UpdateScoresWithTx(ctx, tx, item)
}

// RecomputeScores refreshes a single item's scores from its ledger in its own transaction.
func (s *VoteService) RecomputeScores(ctx context.Context, kind enum.ItemKind, itemID int64) (types.Votable, error) {
	item, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (types.Votable, error) {
		item, err := s.items.GetItemWithTx(ctx, tx, kind, itemID, true)
		if err != nil {
			return nil, err
		}

		var zone *types.Zone
		if zoneID, ok := item.OwningZoneID(); ok {
			if z, isZone := item.(*types.Zone); isZone {
				zone = z
			} else {
				zone, err = s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, false)
				if err != nil {
					return nil, err
				}
			}
		}

		if err := s.recomputeWithTx(ctx, tx, item, zone); err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishItem(ctx, item); err != nil {
			s.logger.Warn("Failed to publish item scores",
				zap.Error(err),
				zap.String("kind", kind.String()),
				zap.Int64("itemID", itemID))
		}
	}

	return item, nil
}

// publish forwards committed scores to the ranking publisher.
func (s *VoteService) publish(ctx context.Context, outcome *castOutcome) {
	if s.publisher == nil || outcome == nil {
		return
	}

	var errs []error
	switch {
	case outcome.promotion != nil && outcome.promotion.Status == enum.PromotionStatusPromoted:
		errs = append(errs, s.publisher.RemoveItem(ctx, enum.ItemKindProposal, outcome.item.VotableID()))
		errs = append(errs, s.publisher.PublishItem(ctx, outcome.promotion.Zone))
	case outcome.item != nil:
		errs = append(errs, s.publisher.PublishItem(ctx, outcome.item))
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("Failed to publish rankings",
			zap.Error(err),
			zap.String("kind", outcome.kind.String()))
	}
}

// GetVote returns userID's vote on an item, or nil if they never voted on it.
func (s *VoteService) GetVote(ctx context.Context, kind enum.ItemKind, itemID, userID int64) (*types.Vote, error) {
	return s.votes.GetVote(ctx, kind, itemID, userID)
}

// GetVotes lists an item's public votes.
func (s *VoteService) GetVotes(ctx context.Context, kind enum.ItemKind, itemID int64) ([]*types.Vote, error) {
	return s.votes.GetVotes(ctx, kind, itemID, types.VoteFilter{PublicOnly: true})
}

// GetVoteCount counts an item's votes matching filter.
func (s *VoteService) GetVoteCount(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (int, error) {
	return s.votes.GetVoteCount(ctx, kind, itemID, filter)
}

// GetValueAvg averages an item's vote values matching filter.
func (s *VoteService) GetValueAvg(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (float64, error) {
	return s.votes.GetValueAvg(ctx, kind, itemID, filter)
}

// GetValueSum sums an item's vote values matching filter.
func (s *VoteService) GetValueSum(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (float64, error) {
	return s.votes.GetValueSum(ctx, kind, itemID, filter)
}

// DisplayValue maps an item value onto the star-style scale.
func (s *VoteService) DisplayValue(value float64) int {
	return s.settings.Policy.DisplayValue(value)
}

// unpublish takes an item off the ranking boards.
func (s *VoteService) unpublish(ctx context.Context, kind enum.ItemKind, itemID int64) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.RemoveItem(ctx, kind, itemID); err != nil {
		s.logger.Warn("Failed to remove item from rankings",
			zap.Error(err),
			zap.String("kind", kind.String()),
			zap.Int64("itemID", itemID))
	}
}
