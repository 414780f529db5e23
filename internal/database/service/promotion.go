package service

import (
	"context"

	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/score"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PromotionService turns proposals that crossed their threshold into zones.
type PromotionService struct {
	users      *models.UserModel
	proposals  *models.ProposalModel
	votes      *models.VoteModel
	activity   *models.ActivityModel
	governance *ZoneService
	settings   Settings
	logger     *zap.Logger
}

// NewPromotion creates a new promotion service.
func NewPromotion(
	users *models.UserModel,
	proposals *models.ProposalModel,
	votes *models.VoteModel,
	activity *models.ActivityModel,
	governance *ZoneService,
	settings Settings,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		users:      users,
		proposals:  proposals,
		votes:      votes,
		activity:   activity,
		governance: governance,
		settings:   settings,
		logger:     logger.Named("promotion_service"),
	}
}

// StandingWithTx computes a proposal's score against the current population.
// Votes from rejected users are ignored.
func (s *PromotionService) StandingWithTx(
	ctx context.Context, tx bun.IDB, proposal *types.Proposal,
) (*types.ProposalProgress, error) {
	population, err := s.users.CountUsersWithTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	positive, err := s.votes.GetVoteCountWithTx(ctx, tx, enum.ItemKindProposal, proposal.ID,
		types.VoteFilter{Positive: true, ExcludeRejected: true})
	if err != nil {
		return nil, err
	}

	average, err := s.votes.GetValueAvgWithTx(ctx, tx, enum.ItemKindProposal, proposal.ID,
		types.VoteFilter{ExcludeRejected: true})
	if err != nil {
		return nil, err
	}

	threshold := s.settings.Policy.Threshold(population)
	total := score.ProposalScore(positive, average, threshold)

	return &types.ProposalProgress{
		Proposal:      proposal,
		PositiveVotes: positive,
		AverageValue:  average,
		Score:         total,
		Threshold:     threshold,
		Percent:       score.Progress(total, threshold),
	}, nil
}

// EvaluateWithTx promotes proposal if its score reached the threshold. The caller must
// hold the proposal's row lock so that only one transaction can promote it; any later
// transaction no longer finds the proposal.
func (s *PromotionService) EvaluateWithTx(
	ctx context.Context, tx bun.IDB, proposal *types.Proposal,
) (*types.PromotionResult, error) {
	standing, err := s.StandingWithTx(ctx, tx, proposal)
	if err != nil {
		return nil, err
	}

	result := &types.PromotionResult{
		Status:    enum.PromotionStatusOpen,
		Score:     standing.Score,
		Threshold: standing.Threshold,
	}
	if standing.Score < standing.Threshold {
		return result, nil
	}

	zone, err := s.governance.createZoneWithTx(ctx, tx, proposal.Name, proposal.Description, proposal.AuthorID, true)
	if err != nil {
		return nil, err
	}

	if err := s.votes.DeleteItemVotesWithTx(ctx, tx, enum.ItemKindProposal, proposal.ID); err != nil {
		return nil, err
	}

	deleted, err := s.proposals.DeleteProposalWithTx(ctx, tx, proposal.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return &types.PromotionResult{Status: enum.PromotionStatusGone}, nil
	}

	err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
		ActorID:      proposal.AuthorID,
		ActivityType: enum.ActivityTypeProposalPromoted,
		TargetKind:   enum.ItemKindProposal.String(),
		TargetID:     proposal.ID,
		ZoneID:       zone.ID,
		Details: map[string]any{
			"name":      proposal.Name,
			"score":     standing.Score,
			"threshold": standing.Threshold,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proposal promoted to zone",
		zap.Int64("proposalID", proposal.ID),
		zap.Int64("zoneID", zone.ID),
		zap.String("slug", zone.Slug),
		zap.Float64("score", standing.Score),
		zap.Float64("threshold", standing.Threshold))

	result.Status = enum.PromotionStatusPromoted
	result.Zone = zone
	return result, nil
}
