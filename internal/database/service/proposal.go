package service

import (
	"context"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/pkg/utils"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProposalService handles zone proposals up to the point where they are promoted.
type ProposalService struct {
	db        *bun.DB
	users     *models.UserModel
	zones     *models.ZoneModel
	proposals *models.ProposalModel
	activity  *models.ActivityModel
	votes     *VoteService
	promotion *PromotionService
	logger    *zap.Logger
}

// NewProposal creates a new proposal service.
func NewProposal(
	db *bun.DB,
	users *models.UserModel,
	zones *models.ZoneModel,
	proposals *models.ProposalModel,
	activity *models.ActivityModel,
	votes *VoteService,
	promotion *PromotionService,
	logger *zap.Logger,
) *ProposalService {
	return &ProposalService{
		db:        db,
		users:     users,
		zones:     zones,
		proposals: proposals,
		activity:  activity,
		votes:     votes,
		promotion: promotion,
		logger:    logger.Named("proposal_service"),
	}
}

// CreateProposal proposes a new zone and casts the author's upvote on it. The name must
// not collide with an existing zone or proposal. In a tiny population the author's own
// vote may already promote it, which the returned cast result reports.
func (s *ProposalService) CreateProposal(
	ctx context.Context, authorID int64, name, description string,
) (proposal *types.Proposal, result *types.CastResult, err error) {
	ctx, span := startSpan(ctx, "ProposalService.CreateProposal", attribute.Int64("authorID", authorID))
	defer func() { endSpan(span, err) }()

	if err := validateZoneTexts(name, description); err != nil {
		return nil, nil, err
	}
	name, slug := utils.CleanSlug(name)

	var created *types.Proposal
	outcome, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*castOutcome, error) {
		if _, err := s.users.GetUserByIDWithTx(ctx, tx, authorID, false); err != nil {
			return nil, err
		}

		zoneExists, err := s.zones.SlugExistsWithTx(ctx, tx, slug)
		if err != nil {
			return nil, err
		}
		proposalExists, err := s.proposals.SlugExistsWithTx(ctx, tx, slug)
		if err != nil {
			return nil, err
		}
		if zoneExists || proposalExists {
			return nil, types.ErrNameTaken
		}

		created = &types.Proposal{
			Slug:        slug,
			Name:        name,
			Description: description,
			Author:      types.Author{AuthorID: authorID},
		}
		if err := s.proposals.CreateProposalWithTx(ctx, tx, created); err != nil {
			return nil, err
		}

		err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      authorID,
			ActivityType: enum.ActivityTypeProposalCreated,
			TargetKind:   enum.ItemKindProposal.String(),
			TargetID:     created.ID,
			Details:      map[string]any{"slug": slug, "name": name},
		})
		if err != nil {
			return nil, err
		}

		return s.votes.castWithTx(ctx, tx, enum.ItemKindProposal, created.ID, authorID, enum.DirectionUp)
	})
	if err != nil {
		return nil, nil, err
	}

	s.votes.publish(ctx, outcome)

	s.logger.Info("Proposal created",
		zap.Int64("proposalID", created.ID),
		zap.String("slug", created.Slug),
		zap.Int64("authorID", authorID),
		zap.String("status", outcome.promotion.Status.String()))

	return created, outcome.result(), nil
}

// GetProposal retrieves an open proposal.
func (s *ProposalService) GetProposal(ctx context.Context, proposalID int64) (*types.Proposal, error) {
	return s.proposals.GetProposalByID(ctx, proposalID)
}

// Progress reports how close an open proposal is to promotion.
func (s *ProposalService) Progress(ctx context.Context, proposalID int64) (*types.ProposalProgress, error) {
	proposal, err := s.proposals.GetProposalByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return s.promotion.StandingWithTx(ctx, s.db, proposal)
}

// ListProposals lists open proposals, highest value first.
func (s *ProposalService) ListProposals(ctx context.Context, limit int) ([]*types.Proposal, error) {
	return s.proposals.GetProposals(ctx, limit)
}
