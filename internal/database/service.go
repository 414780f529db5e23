package database

import (
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	user      *service.UserService
	zone      *service.ZoneService
	vote      *service.VoteService
	promotion *service.PromotionService
	proposal  *service.ProposalService
	content   *service.ContentService
}

// NewService creates a new service instance with all services.
func NewService(
	db *bun.DB, repository *Repository, settings service.Settings, publisher service.Publisher, logger *zap.Logger,
) *Service {
	userModel := repository.User()
	zoneModel := repository.Zone()
	permissionModel := repository.Permission()
	subscriptionModel := repository.Subscription()
	activityModel := repository.Activity()
	voteModel := repository.Vote()

	zoneService := service.NewZone(
		db, userModel, zoneModel, permissionModel, subscriptionModel, activityModel, settings, logger,
	)
	promotionService := service.NewPromotion(
		userModel, repository.Proposal(), voteModel, activityModel, zoneService, settings, logger,
	)
	voteService := service.NewVote(
		db, userModel, zoneModel, subscriptionModel, repository.Item(), voteModel,
		promotionService, publisher, settings, logger,
	)

	return &Service{
		user: service.NewUser(
			db, userModel, zoneModel, permissionModel, subscriptionModel, activityModel, settings, logger,
		),
		zone:      zoneService,
		vote:      voteService,
		promotion: promotionService,
		proposal: service.NewProposal(
			db, userModel, zoneModel, repository.Proposal(), activityModel, voteService, promotionService, logger,
		),
		content: service.NewContent(
			db, userModel, zoneModel, repository.Content(), activityModel, voteService, zoneService, settings, logger,
		),
	}
}

// User returns the user service.
func (s *Service) User() *service.UserService {
	return s.user
}

// Zone returns the zone governance service.
func (s *Service) Zone() *service.ZoneService {
	return s.zone
}

// Vote returns the vote ledger service.
func (s *Service) Vote() *service.VoteService {
	return s.vote
}

// Promotion returns the proposal promotion service.
func (s *Service) Promotion() *service.PromotionService {
	return s.promotion
}

// Proposal returns the proposal service.
func (s *Service) Proposal() *service.ProposalService {
	return s.proposal
}

// Content returns the submission and comment service.
func (s *Service) Content() *service.ContentService {
	return s.content
}
