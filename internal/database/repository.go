package database

import (
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	user         *models.UserModel
	zone         *models.ZoneModel
	permission   *models.PermissionModel
	subscription *models.SubscriptionModel
	item         *models.ItemModel
	vote         *models.VoteModel
	proposal     *models.ProposalModel
	content      *models.ContentModel
	activity     *models.ActivityModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		user:         models.NewUser(db, logger),
		zone:         models.NewZone(db, logger),
		permission:   models.NewPermission(db, logger),
		subscription: models.NewSubscription(db, logger),
		item:         models.NewItem(db, logger),
		vote:         models.NewVote(db, logger),
		proposal:     models.NewProposal(db, logger),
		content:      models.NewContent(db, logger),
		activity:     models.NewActivity(db, logger),
	}
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Zone returns the zone model repository.
func (r *Repository) Zone() *models.ZoneModel {
	return r.zone
}

// Permission returns the zone permission model repository.
func (r *Repository) Permission() *models.PermissionModel {
	return r.permission
}

// Subscription returns the zone subscription model repository.
func (r *Repository) Subscription() *models.SubscriptionModel {
	return r.subscription
}

// Item returns the votable item model repository.
func (r *Repository) Item() *models.ItemModel {
	return r.item
}

// Vote returns the vote ledger model repository.
func (r *Repository) Vote() *models.VoteModel {
	return r.vote
}

// Proposal returns the proposal model repository.
func (r *Repository) Proposal() *models.ProposalModel {
	return r.proposal
}

// Content returns the submission and comment model repository.
func (r *Repository) Content() *models.ContentModel {
	return r.content
}

// Activity returns the activity log model repository.
func (r *Repository) Activity() *models.ActivityModel {
	return r.activity
}
