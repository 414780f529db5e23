package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ProposalModel handles database operations for zone proposals.
type ProposalModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewProposal creates a new ProposalModel instance.
func NewProposal(db *bun.DB, logger *zap.Logger) *ProposalModel {
	return &ProposalModel{
		db:     db,
		logger: logger.Named("db_proposal"),
	}
}

// CreateProposalWithTx inserts a proposal. A slug collision returns ErrNameTaken.
func (r *ProposalModel) CreateProposalWithTx(ctx context.Context, tx bun.IDB, proposal *types.Proposal) error {
	_, err := tx.NewInsert().Model(proposal).Exec(ctx)
	if err != nil {
		if dbretry.IsUniqueViolation(err) {
			return types.ErrNameTaken
		}
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// GetProposalByID retrieves a proposal by its ID.
func (r *ProposalModel) GetProposalByID(ctx context.Context, proposalID int64) (*types.Proposal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Proposal, error) {
		proposal, err := r.GetProposalByIDWithTx(ctx, r.db, proposalID, false)
		if err != nil {
			return nil, err
		}
		if proposal == nil {
			return nil, fmt.Errorf("%w: proposal %d", types.ErrItemNotFound, proposalID)
		}
		return proposal, nil
	})
}

// GetProposalByIDWithTx retrieves a proposal, optionally locking it.
// Returns nil if the proposal does not exist, which is how a promoted proposal looks.
func (r *ProposalModel) GetProposalByIDWithTx(
	ctx context.Context, tx bun.IDB, proposalID int64, lock bool,
) (*types.Proposal, error) {
	var proposal types.Proposal
	err := lockRow(tx, tx.NewSelect().Model(&proposal).Where("id = ?", proposalID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil //nolint:nilnil // a missing proposal was promoted or never existed
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return &proposal, nil
}

// SlugExistsWithTx checks whether an open proposal already uses slug.
func (r *ProposalModel) SlugExistsWithTx(ctx context.Context, tx bun.IDB, slug string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.Proposal)(nil)).
		Where("slug = ?", slug).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check proposal slug: %w", err)
	}
	return exists, nil
}

// DeleteProposalWithTx destroys a proposal. Returns true if a row was removed.
func (r *ProposalModel) DeleteProposalWithTx(ctx context.Context, tx bun.IDB, proposalID int64) (bool, error) {
	result, err := tx.NewDelete().
		Model((*types.Proposal)(nil)).
		Where("id = ?", proposalID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete proposal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// GetProposals lists open proposals, highest value first.
func (r *ProposalModel) GetProposals(ctx context.Context, limit int) ([]*types.Proposal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Proposal, error) {
		var proposals []*types.Proposal
		err := r.db.NewSelect().
			Model(&proposals).
			Order("value DESC", "id").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get proposals: %w", err)
		}
		return proposals, nil
	})
}
