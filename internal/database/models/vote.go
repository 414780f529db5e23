package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// VoteModel handles database operations for the four vote ledgers.
type VoteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVote creates a new VoteModel instance.
func NewVote(db *bun.DB, logger *zap.Logger) *VoteModel {
	return &VoteModel{
		db:     db,
		logger: logger.Named("db_vote"),
	}
}

// ledger returns a nil pointer of the ledger table for kind, used to pick the table.
func ledger(kind enum.ItemKind) (any, error) {
	switch kind {
	case enum.ItemKindSubmission:
		return (*types.SubmissionVote)(nil), nil
	case enum.ItemKindComment:
		return (*types.CommentVote)(nil), nil
	case enum.ItemKindZone:
		return (*types.ZoneVote)(nil), nil
	case enum.ItemKindProposal:
		return (*types.ProposalVote)(nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown item kind %q", types.ErrInvalidInput, kind)
	}
}

// ledgerRow wraps a copy of vote in the ledger type for kind and returns the copy.
func ledgerRow(kind enum.ItemKind, vote *types.Vote) (any, *types.Vote, error) {
	switch kind {
	case enum.ItemKindSubmission:
		row := &types.SubmissionVote{Vote: *vote}
		return row, &row.Vote, nil
	case enum.ItemKindComment:
		row := &types.CommentVote{Vote: *vote}
		return row, &row.Vote, nil
	case enum.ItemKindZone:
		row := &types.ZoneVote{Vote: *vote}
		return row, &row.Vote, nil
	case enum.ItemKindProposal:
		row := &types.ProposalVote{Vote: *vote}
		return row, &row.Vote, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown item kind %q", types.ErrInvalidInput, kind)
	}
}

// applyFilter narrows a ledger query.
func applyFilter(q *bun.SelectQuery, filter types.VoteFilter) *bun.SelectQuery {
	if filter.Positive {
		q = q.Where("value > 0")
	}
	if filter.Negative {
		q = q.Where("value < 0")
	}
	if filter.PublicOnly {
		q = q.Where("is_private = ?", false)
	}
	if filter.ExcludeRejected {
		q = q.Where("is_rejected = ?", false)
	}
	return q
}

// GetVoteWithTx returns the voter's row for an item, or nil if they never voted on it.
func (r *VoteModel) GetVoteWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID, voterID int64,
) (*types.Vote, error) {
	model, err := ledger(kind)
	if err != nil {
		return nil, err
	}

	var vote types.Vote
	err = tx.NewSelect().
		Model(model).
		Column("*").
		Where("item_id = ?", itemID).
		Where("voter_id = ?", voterID).
		Scan(ctx, &vote)
	if err != nil {
		if isNoRows(err) {
			return nil, nil //nolint:nilnil // no vote is not an error
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

// GetVote is GetVoteWithTx outside a transaction.
func (r *VoteModel) GetVote(ctx context.Context, kind enum.ItemKind, itemID, voterID int64) (*types.Vote, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Vote, error) {
		return r.GetVoteWithTx(ctx, r.db, kind, itemID, voterID)
	})
}

// InsertVoteWithTx creates the voter's row for an item. Losing a race against a
// concurrent insert of the same row returns dbretry.ErrConflict.
func (r *VoteModel) InsertVoteWithTx(ctx context.Context, tx bun.IDB, kind enum.ItemKind, vote *types.Vote) error {
	now := time.Now()
	vote.CreatedAt = now
	vote.UpdatedAt = now

	row, inserted, err := ledgerRow(kind, vote)
	if err != nil {
		return err
	}

	_, err = tx.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		if dbretry.IsUniqueViolation(err) {
			return fmt.Errorf("failed to insert %s vote: %w", kind, dbretry.ErrConflict)
		}
		return fmt.Errorf("failed to insert %s vote: %w", kind, err)
	}
	vote.ID = inserted.ID

	return nil
}

// UpdateVoteValueWithTx stores a new value on an existing row.
func (r *VoteModel) UpdateVoteValueWithTx(ctx context.Context, tx bun.IDB, kind enum.ItemKind, vote *types.Vote) error {
	model, err := ledger(kind)
	if err != nil {
		return err
	}

	vote.UpdatedAt = time.Now()
	_, err = tx.NewUpdate().
		Model(model).
		Set("value = ?", vote.Value).
		Set("updated_at = ?", vote.UpdatedAt).
		Where("id = ?", vote.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s vote: %w", kind, err)
	}
	return nil
}

// GetVotesWithTx lists an item's ledger rows matching filter, oldest first.
func (r *VoteModel) GetVotesWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) ([]*types.Vote, error) {
	model, err := ledger(kind)
	if err != nil {
		return nil, err
	}

	var votes []*types.Vote
	err = applyFilter(tx.NewSelect().
		Model(model).
		Column("*").
		Where("item_id = ?", itemID), filter).
		Order("id").
		Scan(ctx, &votes)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s votes: %w", kind, err)
	}
	return votes, nil
}

// GetVotes is GetVotesWithTx outside a transaction.
func (r *VoteModel) GetVotes(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) ([]*types.Vote, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Vote, error) {
		return r.GetVotesWithTx(ctx, r.db, kind, itemID, filter)
	})
}

// GetVoteCountWithTx counts an item's ledger rows matching filter.
func (r *VoteModel) GetVoteCountWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (int, error) {
	model, err := ledger(kind)
	if err != nil {
		return 0, err
	}

	count, err := applyFilter(tx.NewSelect().
		Model(model).
		Where("item_id = ?", itemID), filter).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s votes: %w", kind, err)
	}
	return count, nil
}

// GetVoteCount is GetVoteCountWithTx outside a transaction.
func (r *VoteModel) GetVoteCount(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		return r.GetVoteCountWithTx(ctx, r.db, kind, itemID, filter)
	})
}

// GetValueAvgWithTx averages the values of an item's rows matching filter. No rows average to 0.
func (r *VoteModel) GetValueAvgWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (float64, error) {
	return r.aggregate(ctx, tx, kind, itemID, filter, "COALESCE(AVG(value), 0)")
}

// GetValueAvg is GetValueAvgWithTx outside a transaction.
func (r *VoteModel) GetValueAvg(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (float64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (float64, error) {
		return r.GetValueAvgWithTx(ctx, r.db, kind, itemID, filter)
	})
}

// GetValueSum sums the values of an item's rows matching filter.
func (r *VoteModel) GetValueSum(
	ctx context.Context, kind enum.ItemKind, itemID int64, filter types.VoteFilter,
) (float64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (float64, error) {
		return r.aggregate(ctx, r.db, kind, itemID, filter, "COALESCE(SUM(value), 0)")
	})
}

func (r *VoteModel) aggregate(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64, filter types.VoteFilter, expr string,
) (float64, error) {
	model, err := ledger(kind)
	if err != nil {
		return 0, err
	}

	var result float64
	err = applyFilter(tx.NewSelect().
		Model(model).
		ColumnExpr(expr).
		Where("item_id = ?", itemID), filter).
		Scan(ctx, &result)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate %s votes: %w", kind, err)
	}
	return result, nil
}

// DeleteItemVotesWithTx removes an item's whole ledger.
func (r *VoteModel) DeleteItemVotesWithTx(ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64) error {
	model, err := ledger(kind)
	if err != nil {
		return err
	}

	_, err = tx.NewDelete().
		Model(model).
		Where("item_id = ?", itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s votes: %w", kind, err)
	}
	return nil
}
