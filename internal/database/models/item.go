package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ItemModel loads and stores votable items regardless of their kind.
type ItemModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewItem creates a new ItemModel instance.
func NewItem(db *bun.DB, logger *zap.Logger) *ItemModel {
	return &ItemModel{
		db:     db,
		logger: logger.Named("db_item"),
	}
}

// GetItemWithTx loads a votable item, optionally locking its row.
func (r *ItemModel) GetItemWithTx(
	ctx context.Context, tx bun.IDB, kind enum.ItemKind, itemID int64, lock bool,
) (types.Votable, error) {
	item, err := types.NewVotable(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown item kind %q", err, kind)
	}

	err = lockRow(tx, tx.NewSelect().Model(item).Where("id = ?", itemID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s %d", types.ErrItemNotFound, kind, itemID)
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return item, nil
}

// GetItem is GetItemWithTx outside a transaction.
func (r *ItemModel) GetItem(ctx context.Context, kind enum.ItemKind, itemID int64) (types.Votable, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (types.Votable, error) {
		return r.GetItemWithTx(ctx, r.db, kind, itemID, false)
	})
}

// UpdateScoresWithTx stores an item's recomputed value and, for zone-scoped items,
// its ranking scores.
func (r *ItemModel) UpdateScoresWithTx(ctx context.Context, tx bun.IDB, item types.Votable) error {
	voted, scored := item.Scores()

	query := tx.NewUpdate().
		Model(item).
		Set("value = ?", voted.Value)
	if scored != nil {
		query = query.
			Set("zone_score = ?", scored.ZoneScore).
			Set("global_score = ?", scored.GlobalScore)
	}

	_, err := query.Where("id = ?", item.VotableID()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s scores: %w", item.VoteKind(), err)
	}
	return nil
}

// GetItemIDs returns up to limit IDs of kind greater than afterID in ascending order.
func (r *ItemModel) GetItemIDs(ctx context.Context, kind enum.ItemKind, afterID int64, limit int) ([]int64, error) {
	item, err := types.NewVotable(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown item kind %q", err, kind)
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]int64, error) {
		var ids []int64
		err := r.db.NewSelect().
			Model(item).
			Column("id").
			Where("id > ?", afterID).
			Order("id").
			Limit(limit).
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s ids: %w", kind, err)
		}
		return ids, nil
	})
}
