package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SubscriptionModel handles database operations for zone subscriptions.
type SubscriptionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSubscription creates a new SubscriptionModel instance.
func NewSubscription(db *bun.DB, logger *zap.Logger) *SubscriptionModel {
	return &SubscriptionModel{
		db:     db,
		logger: logger.Named("db_subscription"),
	}
}

// IsSubscribedWithTx checks whether a user follows a zone.
func (r *SubscriptionModel) IsSubscribedWithTx(ctx context.Context, tx bun.IDB, zoneID, userID int64) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.ZoneSubscription)(nil)).
		Where("zone_id = ?", zoneID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}

// IsSubscribed is IsSubscribedWithTx outside a transaction.
func (r *SubscriptionModel) IsSubscribed(ctx context.Context, zoneID, userID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return r.IsSubscribedWithTx(ctx, r.db, zoneID, userID)
	})
}

// CountUserSubscriptionsWithTx returns how many zones a user follows.
func (r *SubscriptionModel) CountUserSubscriptionsWithTx(ctx context.Context, tx bun.IDB, userID int64) (int, error) {
	count, err := tx.NewSelect().
		Model((*types.ZoneSubscription)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count user subscriptions: %w", err)
	}
	return count, nil
}

// CreateSubscriptionWithTx inserts a subscription, doing nothing if it already exists.
// Returns true if a row was inserted.
func (r *SubscriptionModel) CreateSubscriptionWithTx(
	ctx context.Context, tx bun.IDB, sub *types.ZoneSubscription,
) (bool, error) {
	result, err := tx.NewInsert().
		Model(sub).
		On("CONFLICT (user_id, zone_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteSubscriptionWithTx removes a subscription. Returns true if a row was removed.
func (r *SubscriptionModel) DeleteSubscriptionWithTx(ctx context.Context, tx bun.IDB, zoneID, userID int64) (bool, error) {
	result, err := tx.NewDelete().
		Model((*types.ZoneSubscription)(nil)).
		Where("zone_id = ?", zoneID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteUserSubscriptionsWithTx removes every subscription of a user and returns the
// zones they left, in ascending order.
func (r *SubscriptionModel) DeleteUserSubscriptionsWithTx(ctx context.Context, tx bun.IDB, userID int64) ([]int64, error) {
	var zoneIDs []int64
	err := tx.NewSelect().
		Model((*types.ZoneSubscription)(nil)).
		Column("zone_id").
		Where("user_id = ?", userID).
		Order("zone_id").
		Scan(ctx, &zoneIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get user subscription zones: %w", err)
	}

	_, err = tx.NewDelete().
		Model((*types.ZoneSubscription)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user subscriptions: %w", err)
	}

	return zoneIDs, nil
}

// GetUserSubscriptions lists the zones a user follows in display order.
func (r *SubscriptionModel) GetUserSubscriptions(ctx context.Context, userID int64) ([]*types.ZoneSubscription, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ZoneSubscription, error) {
		var subs []*types.ZoneSubscription
		err := r.db.NewSelect().
			Model(&subs).
			Where("user_id = ?", userID).
			Order("display_order", "id").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get user subscriptions: %w", err)
		}
		return subs, nil
	})
}
