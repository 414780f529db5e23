package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ZoneModel handles database operations for zones.
type ZoneModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewZone creates a new ZoneModel instance.
func NewZone(db *bun.DB, logger *zap.Logger) *ZoneModel {
	return &ZoneModel{
		db:     db,
		logger: logger.Named("db_zone"),
	}
}

// CreateZoneWithTx inserts a zone. A slug collision returns ErrNameTaken.
func (r *ZoneModel) CreateZoneWithTx(ctx context.Context, tx bun.IDB, zone *types.Zone) error {
	_, err := tx.NewInsert().Model(zone).Exec(ctx)
	if err != nil {
		if dbretry.IsUniqueViolation(err) {
			return types.ErrNameTaken
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

// CreatePromotedZoneWithTx inserts a zone whose slug was picked as free earlier in the same
// transaction. A collision means a concurrent writer took it meanwhile, so it returns
// dbretry.ErrConflict and the transaction is retried with a fresh suffix.
func (r *ZoneModel) CreatePromotedZoneWithTx(ctx context.Context, tx bun.IDB, zone *types.Zone) error {
	_, err := tx.NewInsert().Model(zone).Exec(ctx)
	if err != nil {
		if dbretry.IsUniqueViolation(err) {
			return fmt.Errorf("zone slug %q taken concurrently: %w", zone.Slug, dbretry.ErrConflict)
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

// GetZoneByID retrieves a zone by its ID.
func (r *ZoneModel) GetZoneByID(ctx context.Context, zoneID int64) (*types.Zone, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Zone, error) {
		return r.GetZoneByIDWithTx(ctx, r.db, zoneID, false)
	})
}

// GetZoneByIDWithTx retrieves a zone using the provided transaction, optionally locking the row.
func (r *ZoneModel) GetZoneByIDWithTx(ctx context.Context, tx bun.IDB, zoneID int64, lock bool) (*types.Zone, error) {
	var zone types.Zone
	err := lockRow(tx, tx.NewSelect().Model(&zone).Where("id = ?", zoneID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, types.ErrZoneNotFound
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return &zone, nil
}

// GetZoneBySlug retrieves a zone by its slug.
func (r *ZoneModel) GetZoneBySlug(ctx context.Context, slug string) (*types.Zone, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Zone, error) {
		var zone types.Zone
		err := r.db.NewSelect().Model(&zone).Where("slug = ?", slug).Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, types.ErrZoneNotFound
			}
			return nil, fmt.Errorf("failed to get zone by slug: %w", err)
		}
		return &zone, nil
	})
}

// SlugExistsWithTx checks whether a zone already uses slug.
func (r *ZoneModel) SlugExistsWithTx(ctx context.Context, tx bun.IDB, slug string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.Zone)(nil)).
		Where("slug = ?", slug).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check zone slug: %w", err)
	}
	return exists, nil
}

// UpdateInfoWithTx stores a zone's editable texts.
func (r *ZoneModel) UpdateInfoWithTx(ctx context.Context, tx bun.IDB, zone *types.Zone) error {
	_, err := tx.NewUpdate().
		Model(zone).
		Column("description", "information").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update zone info: %w", err)
	}
	return nil
}

// UpdateReputationWithTx stores a zone's rolling vote and score signals.
func (r *ZoneModel) UpdateReputationWithTx(ctx context.Context, tx bun.IDB, zone *types.Zone) error {
	_, err := tx.NewUpdate().
		Model(zone).
		Column("vote_ewma", "score_ewma").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update zone reputation: %w", err)
	}
	return nil
}

// RecountSizeWithTx sets a zone's size to the number of its subscription rows.
func (r *ZoneModel) RecountSizeWithTx(ctx context.Context, tx bun.IDB, zoneID int64) (int, error) {
	count, err := tx.NewSelect().
		Model((*types.ZoneSubscription)(nil)).
		Where("zone_id = ?", zoneID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	_, err = tx.NewUpdate().
		Model((*types.Zone)(nil)).
		Set("size = ?", count).
		Where("id = ?", zoneID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update zone size: %w", err)
	}

	return count, nil
}

// RecountSize is RecountSizeWithTx in its own transaction.
func (r *ZoneModel) RecountSize(ctx context.Context, zoneID int64) (int, error) {
	return dbretry.TransactionResult(ctx, r.db, func(ctx context.Context, tx bun.Tx) (int, error) {
		if _, err := r.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
			return 0, err
		}
		return r.RecountSizeWithTx(ctx, tx, zoneID)
	})
}

// GetZoneIDs returns up to limit zone IDs greater than afterID in ascending order.
func (r *ZoneModel) GetZoneIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]int64, error) {
		var ids []int64
		err := r.db.NewSelect().
			Model((*types.Zone)(nil)).
			Column("id").
			Where("id > ?", afterID).
			Order("id").
			Limit(limit).
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get zone ids: %w", err)
		}
		return ids, nil
	})
}

// GetZones lists zones ordered by size, largest first.
func (r *ZoneModel) GetZones(ctx context.Context, limit int) ([]*types.Zone, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Zone, error) {
		var zones []*types.Zone
		err := r.db.NewSelect().
			Model(&zones).
			Order("size DESC", "id").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get zones: %w", err)
		}
		return zones, nil
	})
}
