package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PermissionModel handles database operations for zone moderator permissions.
type PermissionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPermission creates a new PermissionModel instance.
func NewPermission(db *bun.DB, logger *zap.Logger) *PermissionModel {
	return &PermissionModel{
		db:     db,
		logger: logger.Named("db_permission"),
	}
}

// GetPermissionWithTx returns the user's permission in a zone, or nil if they have none.
func (r *PermissionModel) GetPermissionWithTx(
	ctx context.Context, tx bun.IDB, zoneID, userID int64,
) (*types.ZonePermission, error) {
	var perm types.ZonePermission
	err := tx.NewSelect().
		Model(&perm).
		Where("zone_id = ?", zoneID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil //nolint:nilnil // no permission is not an error
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &perm, nil
}

// GetPermission is GetPermissionWithTx outside a transaction.
func (r *PermissionModel) GetPermission(ctx context.Context, zoneID, userID int64) (*types.ZonePermission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ZonePermission, error) {
		return r.GetPermissionWithTx(ctx, r.db, zoneID, userID)
	})
}

// GetZonePermissions lists a zone's moderators, most senior first.
func (r *PermissionModel) GetZonePermissions(ctx context.Context, zoneID int64) ([]*types.ZonePermission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ZonePermission, error) {
		var perms []*types.ZonePermission
		err := r.db.NewSelect().
			Model(&perms).
			Where("zone_id = ?", zoneID).
			Order("created_at", "id").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get zone permissions: %w", err)
		}
		return perms, nil
	})
}

// GetUserPermissions lists the permissions a user holds across zones.
func (r *PermissionModel) GetUserPermissions(ctx context.Context, userID int64) ([]*types.ZonePermission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ZonePermission, error) {
		var perms []*types.ZonePermission
		err := r.db.NewSelect().
			Model(&perms).
			Where("user_id = ?", userID).
			Order("zone_id").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get user permissions: %w", err)
		}
		return perms, nil
	})
}

// CountZonePermissionsWithTx returns the number of moderators of a zone.
func (r *PermissionModel) CountZonePermissionsWithTx(ctx context.Context, tx bun.IDB, zoneID int64) (int, error) {
	count, err := tx.NewSelect().
		Model((*types.ZonePermission)(nil)).
		Where("zone_id = ?", zoneID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count zone permissions: %w", err)
	}
	return count, nil
}

// CreatePermissionWithTx inserts a permission row. An existing row returns ErrAlreadyModerator.
func (r *PermissionModel) CreatePermissionWithTx(ctx context.Context, tx bun.IDB, perm *types.ZonePermission) error {
	_, err := tx.NewInsert().Model(perm).Exec(ctx)
	if err != nil {
		if dbretry.IsUniqueViolation(err) {
			return types.ErrAlreadyModerator
		}
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

// DeletePermissionWithTx removes a user's permission in a zone.
// Returns true if a row was removed.
func (r *PermissionModel) DeletePermissionWithTx(ctx context.Context, tx bun.IDB, zoneID, userID int64) (bool, error) {
	result, err := tx.NewDelete().
		Model((*types.ZonePermission)(nil)).
		Where("zone_id = ?", zoneID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete permission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteUserPermissionsWithTx removes every permission a user holds and returns the zones
// they were removed from.
func (r *PermissionModel) DeleteUserPermissionsWithTx(ctx context.Context, tx bun.IDB, userID int64) ([]int64, error) {
	var zoneIDs []int64
	err := tx.NewSelect().
		Model((*types.ZonePermission)(nil)).
		Column("zone_id").
		Where("user_id = ?", userID).
		Order("zone_id").
		Scan(ctx, &zoneIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permission zones: %w", err)
	}

	_, err = tx.NewDelete().
		Model((*types.ZonePermission)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user permissions: %w", err)
	}

	return zoneIDs, nil
}
