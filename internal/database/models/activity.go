package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ActivityModel handles database operations for the governance activity log.
type ActivityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewActivity creates a new ActivityModel instance.
func NewActivity(db *bun.DB, logger *zap.Logger) *ActivityModel {
	return &ActivityModel{
		db:     db,
		logger: logger.Named("db_activity"),
	}
}

// LogWithTx stores an activity inside the caller's transaction so that it commits or
// rolls back together with the change it describes.
func (r *ActivityModel) LogWithTx(ctx context.Context, tx bun.IDB, log *types.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	if _, err := tx.NewInsert().Model(log).Exec(ctx); err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	r.logger.Debug("Logged activity",
		zap.String("activityType", log.ActivityType.String()),
		zap.Int64("actorID", log.ActorID),
		zap.String("targetKind", log.TargetKind),
		zap.Int64("targetID", log.TargetID),
		zap.Int64("zoneID", log.ZoneID))

	return nil
}

// GetLogs retrieves the newest activity logs matching filter.
func (r *ActivityModel) GetLogs(ctx context.Context, filter types.ActivityFilter, limit int) ([]*types.ActivityLog, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ActivityLog, error) {
		var logs []*types.ActivityLog
		query := r.db.NewSelect().Model(&logs)

		if filter.ActorID != 0 {
			query = query.Where("actor_id = ?", filter.ActorID)
		}
		if filter.ZoneID != 0 {
			query = query.Where("zone_id = ?", filter.ZoneID)
		}
		if filter.ActivityType != enum.ActivityTypeAll {
			query = query.Where("activity_type = ?", filter.ActivityType)
		}

		err := query.
			Order("created_at DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get activity logs: %w", err)
		}
		return logs, nil
	})
}
