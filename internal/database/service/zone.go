package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/pkg/utils"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ZoneService handles zone creation, subscriptions and moderator permissions.
type ZoneService struct {
	db       *bun.DB
	users    *models.UserModel
	zones    *models.ZoneModel
	perms    *models.PermissionModel
	subs     *models.SubscriptionModel
	activity *models.ActivityModel
	settings Settings
	logger   *zap.Logger
}

// NewZone creates a new zone service.
func NewZone(
	db *bun.DB,
	users *models.UserModel,
	zones *models.ZoneModel,
	perms *models.PermissionModel,
	subs *models.SubscriptionModel,
	activity *models.ActivityModel,
	settings Settings,
	logger *zap.Logger,
) *ZoneService {
	return &ZoneService{
		db:       db,
		users:    users,
		zones:    zones,
		perms:    perms,
		subs:     subs,
		activity: activity,
		settings: settings,
		logger:   logger.Named("zone_service"),
	}
}

// CreateZone creates a zone directly. Only global admins may do this; everyone else goes
// through a proposal. The actor becomes the zone's founder.
func (s *ZoneService) CreateZone(
	ctx context.Context, actorID int64, name, description string,
) (zone *types.Zone, err error) {
	ctx, span := startSpan(ctx, "ZoneService.CreateZone", attribute.Int64("actorID", actorID))
	defer func() { endSpan(span, err) }()

	if err := validateZoneTexts(name, description); err != nil {
		return nil, err
	}

	return dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*types.Zone, error) {
		actor, err := s.users.GetUserByIDWithTx(ctx, tx, actorID, false)
		if err != nil {
			return nil, err
		}
		if !actor.IsSuperuser {
			return nil, types.ErrNotAuthorized
		}

		return s.createZoneWithTx(ctx, tx, name, description, actorID, false)
	})
}

// createZoneWithTx inserts a zone and installs its founder. When uniqueSlug is set a
// taken slug gets a numeric suffix, otherwise it fails with ErrNameTaken.
func (s *ZoneService) createZoneWithTx(
	ctx context.Context, tx bun.IDB, name, description string, founderID int64, uniqueSlug bool,
) (*types.Zone, error) {
	name, slug := utils.CleanSlug(name)

	exists, err := s.zones.SlugExistsWithTx(ctx, tx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		if !uniqueSlug {
			return nil, types.ErrNameTaken
		}
		if slug, err = s.availableSlugWithTx(ctx, tx, slug); err != nil {
			return nil, err
		}
	}

	reference, err := s.zones.GetZoneByIDWithTx(ctx, tx, s.settings.DefaultZoneID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference zone: %w", err)
	}

	zone := &types.Zone{
		Slug:        slug,
		Name:        name,
		Description: utils.Truncate(description, ZoneDescriptionMaxLength),
	}
	zone.BaseScore = s.settings.Policy.BaseScore(zone.ScoreEWMA, reference.ScoreEWMA)
	zone.ZoneScore = zone.BaseScore
	zone.GlobalScore = zone.BaseScore

	create := s.zones.CreateZoneWithTx
	if uniqueSlug {
		create = s.zones.CreatePromotedZoneWithTx
	}
	if err := create(ctx, tx, zone); err != nil {
		return nil, err
	}

	err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
		ActorID:      founderID,
		ActivityType: enum.ActivityTypeZoneCreated,
		TargetKind:   enum.ItemKindZone.String(),
		TargetID:     zone.ID,
		ZoneID:       zone.ID,
		Details:      map[string]any{"slug": zone.Slug, "name": zone.Name},
	})
	if err != nil {
		return nil, err
	}

	if err := s.AddFounderWithTx(ctx, tx, zone, founderID); err != nil {
		return nil, err
	}

	s.logger.Info("Zone created",
		zap.Int64("zoneID", zone.ID),
		zap.String("slug", zone.Slug),
		zap.Int64("founderID", founderID))

	return zone, nil
}

// availableSlugWithTx returns the first of slug-2, slug-3, ... that no zone uses.
func (s *ZoneService) availableSlugWithTx(ctx context.Context, tx bun.IDB, slug string) (string, error) {
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", slug, i)
		exists, err := s.zones.SlugExistsWithTx(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// AddFounderWithTx makes userID the first moderator of a brand-new zone and subscribes
// them to it. None of the grant preconditions apply.
func (s *ZoneService) AddFounderWithTx(ctx context.Context, tx bun.IDB, zone *types.Zone, userID int64) error {
	perm := &types.ZonePermission{
		ZoneID:    zone.ID,
		UserID:    userID,
		IsAdmin:   true,
		CreatedAt: time.Now(),
	}
	if err := s.perms.CreatePermissionWithTx(ctx, tx, perm); err != nil {
		return err
	}

	count, err := s.subs.CountUserSubscriptionsWithTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if _, err := s.subs.CreateSubscriptionWithTx(ctx, tx, &types.ZoneSubscription{
		ZoneID:       zone.ID,
		UserID:       userID,
		DisplayOrder: count,
	}); err != nil {
		return err
	}

	zone.Size, err = s.zones.RecountSizeWithTx(ctx, tx, zone.ID)
	if err != nil {
		return err
	}

	return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
		ActorID:      userID,
		ActivityType: enum.ActivityTypeFounderAdded,
		TargetKind:   "user",
		TargetID:     userID,
		ZoneID:       zone.ID,
	})
}

// UpdateZone changes a zone's description and information. Moderators and global
// admins may do this.
func (s *ZoneService) UpdateZone(
	ctx context.Context, zoneID, actorID int64, description, information string,
) (*types.Zone, error) {
	if utf8.RuneCountInString(description) > ZoneDescriptionMaxLength ||
		utf8.RuneCountInString(information) > ZoneInformationMaxLength {
		return nil, fmt.Errorf("%w: zone text too long", types.ErrInvalidInput)
	}

	return dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*types.Zone, error) {
		zone, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true)
		if err != nil {
			return nil, err
		}

		if err := s.authorizeModeratorWithTx(ctx, tx, zoneID, actorID); err != nil {
			return nil, err
		}

		zone.Description = description
		zone.Information = information
		if err := s.zones.UpdateInfoWithTx(ctx, tx, zone); err != nil {
			return nil, err
		}

		err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeZoneUpdated,
			TargetKind:   enum.ItemKindZone.String(),
			TargetID:     zoneID,
			ZoneID:       zoneID,
		})
		if err != nil {
			return nil, err
		}

		return zone, nil
	})
}

// Subscribe makes userID follow a zone and returns the zone's new size.
// Subscribing twice is a no-op apart from recounting the size.
func (s *ZoneService) Subscribe(ctx context.Context, zoneID, userID int64) (size int, err error) {
	ctx, span := startSpan(ctx, "ZoneService.Subscribe",
		attribute.Int64("zoneID", zoneID),
		attribute.Int64("userID", userID))
	defer func() { endSpan(span, err) }()

	return dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (int, error) {
		if _, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
			return 0, err
		}
		if _, err := s.users.GetUserByIDWithTx(ctx, tx, userID, true); err != nil {
			return 0, err
		}

		subscribed, err := s.subs.IsSubscribedWithTx(ctx, tx, zoneID, userID)
		if err != nil {
			return 0, err
		}

		if !subscribed {
			count, err := s.subs.CountUserSubscriptionsWithTx(ctx, tx, userID)
			if err != nil {
				return 0, err
			}
			if count >= s.settings.SubscriptionLimit {
				s.logger.Debug("Subscription limit reached",
					zap.Int64("zoneID", zoneID),
					zap.Int64("userID", userID),
					zap.Int("count", count))
				return 0, types.ErrSubscriptionLimit
			}

			_, err = s.subs.CreateSubscriptionWithTx(ctx, tx, &types.ZoneSubscription{
				ZoneID:       zoneID,
				UserID:       userID,
				DisplayOrder: count,
			})
			if err != nil {
				return 0, err
			}

			err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
				ActorID:      userID,
				ActivityType: enum.ActivityTypeSubscribed,
				TargetKind:   enum.ItemKindZone.String(),
				TargetID:     zoneID,
				ZoneID:       zoneID,
			})
			if err != nil {
				return 0, err
			}
		}

		return s.zones.RecountSizeWithTx(ctx, tx, zoneID)
	})
}

// Unsubscribe makes userID stop following a zone and returns the zone's new size.
// Unsubscribing a non-subscriber is a no-op apart from recounting the size.
func (s *ZoneService) Unsubscribe(ctx context.Context, zoneID, userID int64) (size int, err error) {
	ctx, span := startSpan(ctx, "ZoneService.Unsubscribe",
		attribute.Int64("zoneID", zoneID),
		attribute.Int64("userID", userID))
	defer func() { endSpan(span, err) }()

	return dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (int, error) {
		if _, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
			return 0, err
		}

		deleted, err := s.subs.DeleteSubscriptionWithTx(ctx, tx, zoneID, userID)
		if err != nil {
			return 0, err
		}

		if deleted {
			err = s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
				ActorID:      userID,
				ActivityType: enum.ActivityTypeUnsubscribed,
				TargetKind:   enum.ItemKindZone.String(),
				TargetID:     zoneID,
				ZoneID:       zoneID,
			})
			if err != nil {
				return 0, err
			}
		}

		return s.zones.RecountSizeWithTx(ctx, tx, zoneID)
	})
}

// GrantPermission makes targetID a moderator of a zone on behalf of actorID.
// Every precondition is checked under the zone's row lock before anything is written.
func (s *ZoneService) GrantPermission(ctx context.Context, zoneID, targetID, actorID int64) (err error) {
	ctx, span := startSpan(ctx, "ZoneService.GrantPermission",
		attribute.Int64("zoneID", zoneID),
		attribute.Int64("targetID", targetID),
		attribute.Int64("actorID", actorID))
	defer func() { endSpan(span, err) }()

	err = dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
			return err
		}

		if err := s.authorizeModeratorWithTx(ctx, tx, zoneID, actorID); err != nil {
			return err
		}

		count, err := s.perms.CountZonePermissionsWithTx(ctx, tx, zoneID)
		if err != nil {
			return err
		}
		if count >= s.settings.ModeratorLimit {
			return types.ErrLimitExceeded
		}

		target, err := s.users.GetUserByIDWithTx(ctx, tx, targetID, false)
		if err != nil {
			return err
		}
		if err := target.IsEligibleModerator(); err != nil {
			return err
		}

		existing, err := s.perms.GetPermissionWithTx(ctx, tx, zoneID, targetID)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.ErrAlreadyModerator
		}

		err = s.perms.CreatePermissionWithTx(ctx, tx, &types.ZonePermission{
			ZoneID:    zoneID,
			UserID:    targetID,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypePermissionGranted,
			TargetKind:   "user",
			TargetID:     targetID,
			ZoneID:       zoneID,
		})
	})
	if err != nil {
		s.logger.Debug("Permission grant refused",
			zap.Error(err),
			zap.Int64("zoneID", zoneID),
			zap.Int64("targetID", targetID),
			zap.Int64("actorID", actorID))
		return err
	}

	s.logger.Info("Permission granted",
		zap.Int64("zoneID", zoneID),
		zap.Int64("targetID", targetID),
		zap.Int64("actorID", actorID))

	return nil
}

// RevokePermission removes targetID's moderator rights on behalf of actorID. Moderators
// may only revoke themselves or juniors; global admins may revoke anyone. Revoking a
// non-moderator fails with ErrNotModerator.
func (s *ZoneService) RevokePermission(ctx context.Context, zoneID, targetID, actorID int64) (err error) {
	ctx, span := startSpan(ctx, "ZoneService.RevokePermission",
		attribute.Int64("zoneID", zoneID),
		attribute.Int64("targetID", targetID),
		attribute.Int64("actorID", actorID))
	defer func() { endSpan(span, err) }()

	err = dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
			return err
		}

		actor, err := s.users.GetUserByIDWithTx(ctx, tx, actorID, false)
		if err != nil {
			return err
		}

		if !actor.IsSuperuser {
			actorPerm, err := s.perms.GetPermissionWithTx(ctx, tx, zoneID, actorID)
			if err != nil {
				return err
			}
			if actorPerm == nil {
				return types.ErrNotAuthorized
			}

			superior, err := s.isSuperiorWithTx(ctx, tx, zoneID, actorID, targetID)
			if err != nil {
				return err
			}
			if !superior {
				return types.ErrNotAuthorized
			}
		}

		deleted, err := s.perms.DeletePermissionWithTx(ctx, tx, zoneID, targetID)
		if err != nil {
			return err
		}
		if !deleted {
			return types.ErrNotModerator
		}

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypePermissionRevoked,
			TargetKind:   "user",
			TargetID:     targetID,
			ZoneID:       zoneID,
		})
	})
	if err != nil {
		s.logger.Debug("Permission revoke refused",
			zap.Error(err),
			zap.Int64("zoneID", zoneID),
			zap.Int64("targetID", targetID),
			zap.Int64("actorID", actorID))
		return err
	}

	s.logger.Info("Permission revoked",
		zap.Int64("zoneID", zoneID),
		zap.Int64("targetID", targetID),
		zap.Int64("actorID", actorID))

	return nil
}

// authorizeModeratorWithTx checks that actorID is a global admin or a moderator of the zone.
func (s *ZoneService) authorizeModeratorWithTx(ctx context.Context, tx bun.IDB, zoneID, actorID int64) error {
	actor, err := s.users.GetUserByIDWithTx(ctx, tx, actorID, false)
	if err != nil {
		return err
	}
	if actor.IsSuperuser {
		return nil
	}

	perm, err := s.perms.GetPermissionWithTx(ctx, tx, zoneID, actorID)
	if err != nil {
		return err
	}
	if perm == nil {
		return types.ErrNotAuthorized
	}
	return nil
}

// isSuperiorWithTx applies the seniority rule between two users of a zone.
func (s *ZoneService) isSuperiorWithTx(ctx context.Context, tx bun.IDB, zoneID, strongID, weakID int64) (bool, error) {
	if strongID == weakID {
		return true, nil
	}

	strong, err := s.perms.GetPermissionWithTx(ctx, tx, zoneID, strongID)
	if err != nil {
		return false, err
	}
	if strong == nil {
		return false, nil
	}

	weak, err := s.perms.GetPermissionWithTx(ctx, tx, zoneID, weakID)
	if err != nil {
		return false, err
	}
	if weak == nil {
		return true, nil
	}

	return strong.IsSeniorTo(weak), nil
}

// IsSuperior reports whether strongID outranks weakID in a zone.
func (s *ZoneService) IsSuperior(ctx context.Context, zoneID, strongID, weakID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return s.isSuperiorWithTx(ctx, s.db, zoneID, strongID, weakID)
	})
}

// IsSubscriber reports whether userID follows a zone.
func (s *ZoneService) IsSubscriber(ctx context.Context, zoneID, userID int64) (bool, error) {
	return s.subs.IsSubscribed(ctx, zoneID, userID)
}

// IsModerator reports whether userID holds a permission in a zone.
func (s *ZoneService) IsModerator(ctx context.Context, zoneID, userID int64) (bool, error) {
	perm, err := s.perms.GetPermission(ctx, zoneID, userID)
	if err != nil {
		return false, err
	}
	return perm != nil, nil
}

// IsAdmin reports whether userID holds an admin permission in a zone.
func (s *ZoneService) IsAdmin(ctx context.Context, zoneID, userID int64) (bool, error) {
	perm, err := s.perms.GetPermission(ctx, zoneID, userID)
	if err != nil {
		return false, err
	}
	return perm != nil && perm.IsAdmin, nil
}

// Permissions lists a zone's moderators, most senior first.
func (s *ZoneService) Permissions(ctx context.Context, zoneID int64) (*types.ZonePermissions, error) {
	zone, err := s.zones.GetZoneByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	perms, err := s.perms.GetZonePermissions(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	return &types.ZonePermissions{Zone: zone, Permissions: perms}, nil
}

// ModeratorCount returns the number of moderators of a zone.
func (s *ZoneService) ModeratorCount(ctx context.Context, zoneID int64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		return s.perms.CountZonePermissionsWithTx(ctx, s.db, zoneID)
	})
}

// GetZone retrieves a zone by ID.
func (s *ZoneService) GetZone(ctx context.Context, zoneID int64) (*types.Zone, error) {
	return s.zones.GetZoneByID(ctx, zoneID)
}

// GetZoneBySlug retrieves a zone by slug.
func (s *ZoneService) GetZoneBySlug(ctx context.Context, slug string) (*types.Zone, error) {
	return s.zones.GetZoneBySlug(ctx, slug)
}

// ListZones lists zones, largest first.
func (s *ZoneService) ListZones(ctx context.Context, limit int) ([]*types.Zone, error) {
	return s.zones.GetZones(ctx, limit)
}

// validateZoneTexts checks the lengths of a zone or proposal name and description.
func validateZoneTexts(name, description string) error {
	cleaned := utils.CleanName(name)
	if cleaned == "-" || utf8.RuneCountInString(cleaned) > ZoneNameMaxLength {
		return fmt.Errorf("%w: zone name must be 1 to %d characters", types.ErrInvalidInput, ZoneNameMaxLength)
	}
	if utf8.RuneCountInString(description) > ZoneDescriptionMaxLength {
		return fmt.Errorf("%w: description must be at most %d characters", types.ErrInvalidInput, ZoneDescriptionMaxLength)
	}
	return nil
}
