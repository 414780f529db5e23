package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/pkg/utils"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserService handles account creation and standing changes.
type UserService struct {
	db       *bun.DB
	users    *models.UserModel
	zones    *models.ZoneModel
	perms    *models.PermissionModel
	subs     *models.SubscriptionModel
	activity *models.ActivityModel
	settings Settings
	logger   *zap.Logger
}

// NewUser creates a new user service.
func NewUser(
	db *bun.DB,
	users *models.UserModel,
	zones *models.ZoneModel,
	perms *models.PermissionModel,
	subs *models.SubscriptionModel,
	activity *models.ActivityModel,
	settings Settings,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		db:       db,
		users:    users,
		zones:    zones,
		perms:    perms,
		subs:     subs,
		activity: activity,
		settings: settings,
		logger:   logger.Named("user_service"),
	}
}

// CreateUser registers a new account.
func (s *UserService) CreateUser(ctx context.Context, username string, isSuperuser bool) (*types.User, error) {
	username = utils.CleanName(username)
	if username == "-" || strings.Contains(username, " ") || utf8.RuneCountInString(username) > UsernameMaxLength {
		return nil, fmt.Errorf("%w: username must be 1 to %d characters without spaces",
			types.ErrInvalidInput, UsernameMaxLength)
	}

	user := &types.User{
		Username:    username,
		IsActive:    true,
		IsSuperuser: isSuperuser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.Int64("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// CountUsers returns the number of registered users.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	return s.users.CountUsers(ctx)
}

// Ban rejects a user and strips every moderator permission they hold.
// Votes they already cast keep the standing they had at the time.
func (s *UserService) Ban(ctx context.Context, userID, actorID int64) error {
	return dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.standingTargetWithTx(ctx, tx, userID, actorID, false)
		if err != nil {
			return err
		}

		user.Rejected = user.Reject()
		user.IsActive = false
		if err := s.users.UpdateStandingWithTx(ctx, tx, user); err != nil {
			return err
		}

		zoneIDs, err := s.perms.DeleteUserPermissionsWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		s.logger.Info("User banned", zap.Int64("userID", userID), zap.Int64s("zoneIDs", zoneIDs))

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeUserBanned,
			TargetKind:   "user",
			TargetID:     userID,
			Details:      map[string]any{"zones": zoneIDs},
		})
	})
}

// Allow lifts a user's rejection. It does not restore permissions or change past votes.
func (s *UserService) Allow(ctx context.Context, userID, actorID int64) error {
	return dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.standingTargetWithTx(ctx, tx, userID, actorID, false)
		if err != nil {
			return err
		}

		user.Rejected = user.Rejected.Allow()
		user.IsActive = !user.IsErased
		if err := s.users.UpdateStandingWithTx(ctx, tx, user); err != nil {
			return err
		}

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeUserAllowed,
			TargetKind:   "user",
			TargetID:     userID,
		})
	})
}

// Erase anonymizes an account, removes its subscriptions and permissions, and
// deactivates it. Users may erase themselves; global admins may erase anyone.
func (s *UserService) Erase(ctx context.Context, userID, actorID int64) error {
	return dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.standingTargetWithTx(ctx, tx, userID, actorID, true)
		if err != nil {
			return err
		}

		zoneIDs, err := s.subs.DeleteUserSubscriptionsWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, zoneID := range zoneIDs {
			if _, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, true); err != nil {
				return err
			}
			if _, err := s.zones.RecountSizeWithTx(ctx, tx, zoneID); err != nil {
				return err
			}
		}

		if _, err := s.perms.DeleteUserPermissionsWithTx(ctx, tx, userID); err != nil {
			return err
		}

		user.Username = "erased-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		user.IsActive = false
		user.Erased = user.Erase()
		if err := s.users.UpdateStandingWithTx(ctx, tx, user); err != nil {
			return err
		}

		s.logger.Info("User erased", zap.Int64("userID", userID), zap.Int("subscriptions", len(zoneIDs)))

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeUserErased,
			TargetKind:   "user",
			TargetID:     userID,
		})
	})
}

// standingTargetWithTx loads and locks the user whose standing actorID wants to change.
// The sentinel default user can never be changed.
func (s *UserService) standingTargetWithTx(
	ctx context.Context, tx bun.IDB, userID, actorID int64, allowSelf bool,
) (*types.User, error) {
	if userID == s.settings.DefaultUserID {
		return nil, fmt.Errorf("%w: the default user cannot be changed", types.ErrInvalidInput)
	}

	if !allowSelf || userID != actorID {
		actor, err := s.users.GetUserByIDWithTx(ctx, tx, actorID, false)
		if err != nil {
			return nil, err
		}
		if !actor.IsSuperuser {
			return nil, types.ErrNotAuthorized
		}
	}

	return s.users.GetUserByIDWithTx(ctx, tx, userID, true)
}
