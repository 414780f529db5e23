package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles database operations for user accounts.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a new UserModel instance.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// CreateUser inserts a new account. A username collision returns ErrNameTaken.
func (r *UserModel) CreateUser(ctx context.Context, user *types.User) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(user).Exec(ctx)
		if err != nil {
			if dbretry.IsUniqueViolation(err) {
				return types.ErrNameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetUserByID retrieves a user by their ID.
func (r *UserModel) GetUserByID(ctx context.Context, userID int64) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		return r.GetUserByIDWithTx(ctx, r.db, userID, false)
	})
}

// GetUserByIDWithTx retrieves a user using the provided transaction, optionally locking the row.
func (r *UserModel) GetUserByIDWithTx(ctx context.Context, tx bun.IDB, userID int64, lock bool) (*types.User, error) {
	var user types.User
	err := lockRow(tx, tx.NewSelect().Model(&user).Where("id = ?", userID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUsersByIDsWithTx retrieves several users in one query, locked in ID order.
func (r *UserModel) GetUsersByIDsWithTx(
	ctx context.Context, tx bun.IDB, userIDs []int64, lock bool,
) (map[int64]*types.User, error) {
	var users []*types.User
	err := lockRow(tx, tx.NewSelect().
		Model(&users).
		Where("id IN (?)", bun.In(userIDs)).
		Order("id"), lock).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	result := make(map[int64]*types.User, len(users))
	for _, user := range users {
		result[user.ID] = user
	}
	for _, id := range userIDs {
		if _, ok := result[id]; !ok {
			return nil, fmt.Errorf("%w: %d", types.ErrUserNotFound, id)
		}
	}
	return result, nil
}

// UpdateVoteEWMAWithTx stores a user's rolling vote aggressiveness.
func (r *UserModel) UpdateVoteEWMAWithTx(ctx context.Context, tx bun.IDB, userID int64, ewma float64) error {
	_, err := tx.NewUpdate().
		Model((*types.User)(nil)).
		Set("vote_ewma = ?", ewma).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user vote ewma: %w", err)
	}
	return nil
}

// UpdateStandingWithTx stores the account flags and username of a user.
func (r *UserModel) UpdateStandingWithTx(ctx context.Context, tx bun.IDB, user *types.User) error {
	_, err := tx.NewUpdate().
		Model(user).
		Column("username", "is_active", "is_rejected", "is_erased").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user standing: %w", err)
	}
	return nil
}

// CountUsers returns the number of registered users.
func (r *UserModel) CountUsers(ctx context.Context) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		return r.CountUsersWithTx(ctx, r.db)
	})
}

// CountUsersWithTx returns the number of registered users using the provided transaction.
func (r *UserModel) CountUsersWithTx(ctx context.Context, tx bun.IDB) (int, error) {
	count, err := tx.NewSelect().Model((*types.User)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
