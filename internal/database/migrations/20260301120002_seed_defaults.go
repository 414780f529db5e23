package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
)

// The first rows of users and zones are the sentinels referenced by default_user_id and
// default_zone_id. Erased submissions are reassigned to them and the default zone is the
// reference every base score is measured against.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			user := &types.User{Username: "zoonas", IsActive: false}
			if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed default user: %w", err)
			}

			zone := &types.Zone{Slug: "all", Name: "All", Description: "Everything posted anywhere."}
			if _, err := tx.NewInsert().Model(zone).Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed default zone: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewDelete().Model((*types.Zone)(nil)).Where("slug = ?", "all").Exec(ctx); err != nil {
			return fmt.Errorf("failed to remove default zone: %w", err)
		}
		if _, err := db.NewDelete().Model((*types.User)(nil)).Where("username = ?", "zoonas").Exec(ctx); err != nil {
			return fmt.Errorf("failed to remove default user: %w", err)
		}
		return nil
	})
}
