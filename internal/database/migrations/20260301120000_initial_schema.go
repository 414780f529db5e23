package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
)

func init() { //nolint:funlen
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []struct {
			model       any
			foreignKeys []string
		}{
			{(*types.User)(nil), nil},
			{(*types.Zone)(nil), nil},
			{(*types.ZonePermission)(nil), []string{
				"(zone_id) REFERENCES zones (id) ON DELETE CASCADE",
				"(user_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.ZoneSubscription)(nil), []string{
				"(zone_id) REFERENCES zones (id) ON DELETE CASCADE",
				"(user_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.Proposal)(nil), []string{
				"(author_id) REFERENCES users (id)",
			}},
			{(*types.Submission)(nil), []string{
				"(author_id) REFERENCES users (id)",
				"(zone_id) REFERENCES zones (id)",
			}},
			{(*types.Comment)(nil), []string{
				"(author_id) REFERENCES users (id)",
				"(submission_id) REFERENCES submissions (id) ON DELETE CASCADE",
				"(parent_id) REFERENCES comments (id) ON DELETE SET NULL",
			}},
			{(*types.SubmissionVote)(nil), []string{
				"(item_id) REFERENCES submissions (id) ON DELETE CASCADE",
				"(voter_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.CommentVote)(nil), []string{
				"(item_id) REFERENCES comments (id) ON DELETE CASCADE",
				"(voter_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.ZoneVote)(nil), []string{
				"(item_id) REFERENCES zones (id) ON DELETE CASCADE",
				"(voter_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.ProposalVote)(nil), []string{
				"(item_id) REFERENCES proposals (id) ON DELETE CASCADE",
				"(voter_id) REFERENCES users (id) ON DELETE CASCADE",
			}},
			{(*types.ActivityLog)(nil), nil},
		}

		for _, table := range tables {
			query := db.NewCreateTable().
				Model(table.model).
				IfNotExists()
			for _, fk := range table.foreignKeys {
				query = query.ForeignKey(fk)
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %T: %w", table.model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Children first so foreign keys never block a drop
		models := []any{
			(*types.ActivityLog)(nil),
			(*types.ProposalVote)(nil),
			(*types.ZoneVote)(nil),
			(*types.CommentVote)(nil),
			(*types.SubmissionVote)(nil),
			(*types.Comment)(nil),
			(*types.Submission)(nil),
			(*types.Proposal)(nil),
			(*types.ZoneSubscription)(nil),
			(*types.ZonePermission)(nil),
			(*types.Zone)(nil),
			(*types.User)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
