package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	statements := []struct {
		name string
		up   string
	}{
		// One ledger row per (item, voter)
		{"idx_submission_votes_item_voter", "CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_votes_item_voter ON submission_votes (item_id, voter_id)"},
		{"idx_comment_votes_item_voter", "CREATE UNIQUE INDEX IF NOT EXISTS idx_comment_votes_item_voter ON comment_votes (item_id, voter_id)"},
		{"idx_zone_votes_item_voter", "CREATE UNIQUE INDEX IF NOT EXISTS idx_zone_votes_item_voter ON zone_votes (item_id, voter_id)"},
		{"idx_proposal_votes_item_voter", "CREATE UNIQUE INDEX IF NOT EXISTS idx_proposal_votes_item_voter ON proposal_votes (item_id, voter_id)"},

		// Ledgers are also listed per voter
		{"idx_submission_votes_voter", "CREATE INDEX IF NOT EXISTS idx_submission_votes_voter ON submission_votes (voter_id)"},
		{"idx_comment_votes_voter", "CREATE INDEX IF NOT EXISTS idx_comment_votes_voter ON comment_votes (voter_id)"},
		{"idx_zone_votes_voter", "CREATE INDEX IF NOT EXISTS idx_zone_votes_voter ON zone_votes (voter_id)"},
		{"idx_proposal_votes_voter", "CREATE INDEX IF NOT EXISTS idx_proposal_votes_voter ON proposal_votes (voter_id)"},

		// Governance lookups
		{"idx_zone_permissions_seniority", "CREATE INDEX IF NOT EXISTS idx_zone_permissions_seniority ON zone_permissions (zone_id, created_at, id)"},
		{"idx_zone_permissions_user", "CREATE INDEX IF NOT EXISTS idx_zone_permissions_user ON zone_permissions (user_id)"},
		{"idx_zone_subscriptions_zone", "CREATE INDEX IF NOT EXISTS idx_zone_subscriptions_zone ON zone_subscriptions (zone_id)"},

		// Content listings
		{"idx_submissions_zone_score", "CREATE INDEX IF NOT EXISTS idx_submissions_zone_score ON submissions (zone_id, zone_score DESC)"},
		{"idx_submissions_global_score", "CREATE INDEX IF NOT EXISTS idx_submissions_global_score ON submissions (global_score DESC)"},
		{"idx_submissions_author", "CREATE INDEX IF NOT EXISTS idx_submissions_author ON submissions (author_id)"},
		{"idx_comments_submission", "CREATE INDEX IF NOT EXISTS idx_comments_submission ON comments (submission_id, created_at)"},

		// Activity log
		{"idx_activity_logs_time", "CREATE INDEX IF NOT EXISTS idx_activity_logs_time ON activity_logs (created_at DESC)"},
		{"idx_activity_logs_actor_time", "CREATE INDEX IF NOT EXISTS idx_activity_logs_actor_time ON activity_logs (actor_id, created_at DESC)"},
		{"idx_activity_logs_zone_time", "CREATE INDEX IF NOT EXISTS idx_activity_logs_zone_time ON activity_logs (zone_id, created_at DESC)"},
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt.up); err != nil {
				return fmt.Errorf("failed to create index %s: %w", stmt.name, err)
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(statements) - 1; i >= 0; i-- {
			if _, err := db.ExecContext(ctx, "DROP INDEX IF EXISTS "+statements[i].name); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", statements[i].name, err)
			}
		}
		return nil
	})
}
