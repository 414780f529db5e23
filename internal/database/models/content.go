package models

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ContentModel handles database operations for submissions and comments.
type ContentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewContent creates a new ContentModel instance.
func NewContent(db *bun.DB, logger *zap.Logger) *ContentModel {
	return &ContentModel{
		db:     db,
		logger: logger.Named("db_content"),
	}
}

// CreateSubmissionWithTx inserts a submission.
func (r *ContentModel) CreateSubmissionWithTx(ctx context.Context, tx bun.IDB, submission *types.Submission) error {
	if _, err := tx.NewInsert().Model(submission).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetSubmissionByID retrieves a submission by its ID.
func (r *ContentModel) GetSubmissionByID(ctx context.Context, submissionID int64) (*types.Submission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Submission, error) {
		return r.GetSubmissionByIDWithTx(ctx, r.db, submissionID, false)
	})
}

// GetSubmissionByIDWithTx retrieves a submission using the provided transaction.
func (r *ContentModel) GetSubmissionByIDWithTx(
	ctx context.Context, tx bun.IDB, submissionID int64, lock bool,
) (*types.Submission, error) {
	var submission types.Submission
	err := lockRow(tx, tx.NewSelect().Model(&submission).Where("id = ?", submissionID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: submission %d", types.ErrItemNotFound, submissionID)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// UpdateSubmissionWithTx stores every mutable column of a submission.
func (r *ContentModel) UpdateSubmissionWithTx(ctx context.Context, tx bun.IDB, submission *types.Submission) error {
	_, err := tx.NewUpdate().
		Model(submission).
		Column("author_id", "zone_id", "title", "link", "slug",
			"base_score", "zone_score", "global_score", "value",
			"is_erased", "is_rejected", "is_private").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

// GetZoneSubmissions lists a zone's visible submissions by zone score.
func (r *ContentModel) GetZoneSubmissions(ctx context.Context, zoneID int64, limit int) ([]*types.Submission, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Submission, error) {
		var submissions []*types.Submission
		err := r.db.NewSelect().
			Model(&submissions).
			Where("zone_id = ?", zoneID).
			Where("is_erased = ?", false).
			Where("is_rejected = ?", false).
			Order("zone_score DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get zone submissions: %w", err)
		}
		return submissions, nil
	})
}

// CreateCommentWithTx inserts a comment.
func (r *ContentModel) CreateCommentWithTx(ctx context.Context, tx bun.IDB, comment *types.Comment) error {
	if _, err := tx.NewInsert().Model(comment).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetCommentByIDWithTx retrieves a comment using the provided transaction.
func (r *ContentModel) GetCommentByIDWithTx(
	ctx context.Context, tx bun.IDB, commentID int64, lock bool,
) (*types.Comment, error) {
	var comment types.Comment
	err := lockRow(tx, tx.NewSelect().Model(&comment).Where("id = ?", commentID), lock).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: comment %d", types.ErrItemNotFound, commentID)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// UpdateCommentFlagsWithTx stores a comment's visibility flags.
func (r *ContentModel) UpdateCommentFlagsWithTx(ctx context.Context, tx bun.IDB, comment *types.Comment) error {
	_, err := tx.NewUpdate().
		Model(comment).
		Column("is_rejected", "is_private").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// RecountCommentsWithTx sets a submission's comment count to its number of comments.
func (r *ContentModel) RecountCommentsWithTx(ctx context.Context, tx bun.IDB, submissionID int64) (int, error) {
	count, err := tx.NewSelect().
		Model((*types.Comment)(nil)).
		Where("submission_id = ?", submissionID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	_, err = tx.NewUpdate().
		Model((*types.Submission)(nil)).
		Set("comment_count = ?", count).
		Where("id = ?", submissionID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update comment count: %w", err)
	}

	return count, nil
}
