package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/robalyx/zoonas/internal/database/models"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/pkg/utils"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErasedTitle replaces the title of erased submissions.
const ErasedTitle = "[erased]"

// ContentService creates and moderates submissions and comments.
type ContentService struct {
	db         *bun.DB
	users      *models.UserModel
	zones      *models.ZoneModel
	content    *models.ContentModel
	activity   *models.ActivityModel
	votes      *VoteService
	governance *ZoneService
	settings   Settings
	logger     *zap.Logger
}

// NewContent creates a new content service.
func NewContent(
	db *bun.DB,
	users *models.UserModel,
	zones *models.ZoneModel,
	content *models.ContentModel,
	activity *models.ActivityModel,
	votes *VoteService,
	governance *ZoneService,
	settings Settings,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		db:         db,
		users:      users,
		zones:      zones,
		content:    content,
		activity:   activity,
		votes:      votes,
		governance: governance,
		settings:   settings,
		logger:     logger.Named("content_service"),
	}
}

// CreateSubmission posts a link to a zone. The submission starts at its base score, the
// author's upvote is cast, and unless the author is rejected the zone's quality signal
// absorbs the base score.
func (s *ContentService) CreateSubmission(
	ctx context.Context, authorID, zoneID int64, title, link string,
) (*types.Submission, error) {
	title = utils.CleanName(title)
	if title == "-" || utf8.RuneCountInString(title) > SubmissionTitleMaxLength {
		return nil, fmt.Errorf("%w: title must be 1 to %d characters", types.ErrInvalidInput, SubmissionTitleMaxLength)
	}
	if utf8.RuneCountInString(link) > SubmissionLinkMaxLength {
		return nil, fmt.Errorf("%w: link must be at most %d characters", types.ErrInvalidInput, SubmissionLinkMaxLength)
	}

	outcome, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*castOutcome, error) {
		author, err := s.users.GetUserByIDWithTx(ctx, tx, authorID, false)
		if err != nil {
			return nil, err
		}

		zone, err := s.zones.GetZoneByIDWithTx(ctx, tx, zoneID, false)
		if err != nil {
			return nil, err
		}

		reference := zone
		if zone.ID != s.settings.DefaultZoneID {
			reference, err = s.zones.GetZoneByIDWithTx(ctx, tx, s.settings.DefaultZoneID, false)
			if err != nil {
				return nil, fmt.Errorf("failed to load reference zone: %w", err)
			}
		}

		_, slug := utils.CleanSlug(title)
		submission := &types.Submission{
			ZoneID: zoneID,
			Title:  title,
			Link:   link,
			Slug:   slug,
			Author: types.Author{AuthorID: authorID},
		}
		if author.IsRejected {
			submission.Rejected = submission.Reject()
		}
		if zone.IsPrivate {
			submission.Private = submission.Hide()
		}

		base := s.settings.Policy.BaseScore(zone.ScoreEWMA, reference.ScoreEWMA)
		submission.BaseScore = base
		submission.ZoneScore = base
		submission.GlobalScore = base

		if err := s.content.CreateSubmissionWithTx(ctx, tx, submission); err != nil {
			return nil, err
		}

		outcome, err := s.votes.castWithTx(ctx, tx, enum.ItemKindSubmission, submission.ID, authorID, enum.DirectionUp)
		if err != nil {
			return nil, err
		}

		if !submission.IsRejected {
			// The cast moved the zone's vote signal, so start from its current state
			zone = outcome.zone
			zone.ScoreEWMA = s.settings.Policy.ZoneScoreEWMA(zone.ScoreEWMA, base)
			if err := s.zones.UpdateReputationWithTx(ctx, tx, zone); err != nil {
				return nil, err
			}
		}

		return outcome, nil
	})
	if err != nil {
		return nil, err
	}

	s.votes.publish(ctx, outcome)

	submission, _ := outcome.item.(*types.Submission)
	s.logger.Debug("Submission created",
		zap.Int64("submissionID", submission.ID),
		zap.Int64("zoneID", zoneID),
		zap.Int64("authorID", authorID))

	return submission, nil
}

// GetSubmission retrieves a submission by ID.
func (s *ContentService) GetSubmission(ctx context.Context, submissionID int64) (*types.Submission, error) {
	return s.content.GetSubmissionByID(ctx, submissionID)
}

// ListSubmissions lists a zone's visible submissions by zone score.
func (s *ContentService) ListSubmissions(ctx context.Context, zoneID int64, limit int) ([]*types.Submission, error) {
	return s.content.GetZoneSubmissions(ctx, zoneID, limit)
}

// EraseSubmission detaches a submission from its author and zone. The author, the zone's
// moderators and global admins may do this.
func (s *ContentService) EraseSubmission(ctx context.Context, submissionID, actorID int64) error {
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		submission, err := s.content.GetSubmissionByIDWithTx(ctx, tx, submissionID, true)
		if err != nil {
			return err
		}

		if submission.AuthorID != actorID {
			if err := s.governance.authorizeModeratorWithTx(ctx, tx, submission.ZoneID, actorID); err != nil {
				return err
			}
		}

		originalZoneID := submission.ZoneID
		submission.AuthorID = s.settings.DefaultUserID
		submission.ZoneID = s.settings.DefaultZoneID
		submission.Title = ErasedTitle
		submission.Link = ""
		submission.Slug = "erased"
		submission.Value = 0
		submission.ZoneScored = types.ZoneScored{}
		submission.Erased = submission.Erase()

		if err := s.content.UpdateSubmissionWithTx(ctx, tx, submission); err != nil {
			return err
		}

		return s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeSubmissionErased,
			TargetKind:   enum.ItemKindSubmission.String(),
			TargetID:     submissionID,
			ZoneID:       originalZoneID,
		})
	})
	if err != nil {
		return err
	}

	s.votes.unpublish(ctx, enum.ItemKindSubmission, submissionID)
	return nil
}

// CreateComment replies to a submission, optionally under parentID, and casts the
// author's upvote.
func (s *ContentService) CreateComment(
	ctx context.Context, authorID, submissionID int64, parentID *int64, body string,
) (*types.Comment, error) {
	if body == "" || utf8.RuneCountInString(body) > CommentBodyMaxLength {
		return nil, fmt.Errorf("%w: comment must be 1 to %d characters", types.ErrInvalidInput, CommentBodyMaxLength)
	}

	outcome, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*castOutcome, error) {
		author, err := s.users.GetUserByIDWithTx(ctx, tx, authorID, false)
		if err != nil {
			return nil, err
		}

		submission, err := s.content.GetSubmissionByIDWithTx(ctx, tx, submissionID, true)
		if err != nil {
			return nil, err
		}

		if parentID != nil {
			parent, err := s.content.GetCommentByIDWithTx(ctx, tx, *parentID, false)
			if err != nil {
				return nil, err
			}
			if parent.SubmissionID != submissionID {
				return nil, fmt.Errorf("%w: parent comment belongs to another submission", types.ErrInvalidInput)
			}
		}

		comment := &types.Comment{
			SubmissionID: submissionID,
			ParentID:     parentID,
			Body:         body,
			Author:       types.Author{AuthorID: authorID},
		}
		if author.IsRejected {
			comment.Rejected = comment.Reject()
		}
		if submission.IsPrivate {
			comment.Private = comment.Hide()
		}

		if err := s.content.CreateCommentWithTx(ctx, tx, comment); err != nil {
			return nil, err
		}
		if _, err := s.content.RecountCommentsWithTx(ctx, tx, submissionID); err != nil {
			return nil, err
		}

		return s.votes.castWithTx(ctx, tx, enum.ItemKindComment, comment.ID, authorID, enum.DirectionUp)
	})
	if err != nil {
		return nil, err
	}

	s.votes.publish(ctx, outcome)

	comment, _ := outcome.item.(*types.Comment)
	return comment, nil
}

// Moderate applies a visibility change to a submission or comment. The zone's moderators
// and global admins may do this.
func (s *ContentService) Moderate(
	ctx context.Context, kind enum.ItemKind, itemID, actorID int64, action enum.ModerationAction,
) error {
	if !action.IsValid() {
		return fmt.Errorf("%w: unknown moderation action %q", types.ErrInvalidInput, action)
	}

	item, err := dbretry.TransactionResult(ctx, s.db, func(ctx context.Context, tx bun.Tx) (types.Votable, error) {
		var (
			item   types.Votable
			zoneID int64
		)

		switch kind {
		case enum.ItemKindSubmission:
			submission, err := s.content.GetSubmissionByIDWithTx(ctx, tx, itemID, true)
			if err != nil {
				return nil, err
			}
			zoneID = submission.ZoneID
			if err := s.governance.authorizeModeratorWithTx(ctx, tx, zoneID, actorID); err != nil {
				return nil, err
			}

			submission.Rejected, submission.Private = applyModeration(action, submission.Rejected, submission.Private)
			if err := s.content.UpdateSubmissionWithTx(ctx, tx, submission); err != nil {
				return nil, err
			}
			item = submission

		case enum.ItemKindComment:
			comment, err := s.content.GetCommentByIDWithTx(ctx, tx, itemID, true)
			if err != nil {
				return nil, err
			}
			submission, err := s.content.GetSubmissionByIDWithTx(ctx, tx, comment.SubmissionID, false)
			if err != nil {
				return nil, err
			}
			zoneID = submission.ZoneID
			if err := s.governance.authorizeModeratorWithTx(ctx, tx, zoneID, actorID); err != nil {
				return nil, err
			}

			comment.Rejected, comment.Private = applyModeration(action, comment.Rejected, comment.Private)
			if err := s.content.UpdateCommentFlagsWithTx(ctx, tx, comment); err != nil {
				return nil, err
			}
			item = comment

		default:
			return nil, fmt.Errorf("%w: %s cannot be moderated", types.ErrInvalidInput, kind)
		}

		err := s.activity.LogWithTx(ctx, tx, &types.ActivityLog{
			ActorID:      actorID,
			ActivityType: enum.ActivityTypeContentModerated,
			TargetKind:   kind.String(),
			TargetID:     itemID,
			ZoneID:       zoneID,
			Details:      map[string]any{"action": action.String()},
		})
		if err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return err
	}

	s.votes.publish(ctx, &castOutcome{kind: kind, item: item})

	s.logger.Info("Content moderated",
		zap.String("kind", kind.String()),
		zap.Int64("itemID", itemID),
		zap.Int64("actorID", actorID),
		zap.String("action", action.String()))

	return nil
}

// applyModeration returns the flags after action.
func applyModeration(
	action enum.ModerationAction, rejected types.Rejected, private types.Private,
) (types.Rejected, types.Private) {
	switch action {
	case enum.ModerationActionReject:
		return rejected.Reject(), private
	case enum.ModerationActionAllow:
		return rejected.Allow(), private
	case enum.ModerationActionHide:
		return rejected, private.Hide()
	case enum.ModerationActionShow:
		return rejected, private.Show()
	default:
		return rejected, private
	}
}
