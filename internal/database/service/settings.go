package service

import (
	"context"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/score"
)

// Settings are the engine limits and sentinels shared by every service.
type Settings struct {
	// ModeratorLimit caps the number of moderators of a single zone.
	ModeratorLimit int
	// SubscriptionLimit caps the number of zones a single user may follow.
	SubscriptionLimit int
	// DefaultUserID owns erased content.
	DefaultUserID int64
	// DefaultZoneID receives erased content and is the reference zone for base and global scores.
	DefaultZoneID int64
	// Policy holds the score engine constants.
	Policy score.Policy
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ModeratorLimit:    5,
		SubscriptionLimit: 10,
		DefaultUserID:     1,
		DefaultZoneID:     1,
		Policy:            score.DefaultPolicy(),
	}
}

// Publisher receives committed item scores for ranking. Implementations must not block
// for long; failures are logged and never undo the change.
type Publisher interface {
	PublishItem(ctx context.Context, item types.Votable) error
	RemoveItem(ctx context.Context, kind enum.ItemKind, itemID int64) error
}

// Field length limits.
const (
	UsernameMaxLength        = 20
	ZoneNameMaxLength        = 20
	ZoneDescriptionMaxLength = 200
	ZoneInformationMaxLength = 2000
	SubmissionTitleMaxLength = 200
	SubmissionLinkMaxLength  = 2000
	CommentBodyMaxLength     = 10000
)
