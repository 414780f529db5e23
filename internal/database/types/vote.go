package types

import (
	"time"

	"github.com/robalyx/zoonas/internal/database/types/enum"
)

// Vote is one voter's stance on one item. Each ledger table embeds it and carries a
// unique index on (item_id, voter_id).
type Vote struct {
	ID           int64     `bun:",pk,autoincrement"                         json:"id"`
	ItemID       int64     `bun:",notnull"                                  json:"itemId"`
	VoterID      int64     `bun:",notnull"                                  json:"voterId"`
	Value        float64   `bun:",notnull,default:0"                        json:"value"`
	IsPrivate    bool      `bun:",notnull,default:false"                    json:"isPrivate"`
	IsRejected   bool      `bun:",notnull,default:false"                    json:"isRejected"`
	IsSubscriber bool      `bun:",notnull,default:false"                    json:"isSubscriber"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// SubmissionVote is a vote on a submission.
type SubmissionVote struct {
	Vote `bun:"embed"`
}

// CommentVote is a vote on a comment.
type CommentVote struct {
	Vote `bun:"embed"`
}

// ZoneVote is a vote on a zone.
type ZoneVote struct {
	Vote `bun:"embed"`
}

// ProposalVote is a vote on a proposal.
type ProposalVote struct {
	Vote `bun:"embed"`
}

// VoteFilter narrows ledger aggregate queries.
type VoteFilter struct {
	Positive        bool
	Negative        bool
	PublicOnly      bool
	ExcludeRejected bool
}

// CastResult is returned to callers after a vote was recorded.
type CastResult struct {
	Kind        enum.ItemKind    `json:"kind"`
	Vote        *Vote            `json:"vote"`
	Created     bool             `json:"created"`
	ItemValue   float64          `json:"itemValue"`
	Description string           `json:"description"`
	Promotion   *PromotionResult `json:"promotion,omitempty"`
}
