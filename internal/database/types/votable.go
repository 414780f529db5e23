package types

import "github.com/robalyx/zoonas/internal/database/types/enum"

// Votable is implemented by every entity that owns a vote ledger.
type Votable interface {
	// VoteKind selects the ledger table holding the item's votes.
	VoteKind() enum.ItemKind
	// VotableID is the item's primary key.
	VotableID() int64
	// OwningZoneID returns the zone whose reputation the item feeds, if any.
	OwningZoneID() (int64, bool)
	// Hidden reports whether votes on the item must stay private.
	Hidden() bool
	// Scores exposes the fields recomputed after every cast. The second value is nil
	// for items that are not zone-scoped.
	Scores() (*Voted, *ZoneScored)
}

var (
	_ Votable = (*Submission)(nil)
	_ Votable = (*Comment)(nil)
	_ Votable = (*Zone)(nil)
	_ Votable = (*Proposal)(nil)
)

// NewVotable returns an empty entity of the given kind, ready to be scanned into.
func NewVotable(kind enum.ItemKind) (Votable, error) {
	switch kind {
	case enum.ItemKindSubmission:
		return &Submission{}, nil
	case enum.ItemKindComment:
		return &Comment{}, nil
	case enum.ItemKindZone:
		return &Zone{}, nil
	case enum.ItemKindProposal:
		return &Proposal{}, nil
	default:
		return nil, ErrInvalidInput
	}
}
