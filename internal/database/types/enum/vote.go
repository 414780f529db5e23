package enum

import "strings"

// ItemKind identifies which kind of votable an item reference points at.
type ItemKind string

const (
	ItemKindSubmission ItemKind = "submission"
	ItemKindComment    ItemKind = "comment"
	ItemKindZone       ItemKind = "zone"
	ItemKindProposal   ItemKind = "proposal"
)

// ItemKinds lists every votable kind in a stable order.
var ItemKinds = []ItemKind{ //nolint:gochecknoglobals // -
	ItemKindSubmission,
	ItemKindComment,
	ItemKindZone,
	ItemKindProposal,
}

// String returns the kind name.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known kinds.
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindSubmission, ItemKindComment, ItemKindZone, ItemKindProposal:
		return true
	default:
		return false
	}
}

// IsZoneScoped reports whether votes on this kind count against a zone's reputation.
func (k ItemKind) IsZoneScoped() bool {
	return k == ItemKindSubmission || k == ItemKindZone
}

// ParseItemKind converts user input into an ItemKind.
func ParseItemKind(s string) (ItemKind, bool) {
	k := ItemKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.IsValid()
}

// Direction is the stance a voter takes when casting.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// String returns the direction name.
func (d Direction) String() string {
	return string(d)
}

// IsValid reports whether d is up or down.
func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Raw returns the undiscounted vote magnitude, +1 for up and -1 for down.
func (d Direction) Raw() float64 {
	if d == DirectionUp {
		return 1
	}
	return -1
}

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// ModerationAction is a visibility change applied to content by staff.
type ModerationAction string

const (
	ModerationActionReject ModerationAction = "reject"
	ModerationActionAllow  ModerationAction = "allow"
	ModerationActionHide   ModerationAction = "hide"
	ModerationActionShow   ModerationAction = "show"
)

// String returns the action name.
func (a ModerationAction) String() string {
	return string(a)
}

// IsValid reports whether a is a known action.
func (a ModerationAction) IsValid() bool {
	switch a {
	case ModerationActionReject, ModerationActionAllow, ModerationActionHide, ModerationActionShow:
		return true
	default:
		return false
	}
}

// ParseModerationAction converts user input into a ModerationAction.
func ParseModerationAction(s string) (ModerationAction, bool) {
	a := ModerationAction(strings.ToLower(strings.TrimSpace(s)))
	return a, a.IsValid()
}
