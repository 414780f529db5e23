package enum

// PromotionStatus is where a proposal stands after a vote has been counted.
type PromotionStatus string

const (
	// PromotionStatusOpen means the proposal is still below its threshold.
	PromotionStatusOpen PromotionStatus = "open"
	// PromotionStatusPromoted means this vote turned the proposal into a zone.
	PromotionStatusPromoted PromotionStatus = "promoted"
	// PromotionStatusGone means the proposal no longer existed when the vote arrived.
	PromotionStatusGone PromotionStatus = "gone"
)

// String returns the status name.
func (s PromotionStatus) String() string {
	return string(s)
}
