package types

import "time"

// Created records when a row was inserted.
type Created struct {
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Erased marks content or accounts that were wiped by their owner or staff.
type Erased struct {
	IsErased bool `bun:",notnull,default:false" json:"isErased"`
}

// Erase returns the erased state.
func (Erased) Erase() Erased {
	return Erased{IsErased: true}
}

// Rejected marks content or accounts hidden from everyone but staff.
type Rejected struct {
	IsRejected bool `bun:",notnull,default:false" json:"isRejected"`
}

// Reject returns the rejected state.
func (Rejected) Reject() Rejected {
	return Rejected{IsRejected: true}
}

// Allow lifts a rejection.
func (Rejected) Allow() Rejected {
	return Rejected{IsRejected: false}
}

// Private marks content only visible to users who opted in to see it.
type Private struct {
	IsPrivate bool `bun:",notnull,default:false" json:"isPrivate"`
}

// Hide returns the private state.
func (Private) Hide() Private {
	return Private{IsPrivate: true}
}

// Show returns the public state.
func (Private) Show() Private {
	return Private{IsPrivate: false}
}

// Author links content to the user who wrote it.
type Author struct {
	AuthorID int64 `bun:",notnull" json:"authorId"`
}

// Voted holds the aggregate value of an item's vote ledger.
type Voted struct {
	Value float64 `bun:",notnull,default:0" json:"value"`
}

// ZoneScored holds the ranking scores of zone-scoped items.
type ZoneScored struct {
	BaseScore   float64 `bun:",notnull,default:0" json:"baseScore"`
	ZoneScore   float64 `bun:",notnull,default:0" json:"zoneScore"`
	GlobalScore float64 `bun:",notnull,default:0" json:"globalScore"`
}
