package types

import "time"

// User is an account that can vote, author content and moderate zones.
type User struct {
	ID          int64     `bun:",pk,autoincrement"                         json:"id"`
	Username    string    `bun:",unique,notnull"                           json:"username"`
	IsActive    bool      `bun:",notnull,default:true"                     json:"isActive"`
	IsSuperuser bool      `bun:",notnull,default:false"                    json:"isSuperuser"`
	IsPerv      bool      `bun:",notnull,default:false"                    json:"isPerv"`
	VoteEWMA    float64   `bun:"vote_ewma,notnull,default:0"               json:"voteEwma"`
	JoinDate    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"joinDate"`
	Rejected
	Erased
}

// IsEligibleModerator reports why a user cannot moderate, or nil if they can.
func (u *User) IsEligibleModerator() error {
	if u.IsRejected {
		return ErrTargetBanned
	}
	if u.IsErased {
		return ErrTargetErased
	}
	return nil
}
