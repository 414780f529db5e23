package types

import (
	"time"

	"github.com/robalyx/zoonas/internal/database/types/enum"
)

// Zone is a self-governed community. Zones are votable and zone-scoped to themselves.
type Zone struct {
	ID          int64   `bun:",pk,autoincrement"            json:"id"`
	Slug        string  `bun:",unique,notnull"              json:"slug"`
	Name        string  `bun:",notnull"                     json:"name"`
	Description string  `bun:",notnull,default:''"          json:"description"`
	Information string  `bun:",notnull,default:''"          json:"information"`
	Size        int     `bun:",notnull,default:0"           json:"size"`
	VoteEWMA    float64 `bun:"vote_ewma,notnull,default:0"  json:"voteEwma"`
	ScoreEWMA   float64 `bun:"score_ewma,notnull,default:0" json:"scoreEwma"`
	Voted
	ZoneScored
	Private
	Created
}

// VoteKind implements Votable.
func (z *Zone) VoteKind() enum.ItemKind {
	return enum.ItemKindZone
}

// VotableID implements Votable.
func (z *Zone) VotableID() int64 {
	return z.ID
}

// OwningZoneID implements Votable. A zone is scoped to itself.
func (z *Zone) OwningZoneID() (int64, bool) {
	return z.ID, true
}

// Hidden implements Votable.
func (z *Zone) Hidden() bool {
	return z.IsPrivate
}

// Scores implements Votable.
func (z *Zone) Scores() (*Voted, *ZoneScored) {
	return &z.Voted, &z.ZoneScored
}

// ZonePermission grants moderator rights in a zone. Earlier grants are more senior.
type ZonePermission struct {
	ID        int64     `bun:",pk,autoincrement"                         json:"id"`
	ZoneID    int64     `bun:",notnull,unique:zone_user"                 json:"zoneId"`
	UserID    int64     `bun:",notnull,unique:zone_user"                 json:"userId"`
	IsAdmin   bool      `bun:",notnull,default:false"                    json:"isAdmin"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// IsSeniorTo reports whether p was granted before other. Equal timestamps fall back to
// insertion order.
func (p *ZonePermission) IsSeniorTo(other *ZonePermission) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.Before(other.CreatedAt)
	}
	return p.ID <= other.ID
}

// ZoneSubscription links a user to a zone they follow.
type ZoneSubscription struct {
	ID           int64 `bun:",pk,autoincrement"           json:"id"`
	UserID       int64 `bun:",notnull,unique:user_zone"   json:"userId"`
	ZoneID       int64 `bun:",notnull,unique:user_zone"   json:"zoneId"`
	DisplayOrder int   `bun:",notnull,default:0"          json:"displayOrder"`
}

// ZonePermissions is the staff listing of a zone, most senior first.
type ZonePermissions struct {
	Zone        *Zone             `json:"zone"`
	Permissions []*ZonePermission `json:"permissions"`
}
