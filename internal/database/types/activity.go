package types

import (
	"time"

	"github.com/robalyx/zoonas/internal/database/types/enum"
)

// ActivityLog records a governance action.
type ActivityLog struct {
	ID           string            `bun:",pk"                                      json:"id"`
	ActorID      int64             `bun:",notnull"                                 json:"actorId"`
	ActivityType enum.ActivityType `bun:",notnull"                                 json:"activityType"`
	TargetKind   string            `bun:",notnull,default:''"                      json:"targetKind"`
	TargetID     int64             `bun:",notnull,default:0"                       json:"targetId"`
	ZoneID       int64             `bun:",notnull,default:0"                       json:"zoneId"`
	Details      map[string]any    `bun:",nullzero"                                json:"details"`
	CreatedAt    time.Time         `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// ActivityFilter narrows activity log queries.
type ActivityFilter struct {
	ActorID      int64
	ZoneID       int64
	ActivityType enum.ActivityType
}
