// Package ranking publishes committed item scores to Redis sorted sets so that readers
// can page through leaderboards without touching the database.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// GlobalBoard ranks visible submissions across every zone by global score.
	GlobalBoard = "ranking:global"
	// ZonesBoard ranks zones by global score.
	ZonesBoard = "ranking:zones"
	// ProposalsBoard ranks open proposals by value.
	ProposalsBoard = "ranking:proposals"

	zoneBoardPrefix = "ranking:zone:"
	snapshotPrefix  = "ranking:item:"
)

// ErrInvalidMember is returned when a board holds a member this package did not write.
var ErrInvalidMember = errors.New("invalid ranking member")

// ZoneBoard returns the key of a zone's own submission leaderboard.
func ZoneBoard(zoneID int64) string {
	return zoneBoardPrefix + strconv.FormatInt(zoneID, 10)
}

// Entry is a single leaderboard position.
type Entry struct {
	Kind  enum.ItemKind `json:"kind"`
	ID    int64         `json:"id"`
	Score float64       `json:"score"`
}

// Snapshot is the last published state of an item.
type Snapshot struct {
	Kind        enum.ItemKind `json:"kind"`
	ID          int64         `json:"id"`
	ZoneID      int64         `json:"zoneId,omitempty"`
	Value       float64       `json:"value"`
	ZoneScore   float64       `json:"zoneScore"`
	GlobalScore float64       `json:"globalScore"`
	PublishedAt time.Time     `json:"publishedAt"`
}

// Publisher writes committed scores to Redis and reads leaderboards back.
type Publisher struct {
	client rueidis.Client
	group  singleflight.Group
	logger *zap.Logger
}

// NewPublisher creates a publisher backed by client.
func NewPublisher(client rueidis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.Named("ranking"),
	}
}

// PublishItem stores an item's scores on the boards it belongs to. Items that are no
// longer visible are taken off their boards instead.
func (p *Publisher) PublishItem(ctx context.Context, item types.Votable) error {
	snapshot := newSnapshot(item)
	member := memberOf(snapshot.Kind, snapshot.ID)

	if !listed(item) {
		return p.remove(ctx, snapshot)
	}

	boards := boardsOf(snapshot)
	if len(boards) == 0 {
		return nil
	}

	payload, err := sonic.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking snapshot: %w", err)
	}

	cmds := make(rueidis.Commands, 0, len(boards)+1)
	for board, score := range boards {
		cmds = append(cmds, p.client.B().Zadd().Key(board).ScoreMember().ScoreMember(score, member).Build())
	}
	cmds = append(cmds, p.client.B().Set().Key(snapshotPrefix+member).Value(string(payload)).Build())

	for _, resp := range p.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to publish %s: %w", member, err)
		}
	}

	p.logger.Debug("Published item scores",
		zap.String("member", member),
		zap.Float64("value", snapshot.Value),
		zap.Float64("globalScore", snapshot.GlobalScore))

	return nil
}

// RemoveItem takes an item off every board it was published to.
func (p *Publisher) RemoveItem(ctx context.Context, kind enum.ItemKind, itemID int64) error {
	snapshot, err := p.Snapshot(ctx, kind, itemID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = &Snapshot{Kind: kind, ID: itemID}
	}
	return p.remove(ctx, *snapshot)
}

// remove deletes the snapshot and every board membership of an item.
func (p *Publisher) remove(ctx context.Context, snapshot Snapshot) error {
	member := memberOf(snapshot.Kind, snapshot.ID)

	cmds := rueidis.Commands{p.client.B().Del().Key(snapshotPrefix + member).Build()}
	for board := range boardsOf(snapshot) {
		cmds = append(cmds, p.client.B().Zrem().Key(board).Member(member).Build())
	}

	for _, resp := range p.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to remove %s: %w", member, err)
		}
	}

	p.logger.Debug("Removed item from rankings", zap.String("member", member))
	return nil
}

// Snapshot returns the last published state of an item, or nil if it was never published.
func (p *Publisher) Snapshot(ctx context.Context, kind enum.ItemKind, itemID int64) (*Snapshot, error) {
	payload, err := p.client.Do(ctx, p.client.B().Get().Key(snapshotPrefix+memberOf(kind, itemID)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil //nolint:nilnil // never published
		}
		return nil, fmt.Errorf("failed to get ranking snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := sonic.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ranking snapshot: %w", err)
	}
	return &snapshot, nil
}

// Top returns the n highest entries of a board. Concurrent identical reads share one
// round trip.
func (p *Publisher) Top(ctx context.Context, board string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	key := board + "#" + strconv.Itoa(n)
	result, err, _ := p.group.Do(key, func() (any, error) {
		scores, err := p.client.Do(ctx, p.client.B().Zrange().
			Key(board).
			Min("0").
			Max(strconv.Itoa(n-1)).
			Rev().
			Withscores().
			Build()).AsZScores()
		if err != nil {
			return nil, fmt.Errorf("failed to read board %s: %w", board, err)
		}

		entries := make([]Entry, 0, len(scores))
		for _, score := range scores {
			kind, id, err := parseMember(score.Member)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Kind: kind, ID: id, Score: score.Score})
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]Entry), nil
}

// listed reports whether an item may appear on a public board.
func listed(item types.Votable) bool {
	if item.Hidden() {
		return false
	}
	if submission, ok := item.(*types.Submission); ok {
		return !submission.IsRejected && !submission.IsErased
	}
	return true
}

// newSnapshot captures the rankable state of an item.
func newSnapshot(item types.Votable) Snapshot {
	voted, scored := item.Scores()
	snapshot := Snapshot{
		Kind:        item.VoteKind(),
		ID:          item.VotableID(),
		Value:       voted.Value,
		PublishedAt: time.Now(),
	}
	if scored != nil {
		snapshot.ZoneScore = scored.ZoneScore
		snapshot.GlobalScore = scored.GlobalScore
	}
	if zoneID, ok := item.OwningZoneID(); ok && snapshot.Kind == enum.ItemKindSubmission {
		snapshot.ZoneID = zoneID
	}
	return snapshot
}

// boardsOf maps each board an item belongs to onto its score there.
func boardsOf(snapshot Snapshot) map[string]float64 {
	switch snapshot.Kind {
	case enum.ItemKindSubmission:
		boards := map[string]float64{GlobalBoard: snapshot.GlobalScore}
		if snapshot.ZoneID != 0 {
			boards[ZoneBoard(snapshot.ZoneID)] = snapshot.ZoneScore
		}
		return boards
	case enum.ItemKindZone:
		return map[string]float64{ZonesBoard: snapshot.GlobalScore}
	case enum.ItemKindProposal:
		return map[string]float64{ProposalsBoard: snapshot.Value}
	case enum.ItemKindComment:
		return nil
	default:
		return nil
	}
}

func memberOf(kind enum.ItemKind, itemID int64) string {
	return string(kind) + ":" + strconv.FormatInt(itemID, 10)
}

func parseMember(member string) (enum.ItemKind, int64, error) {
	rawKind, rawID, ok := strings.Cut(member, ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidMember, member)
	}

	kind, valid := enum.ParseItemKind(rawKind)
	if !valid {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidMember, member)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidMember, member)
	}
	return kind, id, nil
}
