package ranking_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*ranking.Publisher, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{server.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return ranking.NewPublisher(client, zap.NewNop()), server
}

func submission(id, zoneID int64, zoneScore, globalScore float64) *types.Submission {
	return &types.Submission{
		ID:     id,
		ZoneID: zoneID,
		ZoneScored: types.ZoneScored{
			ZoneScore:   zoneScore,
			GlobalScore: globalScore,
		},
	}
}

func TestPublishSubmissions(t *testing.T) {
	t.Parallel()

	publisher, server := setupTest(t)
	ctx := t.Context()

	require.NoError(t, publisher.PublishItem(ctx, submission(1, 7, 0.3, 0.2)))
	require.NoError(t, publisher.PublishItem(ctx, submission(2, 7, 0.1, 0.5)))
	require.NoError(t, publisher.PublishItem(ctx, submission(3, 8, 0.9, 0.4)))

	global, err := publisher.Top(ctx, ranking.GlobalBoard, 10)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{
		{Kind: enum.ItemKindSubmission, ID: 2, Score: 0.5},
		{Kind: enum.ItemKindSubmission, ID: 3, Score: 0.4},
		{Kind: enum.ItemKindSubmission, ID: 1, Score: 0.2},
	}, global)

	zone, err := publisher.Top(ctx, ranking.ZoneBoard(7), 1)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{{Kind: enum.ItemKindSubmission, ID: 1, Score: 0.3}}, zone)

	snapshot, err := publisher.Snapshot(ctx, enum.ItemKindSubmission, 3)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(8), snapshot.ZoneID)
	assert.InDelta(t, 0.4, snapshot.GlobalScore, 1e-9)

	// Republishing moves the member instead of duplicating it
	require.NoError(t, publisher.PublishItem(ctx, submission(1, 7, 0.3, 0.9)))
	members, err := server.ZMembers(ranking.GlobalBoard)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	score, err := server.ZScore(ranking.GlobalBoard, "submission:1")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestHiddenItemsLeaveTheBoards(t *testing.T) {
	t.Parallel()

	publisher, server := setupTest(t)
	ctx := t.Context()

	item := submission(1, 7, 0.3, 0.2)
	require.NoError(t, publisher.PublishItem(ctx, item))

	item.Rejected = item.Reject()
	require.NoError(t, publisher.PublishItem(ctx, item))

	global, err := publisher.Top(ctx, ranking.GlobalBoard, 10)
	require.NoError(t, err)
	assert.Empty(t, global)
	assert.False(t, server.Exists("ranking:item:submission:1"))

	snapshot, err := publisher.Snapshot(ctx, enum.ItemKindSubmission, 1)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	publisher, _ := setupTest(t)
	ctx := t.Context()

	require.NoError(t, publisher.PublishItem(ctx, &types.Proposal{ID: 4, Voted: types.Voted{Value: 0.7}}))
	require.NoError(t, publisher.PublishItem(ctx, &types.Zone{ID: 2, ZoneScored: types.ZoneScored{GlobalScore: 0.6}}))
	require.NoError(t, publisher.PublishItem(ctx, submission(5, 2, 0.1, 0.1)))

	proposals, err := publisher.Top(ctx, ranking.ProposalsBoard, 5)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{{Kind: enum.ItemKindProposal, ID: 4, Score: 0.7}}, proposals)

	require.NoError(t, publisher.RemoveItem(ctx, enum.ItemKindProposal, 4))
	require.NoError(t, publisher.RemoveItem(ctx, enum.ItemKindSubmission, 5))

	proposals, err = publisher.Top(ctx, ranking.ProposalsBoard, 5)
	require.NoError(t, err)
	assert.Empty(t, proposals)

	zoneBoard, err := publisher.Top(ctx, ranking.ZoneBoard(2), 5)
	require.NoError(t, err)
	assert.Empty(t, zoneBoard)

	zones, err := publisher.Top(ctx, ranking.ZonesBoard, 5)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{{Kind: enum.ItemKindZone, ID: 2, Score: 0.6}}, zones)

	// Removing something never published is fine
	require.NoError(t, publisher.RemoveItem(ctx, enum.ItemKindZone, 99))
}

func TestCommentsAreNotRanked(t *testing.T) {
	t.Parallel()

	publisher, server := setupTest(t)

	require.NoError(t, publisher.PublishItem(t.Context(), &types.Comment{ID: 1, Voted: types.Voted{Value: 1}}))
	assert.Empty(t, server.Keys())
}

func TestTopRejectsForeignMembers(t *testing.T) {
	t.Parallel()

	publisher, server := setupTest(t)

	_, err := server.ZAdd(ranking.GlobalBoard, 1, "garbage")
	require.NoError(t, err)

	_, err = publisher.Top(t.Context(), ranking.GlobalBoard, 5)
	require.ErrorIs(t, err, ranking.ErrInvalidMember)
}
