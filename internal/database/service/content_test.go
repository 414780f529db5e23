package service_test

import (
	"testing"

	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubmission(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	content := f.svc().Content()

	zone := f.zone(t, "Links")
	author := f.user(t, "author")

	submission, err := content.CreateSubmission(ctx, author.ID, zone.ID, "  A  Fine Link ", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "A Fine Link", submission.Title)
	assert.Equal(t, "a-fine-link", submission.Slug)
	assert.False(t, submission.IsRejected)
	assert.InDelta(t, 1.0, submission.Value, 1e-9)
	assert.Zero(t, submission.BaseScore)
	assert.InDelta(t, 0.1, submission.ZoneScore, 1e-9)
	assert.InDelta(t, 0.1, submission.GlobalScore, 1e-9)

	vote, err := f.svc().Vote().GetVote(ctx, enum.ItemKindSubmission, submission.ID, author.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.InDelta(t, 1.0, vote.Value, 1e-9)

	// The author's vote moved the zone's signals
	reloaded := f.reloadZone(t, zone.ID)
	assert.InDelta(t, 0.1, reloaded.VoteEWMA, 1e-9)
	assert.InDelta(t, 0.09, reloaded.ScoreEWMA, 1e-9)

	listed, err := content.ListSubmissions(ctx, zone.ID, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, submission.ID, listed[0].ID)

	_, err = content.CreateSubmission(ctx, author.ID, zone.ID, "", "")
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = content.CreateSubmission(ctx, author.ID, 999, "Lost", "")
	require.ErrorIs(t, err, types.ErrZoneNotFound)
}

func TestCreateSubmissionByRejectedAuthor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	zone := f.zone(t, "Links")
	spammer := f.user(t, "spammer")
	require.NoError(t, f.svc().User().Ban(ctx, spammer.ID, f.admin.ID))

	submission, err := f.svc().Content().CreateSubmission(ctx, spammer.ID, zone.ID, "Buy now", "")
	require.NoError(t, err)
	assert.True(t, submission.IsRejected)
	assert.Zero(t, submission.Value)

	// Neither the vote nor the base score reach the zone's quality signal
	assert.Zero(t, f.reloadZone(t, zone.ID).ScoreEWMA)

	listed, err := f.svc().Content().ListSubmissions(ctx, zone.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestEraseSubmission(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	content := f.svc().Content()

	zone := f.zone(t, "Links")
	author := f.user(t, "author")
	stranger := f.user(t, "stranger")

	submission, err := content.CreateSubmission(ctx, author.ID, zone.ID, "Regrettable", "https://example.com")
	require.NoError(t, err)

	require.ErrorIs(t, content.EraseSubmission(ctx, submission.ID, stranger.ID), types.ErrNotAuthorized)
	require.NoError(t, content.EraseSubmission(ctx, submission.ID, author.ID))

	erased, err := content.GetSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.True(t, erased.IsErased)
	assert.Equal(t, service.ErasedTitle, erased.Title)
	assert.Empty(t, erased.Link)
	assert.Equal(t, int64(1), erased.AuthorID)
	assert.Equal(t, int64(1), erased.ZoneID)
	assert.Zero(t, erased.Value)
	assert.Zero(t, erased.ZoneScore)
	assert.Zero(t, erased.GlobalScore)
}

func TestCreateComment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	content := f.svc().Content()

	zone := f.zone(t, "Talk")
	author := f.user(t, "author")
	submission, err := content.CreateSubmission(ctx, author.ID, zone.ID, "Discuss", "")
	require.NoError(t, err)
	other, err := content.CreateSubmission(ctx, author.ID, zone.ID, "Elsewhere", "")
	require.NoError(t, err)

	// Two first casts (one per submission) moved the author's vote_ewma to 0.19.
	root, err := content.CreateComment(ctx, author.ID, submission.ID, nil, "first")
	require.NoError(t, err)
	assert.InDelta(t, 1-0.19/2, root.Value, 1e-9)

	fresh := f.user(t, "fresh")
	untouched, err := content.CreateComment(ctx, fresh.ID, submission.ID, nil, "hello")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, untouched.Value, 1e-9)

	reply, err := content.CreateComment(ctx, f.admin.ID, submission.ID, &root.ID, "second")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	reloaded, err := content.GetSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.CommentCount)

	_, err = content.CreateComment(ctx, author.ID, other.ID, &root.ID, "misplaced")
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = content.CreateComment(ctx, author.ID, submission.ID, nil, "")
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestModerate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	content := f.svc().Content()

	zone := f.zone(t, "Strict")
	author := f.user(t, "author")
	submission, err := content.CreateSubmission(ctx, author.ID, zone.ID, "Borderline", "")
	require.NoError(t, err)
	comment, err := content.CreateComment(ctx, author.ID, submission.ID, nil, "hot take")
	require.NoError(t, err)

	err = content.Moderate(ctx, enum.ItemKindSubmission, submission.ID, author.ID, enum.ModerationActionReject)
	require.ErrorIs(t, err, types.ErrNotAuthorized)

	require.NoError(t, content.Moderate(ctx, enum.ItemKindSubmission, submission.ID, f.admin.ID,
		enum.ModerationActionHide))
	require.NoError(t, content.Moderate(ctx, enum.ItemKindComment, comment.ID, f.admin.ID,
		enum.ModerationActionReject))

	hidden, err := content.GetSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsPrivate)
	assert.False(t, hidden.IsRejected)

	item, err := f.client.Model().Item().GetItem(ctx, enum.ItemKindComment, comment.ID)
	require.NoError(t, err)
	rejected, ok := item.(*types.Comment)
	require.True(t, ok)
	assert.True(t, rejected.IsRejected)

	err = content.Moderate(ctx, enum.ItemKindZone, zone.ID, f.admin.ID, enum.ModerationActionHide)
	require.ErrorIs(t, err, types.ErrInvalidInput)
}
