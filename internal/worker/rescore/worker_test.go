package rescore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/dbtest"
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/worker/core"
	"github.com/robalyx/zoonas/internal/worker/rescore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMonitor(t *testing.T) *core.Monitor {
	t.Helper()

	server := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{server.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return core.NewMonitor(client, zap.NewNop())
}

// seed creates a zone with a few subscribers and one submission.
func seed(t *testing.T, client database.Client) (*types.Zone, *types.Submission) {
	t.Helper()
	ctx := t.Context()
	svc := client.Service()

	admin, err := svc.User().CreateUser(ctx, "admin", true)
	require.NoError(t, err)

	zone, err := svc.Zone().CreateZone(ctx, admin.ID, "gardening", "plants")
	require.NoError(t, err)

	for _, name := range []string{"ada", "grace", "linus"} {
		user, err := svc.User().CreateUser(ctx, name, false)
		require.NoError(t, err)

		_, err = svc.Zone().Subscribe(ctx, zone.ID, user.ID)
		require.NoError(t, err)
	}

	submission, err := svc.Content().CreateSubmission(ctx, admin.ID, zone.ID, "Tomatoes", "https://example.com")
	require.NoError(t, err)

	zone, err = svc.Zone().GetZone(ctx, zone.ID)
	require.NoError(t, err)

	return zone, submission
}

func TestRunOnceRepairsDrift(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	client := dbtest.NewClient(t, service.DefaultSettings(), nil)
	zone, submission := seed(t, client)

	// Corrupt the stored aggregates behind the services' back
	_, err := client.DB().NewUpdate().
		Model((*types.Zone)(nil)).
		Set("size = ?", 99).
		Where("id = ?", zone.ID).
		Exec(ctx)
	require.NoError(t, err)

	_, err = client.DB().NewUpdate().
		Model((*types.Submission)(nil)).
		Set("value = ?", 5).
		Set("zone_score = ?", 7).
		Where("id = ?", submission.ID).
		Exec(ctx)
	require.NoError(t, err)

	worker := rescore.New(client, nil, rescore.Options{BatchSize: 1, Concurrency: 2}, zap.NewNop())

	report, err := worker.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Zones) // sentinel zone included
	assert.Equal(t, 1, report.Items[enum.ItemKindSubmission])
	assert.Equal(t, 2, report.Items[enum.ItemKindZone])
	assert.Zero(t, report.Items[enum.ItemKindComment])
	assert.Zero(t, report.Skipped)

	repairedZone, err := client.Service().Zone().GetZone(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, zone.Size, repairedZone.Size)

	repaired, err := client.Service().Content().GetSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.InDelta(t, submission.Value, repaired.Value, 1e-9)
	assert.InDelta(t, 1.0, repaired.Value, 1e-9)
	assert.NotEqual(t, 7.0, repaired.ZoneScore)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	client := dbtest.NewClient(t, service.DefaultSettings(), nil)
	_, submission := seed(t, client)

	worker := rescore.New(client, nil, rescore.Options{}, zap.NewNop())

	_, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	first, err := client.Service().Content().GetSubmission(ctx, submission.ID)
	require.NoError(t, err)

	_, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	second, err := client.Service().Content().GetSubmission(ctx, submission.ID)
	require.NoError(t, err)

	assert.InDelta(t, first.Value, second.Value, 1e-9)
	assert.InDelta(t, first.ZoneScore, second.ZoneScore, 1e-9)
	assert.InDelta(t, first.GlobalScore, second.GlobalScore, 1e-9)
}

func TestRunOnceReportsStatus(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	client := dbtest.NewClient(t, service.DefaultSettings(), nil)
	monitor := newMonitor(t)

	worker := rescore.New(client, monitor, rescore.Options{}, zap.NewNop())
	_, err := worker.RunOnce(ctx)
	require.NoError(t, err)

	statuses, err := monitor.GetAllStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	status := statuses[0]
	assert.Equal(t, "rescore", status.WorkerType)
	assert.Equal(t, 100, status.Progress)
	assert.True(t, status.IsHealthy)
	assert.False(t, status.IsStale(time.Now()))
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t, service.DefaultSettings(), nil)
	worker := rescore.New(client, nil, rescore.Options{Interval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
