package service_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/dbtest"
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/stretchr/testify/require"
)

// fixture is a fresh store with a global admin already registered.
type fixture struct {
	client    database.Client
	publisher *recordingPublisher
	admin     *types.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSettings(t, service.DefaultSettings())
}

func newFixtureWithSettings(t *testing.T, settings service.Settings) *fixture {
	t.Helper()

	publisher := &recordingPublisher{}
	client := dbtest.NewClient(t, settings, publisher)

	admin, err := client.Service().User().CreateUser(t.Context(), "admin", true)
	require.NoError(t, err)

	return &fixture{client: client, publisher: publisher, admin: admin}
}

func (f *fixture) svc() *database.Service {
	return f.client.Service()
}

func (f *fixture) user(t *testing.T, name string) *types.User {
	t.Helper()

	user, err := f.svc().User().CreateUser(t.Context(), name, false)
	require.NoError(t, err)
	return user
}

func (f *fixture) users(t *testing.T, prefix string, n int) []*types.User {
	t.Helper()

	users := make([]*types.User, n)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("%s%d", prefix, i))
	}
	return users
}

// zone creates a zone founded by the fixture's admin.
func (f *fixture) zone(t *testing.T, name string) *types.Zone {
	t.Helper()

	zone, err := f.svc().Zone().CreateZone(t.Context(), f.admin.ID, name, "a zone")
	require.NoError(t, err)
	return zone
}

func (f *fixture) reloadUser(t *testing.T, id int64) *types.User {
	t.Helper()

	user, err := f.svc().User().GetUser(t.Context(), id)
	require.NoError(t, err)
	return user
}

func (f *fixture) reloadZone(t *testing.T, id int64) *types.Zone {
	t.Helper()

	zone, err := f.svc().Zone().GetZone(t.Context(), id)
	require.NoError(t, err)
	return zone
}

// recordingPublisher remembers what was published.
type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	removed   []string
}

func (p *recordingPublisher) PublishItem(_ context.Context, item types.Votable) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, fmt.Sprintf("%s:%d", item.VoteKind(), item.VotableID()))
	return nil
}

func (p *recordingPublisher) RemoveItem(_ context.Context, kind enum.ItemKind, itemID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, fmt.Sprintf("%s:%d", kind, itemID))
	return nil
}

func (p *recordingPublisher) snapshot() (published, removed []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...), append([]string(nil), p.removed...)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
