package telemetry

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/region"
	"github.com/josephgoksu/geotask/internal/session"
	"github.com/posthog/posthog-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEnqueuer struct {
	mu     sync.Mutex
	events []posthog.Capture
	closed bool
}

func (m *mockEnqueuer) Enqueue(msg posthog.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capture, ok := msg.(posthog.Capture); ok {
		m.events = append(m.events, capture)
	}
	return nil
}

func (m *mockEnqueuer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockEnqueuer) getEvents() []posthog.Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]posthog.Capture(nil), m.events...)
}

func newTestClient(enabled bool) (*PostHogClient, *mockEnqueuer) {
	mock := &mockEnqueuer{}
	cfg := &Config{Enabled: enabled, ConsentAsked: true, AnonymousID: "anon-1"}
	return newPostHogClientWithEnqueuer(mock, cfg, "1.2.3"), mock
}

func TestPostHogClient_TrackWhenEnabled(t *testing.T) {
	client, mock := newTestClient(true)

	client.Track(EventRegionEvent, Properties{"type": "enter"})

	events := mock.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "anon-1", events[0].DistinctId)
	assert.Equal(t, EventRegionEvent, events[0].Event)
	assert.Equal(t, "enter", events[0].Properties["type"])
	assert.Equal(t, runtime.GOOS, events[0].Properties["os"])
	assert.Equal(t, "1.2.3", events[0].Properties["cli_version"])
	assert.Equal(t, false, events[0].Properties["$process_person_profile"])
}

func TestPostHogClient_TrackWhenDisabled(t *testing.T) {
	client, mock := newTestClient(false)
	client.Track(EventRegionEvent, nil)
	assert.Empty(t, mock.getEvents())
}

func TestPostHogClient_Close(t *testing.T) {
	client, mock := newTestClient(true)
	require.NoError(t, client.Close())
	assert.True(t, mock.closed)
}

func TestNewPostHogClient_NoKeyDropsEvents(t *testing.T) {
	client, err := NewPostHogClient(ClientConfig{Config: &Config{Enabled: true}})
	require.NoError(t, err)
	client.Track(EventSessionFlushed, nil)
	assert.NoError(t, client.Close())
}

func TestStore_LoadSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/data")

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())
	assert.True(t, cfg.NeedsConsent())
	assert.NotEmpty(t, cfg.AnonymousID)

	cfg.Enable()
	require.NoError(t, s.Save(cfg))

	again, err := s.Load()
	require.NoError(t, err)
	assert.True(t, again.IsEnabled())
	assert.Equal(t, cfg.AnonymousID, again.AnonymousID, "anonymous id is stable")

	again.Disable()
	assert.False(t, again.IsEnabled())
	assert.False(t, again.NeedsConsent())
}

func TestSessionFlushed(t *testing.T) {
	client, mock := newTestClient(true)

	SessionFlushed(client, session.FlushResult{
		TaskUpdated: true,
		Inserted:    map[geo.ItemID]geo.ItemID{-1: 4},
		Updated:     2,
		Duration:    3 * time.Millisecond,
	})

	events := mock.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Properties["inserted"])
	assert.Equal(t, 2, events[0].Properties["updated"])
	assert.Equal(t, true, events[0].Properties["success"])
}

func TestRegionsReconciled(t *testing.T) {
	client, mock := newTestClient(true)

	RegionsReconciled(client, region.Outcome{}, nil)
	assert.Empty(t, mock.getEvents(), "no-op reconciles are not sent")

	RegionsReconciled(client, region.Outcome{}, errors.Join(permission.ErrPermissionDenied))
	events := mock.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "permission_denied", events[0].Properties["reason"])
}

func TestNoopClient(t *testing.T) {
	var c Client = NoopClient{}
	c.Track(EventRegionEvent, nil)
	assert.NoError(t, c.Close())
}
