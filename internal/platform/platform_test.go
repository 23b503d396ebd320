package platform

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func region(id string) geo.Region {
	return geo.Region{Identifier: id, Latitude: 1, Longitude: 2, Radius: 50, NotifyOnEnter: true, NotifyOnExit: true}
}

func TestFileMonitor_FullReplace(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewFileMonitor(fs, "/data/regions.yaml")
	ctx := context.Background()

	name, regions, err := m.Registered(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, regions)

	require.NoError(t, m.StartMonitoring(ctx, DefaultTaskName, []geo.Region{region("1"), region("2")}))
	require.NoError(t, m.StartMonitoring(ctx, DefaultTaskName, []geo.Region{region("2")}))

	name, regions, err = m.Registered(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskName, name)
	assert.Equal(t, []geo.Region{region("2")}, regions)

	exists, err := afero.Exists(fs, "/data/regions.yaml.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileMonitor_EmptySetStillWritten(t *testing.T) {
	m := NewFileMonitor(afero.NewMemMapFs(), "/regions.yaml")
	ctx := context.Background()
	require.NoError(t, m.StartMonitoring(ctx, DefaultTaskName, []geo.Region{region("1")}))

	require.NoError(t, m.StartMonitoring(ctx, DefaultTaskName, nil))

	name, regions, err := m.Registered(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskName, name)
	assert.Empty(t, regions)
}

func TestParseEventType(t *testing.T) {
	typ, err := ParseEventType(" ENTER ")
	require.NoError(t, err)
	assert.Equal(t, Enter, typ)

	_, err = ParseEventType("dwell")
	assert.Error(t, err)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) got() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestInbox_EmitThenDrain(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := NewRegistry()
	rec := &recorder{}
	reg.Define(DefaultTaskName, rec.handle)

	in := NewInbox(InboxConfig{Fs: fs, Dir: "/inbox", Registry: reg})
	ctx := context.Background()

	_, err := in.Emit(ctx, Event{Type: Enter, RegionID: "42"})
	require.NoError(t, err)
	_, err = in.Emit(ctx, Event{Type: Exit, RegionID: "42"})
	require.NoError(t, err)

	require.NoError(t, in.Drain(ctx))

	assert.Equal(t, []Event{{Type: Enter, RegionID: "42"}, {Type: Exit, RegionID: "42"}}, rec.got())
	assert.Equal(t, 2, in.Delivered())

	left, err := afero.ReadDir(fs, "/inbox")
	require.NoError(t, err)
	assert.Empty(t, left, "processed files are removed")
}

func TestInbox_EmitRejectsUnknownType(t *testing.T) {
	in := NewInbox(InboxConfig{Fs: afero.NewMemMapFs(), Dir: "/inbox"})
	_, err := in.Emit(context.Background(), Event{Type: "dwell", RegionID: "1"})
	assert.Error(t, err)
}

func TestInbox_MalformedFileMovedAside(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec := &recorder{}
	reg := NewRegistry()
	reg.Define(DefaultTaskName, rec.handle)
	require.NoError(t, afero.WriteFile(fs, "/inbox/1.yaml", []byte("event: teleport\nregion: \"3\"\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/inbox/2.json", []byte(`{"event":"exit","region":"3"}`), 0644))

	in := NewInbox(InboxConfig{Fs: fs, Dir: "/inbox", Registry: reg})
	require.NoError(t, in.Drain(context.Background()))

	assert.Equal(t, []Event{{Type: Exit, RegionID: "3"}}, rec.got())
	bad, err := afero.Exists(fs, "/inbox/1.yaml.bad")
	require.NoError(t, err)
	assert.True(t, bad)
}

func TestInbox_EmptyFileLeftForLaterWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec := &recorder{}
	reg := NewRegistry()
	reg.Define(DefaultTaskName, rec.handle)
	require.NoError(t, afero.WriteFile(fs, "/inbox/1.yaml", nil, 0644))

	in := NewInbox(InboxConfig{Fs: fs, Dir: "/inbox", Registry: reg})
	ctx := context.Background()
	require.NoError(t, in.Drain(ctx))

	assert.Empty(t, rec.got())
	exists, err := afero.Exists(fs, "/inbox/1.yaml")
	require.NoError(t, err)
	assert.True(t, exists, "empty file is not moved aside")
	bad, err := afero.Exists(fs, "/inbox/1.yaml.bad")
	require.NoError(t, err)
	assert.False(t, bad)

	require.NoError(t, afero.WriteFile(fs, "/inbox/1.yaml", []byte("event: enter\nregion: \"7\"\n"), 0644))
	in.Process(ctx, "/inbox/1.yaml")

	assert.Equal(t, []Event{{Type: Enter, RegionID: "7"}}, rec.got())
}

func TestInbox_UsesRegisteredTaskName(t *testing.T) {
	fs := afero.NewMemMapFs()
	mon := NewFileMonitor(fs, "/regions.yaml")
	require.NoError(t, mon.StartMonitoring(context.Background(), "custom-task", []geo.Region{region("7")}))

	rec := &recorder{}
	reg := NewRegistry()
	reg.Define("custom-task", rec.handle)

	in := NewInbox(InboxConfig{Fs: fs, Dir: "/inbox", Registry: reg, Monitor: mon})
	_, err := in.Emit(context.Background(), Event{Type: Enter, RegionID: "99"})
	require.NoError(t, err)
	require.NoError(t, in.Drain(context.Background()))

	assert.Equal(t, []Event{{Type: Enter, RegionID: "99"}}, rec.got(), "unregistered ids are still forwarded")
}

func TestInbox_NoHandlerDropsEvent(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := NewInbox(InboxConfig{Fs: fs, Dir: "/inbox"})
	_, err := in.Emit(context.Background(), Event{Type: Enter, RegionID: "1"})
	require.NoError(t, err)

	require.NoError(t, in.Drain(context.Background()))
	assert.Zero(t, in.Delivered())
}

func TestInbox_RunWatchesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	rec := &recorder{}
	reg := NewRegistry()
	reg.Define(DefaultTaskName, rec.handle)
	in := NewInbox(InboxConfig{Dir: dir, Registry: reg})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	// The watcher may not be attached yet; Emit is retried until delivery.
	require.Eventually(t, func() bool {
		if len(rec.got()) > 0 {
			return true
		}
		_, err := in.Emit(context.Background(), Event{Type: Enter, RegionID: "5"})
		return err == nil && len(rec.got()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, Event{Type: Enter, RegionID: "5"}, rec.got()[0])
}
