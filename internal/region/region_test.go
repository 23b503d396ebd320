package region

import (
	"context"
	"errors"
	"testing"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/logger"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/platform"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	calls [][]geo.Region
	name  string
	err   error
}

func (f *fakeMonitor) StartMonitoring(_ context.Context, name string, regions []geo.Region) error {
	if f.err != nil {
		return f.err
	}
	f.name = name
	f.calls = append(f.calls, append([]geo.Region(nil), regions...))
	return nil
}

func (f *fakeMonitor) Registered(context.Context) (string, []geo.Region, error) {
	if len(f.calls) == 0 {
		return "", nil, nil
	}
	return f.name, f.calls[len(f.calls)-1], nil
}

func groceries() geo.Task {
	return geo.Task{ID: 1, Name: "Groceries", Latitude: geo.Float(1), Longitude: geo.Float(2), Radius: geo.Float(50)}
}

func groceriesRegion() geo.Region {
	return geo.Region{Identifier: "1", Latitude: 1, Longitude: 2, Radius: 50, NotifyOnEnter: true, NotifyOnExit: true}
}

func newManager(c *cache.Cache, mon platform.Monitor, perms permission.Provider) *Manager {
	return NewManager(Config{Cache: c, Monitor: mon, Permissions: perms, Logger: logger.Discard()})
}

func TestDesired_OnlyCompleteGeometry(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	c.UpsertTask(geo.Task{ID: 2, Name: "Partial", Latitude: geo.Float(1), Longitude: geo.Float(2)})
	c.UpsertTask(geo.Task{ID: 10, Name: "Gym", Latitude: geo.Float(5), Longitude: geo.Float(6), Radius: geo.Float(10)})

	got := Desired(c.Snapshot())

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Identifier)
	assert.Equal(t, "10", got[1].Identifier)
}

func TestReconcile_GroceriesScenario(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	mon := &fakeMonitor{}
	m := newManager(c, mon, permission.AllGranted())

	out, err := m.Reconcile(context.Background())

	require.NoError(t, err)
	assert.True(t, out.Changed)
	require.Len(t, mon.calls, 1)
	assert.Equal(t, []geo.Region{groceriesRegion()}, mon.calls[0])
	assert.Equal(t, platform.DefaultTaskName, mon.name)
	assert.Equal(t, []geo.Region{groceriesRegion()}, c.ListRegions())
}

func TestReconcile_NoChangeNoCall(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	mon := &fakeMonitor{}
	m := newManager(c, mon, permission.AllGranted())

	_, err := m.Reconcile(context.Background())
	require.NoError(t, err)
	out, err := m.Reconcile(context.Background())
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Len(t, mon.calls, 1)
}

func TestReconcile_SubmitsFullSetAfterDelete(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	c.UpsertTask(geo.Task{ID: 2, Name: "Gym", Latitude: geo.Float(5), Longitude: geo.Float(6), Radius: geo.Float(10)})
	mon := &fakeMonitor{}
	m := newManager(c, mon, permission.AllGranted())
	_, err := m.Reconcile(context.Background())
	require.NoError(t, err)

	c.RemoveTask(2)
	_, err = m.Reconcile(context.Background())
	require.NoError(t, err)

	require.Len(t, mon.calls, 2)
	assert.Equal(t, []geo.Region{groceriesRegion()}, mon.calls[1])

	c.RemoveTask(1)
	_, err = m.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mon.calls[2], "an empty set is still submitted")
}

func TestReconcile_PermissionDeniedKeepsState(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	mon := &fakeMonitor{}
	m := newManager(c, mon, permission.Static{permission.ForegroundLocation: permission.Granted})

	_, err := m.Reconcile(context.Background())

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, mon.calls)
	assert.Empty(t, c.ListRegions())
	assert.True(t, c.Snapshot().Tasks()[0].HasGeometry(), "geometry edit is not rolled back")
}

func TestReconcile_PlatformFailureRetried(t *testing.T) {
	c := cache.New()
	c.UpsertTask(groceries())
	mon := &fakeMonitor{err: errors.New("registration rejected")}
	m := newManager(c, mon, permission.AllGranted())

	_, err := m.Reconcile(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.ListRegions())

	mon.err = nil
	out, err := m.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Changed)
}

func TestRestore_SeedsCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	mon := platform.NewFileMonitor(fs, "/regions.yaml")
	require.NoError(t, mon.StartMonitoring(context.Background(), platform.DefaultTaskName, []geo.Region{groceriesRegion()}))

	c := cache.New()
	c.UpsertTask(groceries())
	var outcomes []Outcome
	m := NewManager(Config{
		Cache: c, Monitor: mon, Permissions: permission.AllGranted(), Logger: logger.Discard(),
		Observe: func(o Outcome, _ error) { outcomes = append(outcomes, o) },
	})

	require.NoError(t, m.Restore(context.Background()))
	out, err := m.Reconcile(context.Background())

	require.NoError(t, err)
	assert.False(t, out.Changed, "already registered before restart")
	assert.Len(t, outcomes, 1)
}

func TestRestore_IgnoresOtherHandlerName(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	mon := platform.NewFileMonitor(fs, "/regions.yaml")
	require.NoError(t, mon.StartMonitoring(ctx, platform.DefaultTaskName, []geo.Region{groceriesRegion()}))

	c := cache.New()
	c.UpsertTask(groceries())
	m := NewManager(Config{
		Cache: c, Monitor: mon, Permissions: permission.AllGranted(),
		TaskName: "renamed-task", Logger: logger.Discard(),
	})

	require.NoError(t, m.Restore(ctx))
	assert.Empty(t, c.ListRegions())

	out, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, out.Changed)

	name, regions, err := mon.Registered(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed-task", name)
	assert.Equal(t, []geo.Region{groceriesRegion()}, regions)
}
