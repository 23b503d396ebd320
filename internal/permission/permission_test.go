package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Check(ctx, AllGranted()))

	err := Check(ctx, Static{ForegroundLocation: Granted})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = Check(ctx, Static{ForegroundLocation: Denied, BackgroundLocation: Granted})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFileProvider_DefaultsToUndetermined(t *testing.T) {
	p := NewFileProvider(afero.NewMemMapFs(), "/data/permissions.yaml", nil)

	s, err := p.ForegroundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Undetermined, s)
}

func TestFileProvider_SetPersists(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewFileProvider(fs, "/data/permissions.yaml", nil)

	require.NoError(t, p.Set(BackgroundLocation, Granted))

	reopened := NewFileProvider(fs, "/data/permissions.yaml", nil)
	s, err := reopened.BackgroundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Granted, s)

	require.NoError(t, reopened.Set(BackgroundLocation, Undetermined))
	s, err = p.BackgroundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Undetermined, s)
}

func TestFileProvider_RequestPromptsOnce(t *testing.T) {
	calls := 0
	prompt := PrompterFunc(func(_ context.Context, kind Kind) (bool, error) {
		calls++
		return kind != Notifications, nil
	})
	p := NewFileProvider(afero.NewMemMapFs(), "/p.yaml", prompt)
	ctx := context.Background()

	s, err := p.RequestForeground(ctx)
	require.NoError(t, err)
	assert.Equal(t, Granted, s)

	s, err = p.RequestForeground(ctx)
	require.NoError(t, err)
	assert.Equal(t, Granted, s)
	assert.Equal(t, 1, calls, "answer is remembered")

	s, err = p.RequestNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, Denied, s)
}

func TestFileProvider_NoPrompterDenies(t *testing.T) {
	p := NewFileProvider(afero.NewMemMapFs(), "/p.yaml", nil)

	s, err := p.RequestBackground(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Denied, s)
}

func TestFileProvider_PromptError(t *testing.T) {
	p := NewFileProvider(afero.NewMemMapFs(), "/p.yaml", PrompterFunc(func(context.Context, Kind) (bool, error) {
		return false, errors.New("no tty")
	}))

	_, err := p.RequestForeground(context.Background())
	require.Error(t, err)

	s, err := p.ForegroundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Undetermined, s, "a failed prompt stores nothing")
}

func TestRequestAll_SkipsBackgroundWithoutForeground(t *testing.T) {
	asked := map[Kind]int{}
	p := NewFileProvider(afero.NewMemMapFs(), "/p.yaml", PrompterFunc(func(_ context.Context, kind Kind) (bool, error) {
		asked[kind]++
		return kind == Notifications, nil
	}))

	got, err := RequestAll(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, Denied, got[ForegroundLocation])
	assert.Equal(t, Undetermined, got[BackgroundLocation])
	assert.Equal(t, Granted, got[Notifications])
	assert.Zero(t, asked[BackgroundLocation])
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("background")
	require.NoError(t, err)
	assert.Equal(t, BackgroundLocation, k)

	_, err = ParseKind("camera")
	assert.Error(t, err)
}
