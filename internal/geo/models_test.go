package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFor_RequiresCompleteGeometry(t *testing.T) {
	task := Task{ID: 7, Name: "Groceries"}
	_, ok := RegionFor(task)
	assert.False(t, ok, "no geometry")

	task.Latitude = Float(1.0)
	task.Longitude = Float(2.0)
	_, ok = RegionFor(task)
	assert.False(t, ok, "radius missing")

	task.Radius = Float(50)
	r, ok := RegionFor(task)
	require.True(t, ok)
	assert.Equal(t, Region{
		Identifier:    "7",
		Latitude:      1.0,
		Longitude:     2.0,
		Radius:        50,
		NotifyOnEnter: true,
		NotifyOnExit:  true,
	}, r)

	task.Latitude = nil
	_, ok = RegionFor(task)
	assert.False(t, ok, "latitude removed")
}

func TestItemID_IsTemporary(t *testing.T) {
	assert.True(t, ItemID(-1).IsTemporary())
	assert.False(t, ItemID(1).IsTemporary())
	assert.False(t, ItemID(0).IsTemporary())
}

func TestTaskClone_DoesNotSharePointers(t *testing.T) {
	orig := Task{ID: 1, Latitude: Float(10), Longitude: Float(20), Radius: Float(30)}
	c := orig.Clone()
	*c.Latitude = 99

	assert.Equal(t, 10.0, *orig.Latitude)
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		radius  float64
		wantErr bool
	}{
		{"valid", 51.5, -0.12, 100, false},
		{"edge values", -90, 180, 0.5, false},
		{"latitude too large", 91, 0, 10, true},
		{"longitude too small", 0, -181, 10, true},
		{"zero radius", 0, 0, 0, true},
		{"negative radius", 0, 0, -5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.lat, tt.lon, tt.radius)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGeometry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTaskID(t *testing.T) {
	id, err := ParseTaskID("42")
	require.NoError(t, err)
	assert.Equal(t, TaskID(42), id)

	_, err = ParseTaskID("")
	assert.Error(t, err)
}
