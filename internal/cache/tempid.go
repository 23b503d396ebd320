package cache

import (
	"sync/atomic"

	"github.com/josephgoksu/geotask/internal/geo"
)

// TempIDs hands out placeholder ids for items created before they are
// persisted. The counter starts at zero and only moves down, so every id is
// negative, unique for the allocator's lifetime, and can never collide with a
// store-assigned id.
type TempIDs struct {
	current atomic.Int64
}

// Next returns the next placeholder id: -1, -2, -3, ...
func (a *TempIDs) Next() geo.ItemID {
	return geo.ItemID(a.current.Add(-1))
}
