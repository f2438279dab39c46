package classification

import (
	"math"
	"sync"

	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/go-gl/mathgl/mgl32"
)

// Cell picked by a selection point
type SelectedCell struct {
	Cell     int
	Distance float32
}

// Finds the occupied cell closest to point. Every worker keeps its own best candidate and the
// candidates are reduced once the pool is done, ties going to the lowest cell index.
func (k *kernel) nearestCell(point mgl32.Vec3, pool *io.Pool) (SelectedCell, bool) {
	best := SelectedCell{Cell: -1, Distance: float32(math.Inf(1))}
	var mu sync.Mutex

	total := k.atlas.Capacity()
	err := pool.Run(total, pool.ChunkSize(total, 4), func(_ int, work *io.WorkUnit) error {
		local := SelectedCell{Cell: -1, Distance: float32(math.Inf(1))}
		for i := work.Start; i < work.End; i++ {
			if !k.atlas.IsOccupied(i) {
				continue
			}
			d := k.worldPosition(i).Sub(point).LenSqr()
			if d < local.Distance {
				local = SelectedCell{Cell: i, Distance: d}
			}
		}
		if local.Cell < 0 {
			return nil
		}
		mu.Lock()
		if local.Distance < best.Distance || (local.Distance == best.Distance && local.Cell < best.Cell) {
			best = local
		}
		mu.Unlock()
		return nil
	})
	if err != nil || best.Cell < 0 {
		return best, false
	}
	best.Distance = float32(math.Sqrt(float64(best.Distance)))
	return best, true
}
