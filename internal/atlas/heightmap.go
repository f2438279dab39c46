package atlas

import (
	"sort"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"gonum.org/v1/gonum/stat"
)

// Elevation given to cells far from any road sample when the atlas has no road points
const EmptyHeightmapElevation = 0.5

// Describes how the heightmap was derived
type HeightmapInfo struct {
	RoadClasses      []uint8
	BlendRadius      int
	RoadSamples      int
	DefaultElevation float64
}

// Fills the heightmap of an atlas whose position and colour textures are already written. Occupied road
// cells provide their normalized elevation as samples, every cell then receives the average of the samples
// within a square window of the given radius. Cells with no sample in range get the median road
// elevation.
func buildHeightmap(a *Atlas, roadClasses []uint8, radius int, pool *io.Pool) (HeightmapInfo, error) {
	size := a.Size
	cells := size * size
	info := HeightmapInfo{
		RoadClasses: append([]uint8(nil), roadClasses...),
		BlendRadius: radius,
	}

	samples := make([]float32, cells)
	counts := make([]uint32, cells)
	var roadValues []float64
	for i := 0; i < cells; i++ {
		if !a.IsOccupied(i) || !classes.IsRoad(a.Classification(i), roadClasses) {
			continue
		}
		y := a.Position[i*4+1]
		samples[i] = y
		counts[i] = 1
		roadValues = append(roadValues, float64(y))
	}
	info.RoadSamples = len(roadValues)

	info.DefaultElevation = EmptyHeightmapElevation
	if len(roadValues) > 0 {
		sort.Float64s(roadValues)
		info.DefaultElevation = stat.Quantile(0.5, stat.Empirical, roadValues, nil)
	}

	// horizontal running window, one work unit per band of rows
	rowSums := make([]float32, cells)
	rowCounts := make([]uint32, cells)
	err := pool.Run(size, pool.ChunkSize(size, 4), func(worker int, w *io.WorkUnit) error {
		for y := w.Start; y < w.End; y++ {
			row := y * size
			slideWindow(size, radius,
				func(x int) (float64, uint32) { return float64(samples[row+x]), counts[row+x] },
				func(x int, sum float64, count uint32) {
					rowSums[row+x] = float32(sum)
					rowCounts[row+x] = count
				})
		}
		return nil
	})
	if err != nil {
		return info, err
	}

	// vertical running window over the row results, one work unit per band of columns
	fallback := float32(info.DefaultElevation)
	err = pool.Run(size, pool.ChunkSize(size, 4), func(worker int, w *io.WorkUnit) error {
		for x := w.Start; x < w.End; x++ {
			slideWindow(size, radius,
				func(y int) (float64, uint32) { return float64(rowSums[y*size+x]), rowCounts[y*size+x] },
				func(y int, sum float64, count uint32) {
					if count == 0 {
						a.Heightmap[y*size+x] = fallback
						return
					}
					a.Heightmap[y*size+x] = float32(sum / float64(count))
				})
		}
		return nil
	})
	return info, err
}

// Computes for every position of a line of length n the sum and count of the values within radius,
// sliding the window instead of summing it again at every step
func slideWindow(n int, radius int, get func(int) (float64, uint32), set func(int, float64, uint32)) {
	var sum float64
	var count uint32

	for i := 0; i < n && i <= radius; i++ {
		v, c := get(i)
		sum += v
		count += c
	}

	for i := 0; i < n; i++ {
		set(i, sum, count)

		if enter := i + radius + 1; enter < n {
			v, c := get(enter)
			sum += v
			count += c
		}
		if leave := i - radius; leave >= 0 {
			v, c := get(leave)
			sum -= v
			count -= c
		}
	}
}
