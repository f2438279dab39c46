package atlas

import "github.com/ecopia-map/pointcloud_atlas/internal/data"

// Result of the colour presence detection
type ColourStats struct {
	HasColour    bool
	Samples      int
	ColourPoints int
}

// Samples up to sampleSize points at an even stride and reports colour as present when at least one of
// them carries a colour and the sampled colours are not all identical. A constant colour is what
// exporters write when the capture had none.
func DetectColour(points []*data.Point, sampleSize int) ColourStats {
	stats := ColourStats{}
	if len(points) == 0 || sampleSize < 1 {
		return stats
	}

	stride := len(points) / sampleSize
	if stride < 1 {
		stride = 1
	}

	var first [3]uint8
	seen := false
	varies := false
	for i := 0; i < len(points) && stats.Samples < sampleSize; i += stride {
		p := points[i]
		stats.Samples++
		if !p.HasColour {
			continue
		}
		stats.ColourPoints++
		rgb := [3]uint8{p.R, p.G, p.B}
		if !seen {
			first = rgb
			seen = true
		} else if rgb != first {
			varies = true
		}
	}

	stats.HasColour = stats.ColourPoints > 0 && varies
	return stats
}
