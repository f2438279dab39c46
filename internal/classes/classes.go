// Package classes holds the LiDAR classification catalogue shared by the atlas builder and the
// classification stage.
package classes

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Reserved class written by the classification stage for hidden points. Polygons cannot reclassify to it.
const HiddenClass uint8 = 254

// Classes whose points feed the heightmap
var DefaultRoadClasses = []uint8{2, 10, 11, 12}

var classNames = map[uint8]string{
	0:  "unclassified",
	2:  "ground, sidewalk",
	3:  "vegetation - low",
	4:  "vegetation - medium",
	5:  "vegetation - high",
	6:  "buildings",
	8:  "street furniture",
	11: "street pavement",
	15: "cars, trucks",
}

// Returns the human readable name of a class, "unknown" for classes outside the catalogue
func Name(id uint8) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return "unknown"
}

// Returns the catalogued class ids in ascending order
func Known() []uint8 {
	ids := make([]uint8, 0, len(classNames))
	for id := range classNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func IsRoad(id uint8, roadClasses []uint8) bool {
	for _, c := range roadClasses {
		if c == id {
			return true
		}
	}
	return false
}

func IsGround(id uint8) bool {
	return id == 2 || id == 11
}

func IsVegetation(id uint8) bool {
	return id >= 3 && id <= 5
}

var palette = map[uint8]mgl32.Vec3{
	0:  {0.55, 0.55, 0.55},
	2:  {0.62, 0.45, 0.28},
	3:  {0.56, 0.86, 0.35},
	4:  {0.25, 0.70, 0.20},
	5:  {0.05, 0.45, 0.10},
	6:  {0.85, 0.25, 0.20},
	8:  {0.95, 0.60, 0.10},
	11: {0.35, 0.35, 0.40},
	15: {0.20, 0.45, 0.95},
}

// Display colour of a class. Classes outside the catalogue get a stable colour derived from their id.
func Colour(id uint8) mgl32.Vec3 {
	if c, ok := palette[id]; ok {
		return c
	}
	return HashColour(uint32(id))
}

// Spreads an id over the colour wheel, used for unknown classes and for the connectivity view
func HashColour(id uint32) mgl32.Vec3 {
	h := id*2654435761 + 0x9E3779B9
	h ^= h >> 15
	hue := float32(h%360) / 360
	return HSVToRGB(hue, 0.65, 0.9)
}

// Converts a colour in hue, saturation, value space (all in [0,1]) to RGB
func HSVToRGB(h, s, v float32) mgl32.Vec3 {
	h = h - float32(int(h))
	if h < 0 {
		h++
	}
	sector := h * 6
	i := int(sector)
	f := sector - float32(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch i % 6 {
	case 0:
		return mgl32.Vec3{v, t, p}
	case 1:
		return mgl32.Vec3{q, v, p}
	case 2:
		return mgl32.Vec3{p, v, t}
	case 3:
		return mgl32.Vec3{p, q, v}
	case 4:
		return mgl32.Vec3{t, p, v}
	default:
		return mgl32.Vec3{v, p, q}
	}
}
