package converters

// Adjusts the elevation of a point expressed in source coordinates (z up)
type ElevationCorrector interface {
	CorrectElevation(x, y, z float64) float64
}
