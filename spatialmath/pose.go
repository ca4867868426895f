// Package spatialmath provides the planar geometry used by lattice planning:
// continuous poses, discrete grid cells, conversions between the two, and
// polygon footprint rasterization.
package spatialmath

import (
	"math"
)

// Pose is a continuous planar robot pose.
type Pose struct {
	X     float64 // meters
	Y     float64 // meters
	Theta float64 // radians
}

// Cell is a discrete grid cell.
type Cell struct {
	X int
	Y int
}

// ContXYToDisc converts a continuous coordinate to the index of the cell containing it.
func ContXYToDisc(x, cellSize float64) int {
	if x >= 0 {
		return int(x / cellSize)
	}
	return int(x/cellSize) - 1
}

// DiscXYToCont converts a cell index to the continuous coordinate of the cell center.
func DiscXYToCont(x int, cellSize float64) float64 {
	return float64(x)*cellSize + cellSize/2.0
}

// DiscThetaToCont converts a discrete heading index to a continuous angle in radians.
func DiscThetaToCont(theta, numThetaDirs int) float64 {
	binSize := 2 * math.Pi / float64(numThetaDirs)
	return NormalizeAngle(float64(theta) * binSize)
}

// ContThetaToDisc converts a continuous angle to the nearest discrete heading index.
func ContThetaToDisc(theta float64, numThetaDirs int) int {
	binSize := 2 * math.Pi / float64(numThetaDirs)
	return int(NormalizeAngle(theta+binSize/2.0)/(2*math.Pi)*float64(numThetaDirs)) % numThetaDirs
}

// NormalizeAngle returns the given angle in the [0, 2pi) range.
func NormalizeAngle(theta float64) float64 {
	return theta - 2*math.Pi*math.Floor(theta/(2*math.Pi))
}

// AngleDiff returns the shortest signed angular distance from one angle to another.
func AngleDiff(from, to float64) float64 {
	diff := NormalizeAngle(to - from)
	if diff > math.Pi {
		diff -= 2 * math.Pi
	}
	return diff
}
