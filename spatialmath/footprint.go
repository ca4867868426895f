package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

// FootprintCells rasterizes the given footprint polygon placed at the given pose and
// returns the cells whose centers fall inside it. A polygon with one or zero vertices
// is treated as a point robot occupying only the cell containing the pose.
func FootprintCells(pose Pose, polygon []r2.Point, cellSize float64) []Cell {
	return AppendFootprintCells(nil, pose, polygon, cellSize)
}

// AppendFootprintCells appends the footprint cells for the given pose to cells and
// returns the extended slice. Cells already present are appended again; callers that
// union footprints over several poses are expected to coalesce duplicates themselves.
func AppendFootprintCells(cells []Cell, pose Pose, polygon []r2.Point, cellSize float64) []Cell {
	if len(polygon) <= 1 {
		return append(cells, Cell{ContXYToDisc(pose.X, cellSize), ContXYToDisc(pose.Y, cellSize)})
	}

	sin, cos := math.Sincos(pose.Theta)
	xs := make([]float64, len(polygon))
	ys := make([]float64, len(polygon))
	transformed := make([]r2.Point, len(polygon))
	for i, pt := range polygon {
		xs[i] = pose.X + pt.X*cos - pt.Y*sin
		ys[i] = pose.Y + pt.X*sin + pt.Y*cos
		transformed[i] = r2.Point{X: xs[i], Y: ys[i]}
	}

	minCellX := ContXYToDisc(floats.Min(xs), cellSize)
	maxCellX := ContXYToDisc(floats.Max(xs), cellSize)
	minCellY := ContXYToDisc(floats.Min(ys), cellSize)
	maxCellY := ContXYToDisc(floats.Max(ys), cellSize)

	for cellX := minCellX; cellX <= maxCellX; cellX++ {
		for cellY := minCellY; cellY <= maxCellY; cellY++ {
			center := r2.Point{X: DiscXYToCont(cellX, cellSize), Y: DiscXYToCont(cellY, cellSize)}
			if insidePolygon(center, transformed) {
				cells = append(cells, Cell{cellX, cellY})
			}
		}
	}
	return cells
}

// RemoveSourceFootprint returns cells with every cell covered by the footprint at
// the source pose removed. The robot's own starting footprint never counts as swept.
func RemoveSourceFootprint(cells []Cell, sourcePose Pose, polygon []r2.Point, cellSize float64) []Cell {
	source := FootprintCells(sourcePose, polygon, cellSize)
	if len(source) == 0 {
		return cells
	}
	drop := make(map[Cell]struct{}, len(source))
	for _, c := range source {
		drop[c] = struct{}{}
	}
	kept := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}

// insidePolygon reports whether pt lies strictly inside the polygon, by ray casting.
func insidePolygon(pt r2.Point, polygon []r2.Point) bool {
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}
