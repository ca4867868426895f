// Package lattice implements a discretized (x, y, heading) planning environment
// with a fixed library of motion primitives per heading, layered cost grids for
// multiple vertical extents of the robot, and the validity/cost queries a
// graph-search planner expands edges against.
package lattice

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// InfiniteCost is the sentinel action cost for a blocked transition. The search
// planner treats it as "no edge".
const InfiniteCost = 1000000000

// Config describes the discretization and cost thresholds of a lattice environment.
type Config struct {
	// Width and Height are the grid extents in cells.
	Width  int
	Height int
	// CellSize is the side length of one grid cell in meters.
	CellSize float64
	// NumThetaDirs is the number of discrete headings.
	NumThetaDirs int

	// ObsThresh is the cost at or above which a cell is a hard obstacle.
	ObsThresh byte
	// CostInscribedThresh is the cost at or above which no orientation of the
	// robot centered on the cell is collision-free.
	CostInscribedThresh byte
	// CostPossiblyCircumscribedThresh is the cost at or above which the robot
	// may be in collision depending on its exact orientation, triggering the
	// precise footprint check.
	CostPossiblyCircumscribedThresh byte

	// Footprint is the robot's base-level footprint polygon. One or zero
	// vertices describes a point robot.
	Footprint []r2.Point
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid grid extents %dx%d", c.Width, c.Height)
	}
	if c.CellSize <= 0 {
		return errors.Errorf("invalid cell size %f", c.CellSize)
	}
	if c.NumThetaDirs <= 0 {
		return errors.Errorf("invalid number of headings %d", c.NumThetaDirs)
	}
	if c.CostInscribedThresh > c.ObsThresh {
		return errors.New("cost_inscribed_thresh must not exceed obsthresh")
	}
	if c.CostPossiblyCircumscribedThresh > c.CostInscribedThresh {
		return errors.New("cost_possibly_circumscribed_thresh must not exceed cost_inscribed_thresh")
	}
	return nil
}
