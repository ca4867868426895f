package lattice

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/latticeplan/latticeplan/spatialmath"
	"github.com/latticeplan/latticeplan/utils"
)

// Environment is the base single-level lattice environment: one cost grid, one
// robot footprint, and a fixed motion-primitive library per heading.
//
// Grid mutation and queries are not safe for concurrent use; the planner and
// the map-update pipeline must serialize access.
type Environment struct {
	cfg     Config
	logger  golog.Logger
	grid    *costGrid
	actions [][]*Action
	// swept[theta][aind] holds the footprint sweep of each primitive as cell
	// offsets from the source cell, source footprint excluded.
	swept [][][]spatialmath.Cell
}

// NewEnvironment creates a base environment with the default motion-primitive
// library for the config's heading count.
func NewEnvironment(cfg Config, logger golog.Logger) (*Environment, error) {
	actions, err := DefaultActions(&cfg)
	if err != nil {
		return nil, err
	}
	return NewEnvironmentFromActions(cfg, actions, logger)
}

// NewEnvironmentFromActions creates a base environment around a caller-supplied
// motion-primitive library.
func NewEnvironmentFromActions(cfg Config, actions [][]*Action, logger golog.Logger) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid lattice config")
	}
	if err := validateActions(&cfg, actions); err != nil {
		return nil, errors.Wrap(err, "invalid motion-primitive library")
	}
	env := &Environment{
		cfg:     cfg,
		logger:  logger,
		grid:    newCostGrid(cfg.Width, cfg.Height),
		actions: actions,
	}
	env.swept = env.precomputeSweptCells(cfg.Footprint)
	logger.Debugf("precomputed swept cells for %d headings x %d actions", cfg.NumThetaDirs, env.ActionWidth())
	return env, nil
}

// precomputeSweptCells builds the per-(heading, action) footprint sweep tables
// for the given footprint polygon. Purely geometric; occupancy never affects it.
func (e *Environment) precomputeSweptCells(polygon []r2.Point) [][][]spatialmath.Cell {
	swept := make([][][]spatialmath.Cell, e.cfg.NumThetaDirs)
	for theta := 0; theta < e.cfg.NumThetaDirs; theta++ {
		sourcePose := e.poseForCell(0, 0, theta)
		perHeading := make([][]spatialmath.Cell, len(e.actions[theta]))
		for aind, action := range e.actions[theta] {
			perHeading[aind] = sweptCellsForAction(action, sourcePose, polygon, e.cfg.CellSize)
		}
		swept[theta] = perHeading
	}
	return swept
}

// Config returns a copy of the environment's configuration.
func (e *Environment) Config() Config {
	return e.cfg
}

// Actions returns the motion primitives available from the given heading.
func (e *Environment) Actions(theta int) []*Action {
	return e.actions[theta]
}

// ActionWidth returns the number of motion primitives per heading.
func (e *Environment) ActionWidth() int {
	return len(e.actions[0])
}

// poseForCell returns the continuous pose at the center of the given cell.
func (e *Environment) poseForCell(x, y, theta int) spatialmath.Pose {
	return spatialmath.Pose{
		X:     spatialmath.DiscXYToCont(x, e.cfg.CellSize),
		Y:     spatialmath.DiscXYToCont(y, e.cfg.CellSize),
		Theta: spatialmath.DiscThetaToCont(theta, e.cfg.NumThetaDirs),
	}
}

// SetMap bulk-overwrites the base cost grid from a row-major buffer of
// width*height cells.
func (e *Environment) SetMap(data []byte) error {
	return e.grid.load(data)
}

// UpdateCost overwrites the cost of a single base-grid cell.
func (e *Environment) UpdateCost(x, y int, cost byte) error {
	if !e.grid.in(x, y) {
		return errors.Errorf("cell (%d, %d) outside %dx%d grid", x, y, e.cfg.Width, e.cfg.Height)
	}
	e.grid.set(x, y, cost)
	return nil
}

// GetMapCost returns the base-grid cost of the given cell.
func (e *Environment) GetMapCost(x, y int) byte {
	e.checkCell(x, y)
	return e.grid.at(x, y)
}

// IsValidCell reports whether the cell is within map limits and traversable.
func (e *Environment) IsValidCell(x, y int) bool {
	return e.grid.in(x, y) && e.grid.at(x, y) < e.cfg.ObsThresh
}

// IsObstacle reports whether the cell is a hard obstacle. Cells outside the
// map count as obstacles.
func (e *Environment) IsObstacle(x, y int) bool {
	return !e.grid.in(x, y) || e.grid.at(x, y) >= e.cfg.ObsThresh
}

// IsValidConfiguration reports whether the robot footprint placed at the given
// discrete pose lies fully within map limits and clear of hard obstacles.
func (e *Environment) IsValidConfiguration(x, y, theta int) bool {
	pose := e.poseForCell(x, y, theta)
	for _, c := range spatialmath.FootprintCells(pose, e.cfg.Footprint, e.cfg.CellSize) {
		if !e.IsValidCell(c.X, c.Y) {
			return false
		}
	}
	return true
}

// GetActionCost returns the cost of executing the action from the given source
// pose, scaled by the worst cell cost encountered along the way, or
// InfiniteCost if the transition is blocked.
func (e *Environment) GetActionCost(sourceX, sourceY, sourceTheta int, action *Action) int {
	if !e.IsValidCell(sourceX, sourceY) {
		return InfiniteCost
	}
	destX, destY := sourceX+action.DX, sourceY+action.DY
	if !e.IsValidCell(destX, destY) {
		return InfiniteCost
	}
	if e.grid.at(destX, destY) >= e.cfg.CostInscribedThresh {
		return InfiniteCost
	}

	// broad phase: walk the trajectory's center cells
	var maxCellCost byte
	for _, c := range action.IntermCells {
		x, y := c.X+sourceX, c.Y+sourceY
		if !e.grid.in(x, y) {
			return InfiniteCost
		}
		maxCellCost = utils.MaxByte(maxCellCost, e.grid.at(x, y))
		if maxCellCost >= e.cfg.CostInscribedThresh {
			return InfiniteCost
		}
	}

	// narrow phase: only when the center cells suggest a possible grazing
	// collision and the robot is not a point
	if len(e.cfg.Footprint) > 1 && maxCellCost >= e.cfg.CostPossiblyCircumscribedThresh {
		for _, c := range e.swept[sourceTheta][action.Index] {
			if !e.IsValidCell(c.X+sourceX, c.Y+sourceY) {
				return InfiniteCost
			}
		}
	}

	// source and destination cell costs participate in the multiplier
	currentMax := utils.MaxByte(maxCellCost, utils.MaxByte(e.grid.at(sourceX, sourceY), e.grid.at(destX, destY)))
	return action.Cost * (int(currentMax) + 1)
}

// checkCell panics on out-of-range cell coordinates. Always active, in every
// build configuration.
func (e *Environment) checkCell(x, y int) {
	if !e.grid.in(x, y) {
		panic(fmt.Sprintf("cell (%d, %d) outside %dx%d grid", x, y, e.cfg.Width, e.cfg.Height))
	}
}
