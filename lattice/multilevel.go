package lattice

import (
	"context"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/latticeplan/latticeplan/spatialmath"
	"github.com/latticeplan/latticeplan/utils"
)

// MultiLevelEnvironment extends the base lattice environment with additional
// height/clearance levels, each with its own cost grid and footprint polygon.
// Every query combines the base level with all additional levels
// conservatively: a hazard visible at any single level dominates.
//
// Level 0 of the additional levels is distinct from the base level; a query
// such as IsValidCellAtLevel(x, y, 0) addresses the first additional level.
type MultiLevelEnvironment struct {
	*Environment

	numLevels       int
	levelGrids      []*costGrid
	levelFootprints [][]r2.Point
	// levelSwept is a flat table addressed by (heading, action, level); see
	// sweptIndex. Each entry is a list of cell offsets from the source cell.
	levelSwept [][]spatialmath.Cell

	initialized     bool
	footprintChecks int64
}

// NewMultiLevelEnvironment wraps a base environment. InitializeAdditionalLevels
// must be called exactly once before any level query, load, or update.
func NewMultiLevelEnvironment(base *Environment) *MultiLevelEnvironment {
	return &MultiLevelEnvironment{Environment: base}
}

// InitializeAdditionalLevels allocates numLevels zeroed cost grids sized to the
// base grid, stores one footprint polygon per level, and precomputes the
// per-(heading, action, level) swept-cell tables. The precompute depends only
// on footprint geometry and the motion-primitive library, never on occupancy,
// so grids may be loaded and updated afterwards without re-running it.
func (m *MultiLevelEnvironment) InitializeAdditionalLevels(ctx context.Context, numLevels int, footprints [][]r2.Point) error {
	if m.initialized {
		return errors.New("additional levels already initialized")
	}
	if numLevels < 0 {
		return errors.Errorf("invalid number of additional levels %d", numLevels)
	}
	if len(footprints) < numLevels {
		return errors.Errorf("have %d footprints for %d additional levels", len(footprints), numLevels)
	}

	m.numLevels = numLevels
	m.levelFootprints = make([][]r2.Point, numLevels)
	m.levelGrids = make([]*costGrid, numLevels)
	for lev := 0; lev < numLevels; lev++ {
		m.levelFootprints[lev] = append([]r2.Point(nil), footprints[lev]...)
		m.levelGrids[lev] = newCostGrid(m.cfg.Width, m.cfg.Height)
	}
	m.logger.Debugf("planning with %d additional levels", numLevels)

	m.levelSwept = make([][]spatialmath.Cell, m.cfg.NumThetaDirs*m.ActionWidth()*numLevels)
	if numLevels > 0 {
		// per-heading table slots are disjoint, so headings precompute in parallel
		if err := utils.GroupWorkParallel(
			ctx,
			m.cfg.NumThetaDirs,
			func(groupSize int) {},
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					m.precomputeHeading(workNum)
				}, nil
			},
		); err != nil {
			return err
		}
	}

	m.initialized = true
	return nil
}

// precomputeHeading fills the swept-cell table slots of one heading.
func (m *MultiLevelEnvironment) precomputeHeading(theta int) {
	m.logger.Debugf("precomputing level swept cells for heading %d of %d", theta, m.cfg.NumThetaDirs)
	sourcePose := m.poseForCell(0, 0, theta)
	for aind, action := range m.actions[theta] {
		for lev := 0; lev < m.numLevels; lev++ {
			m.levelSwept[m.sweptIndex(theta, aind, lev)] = sweptCellsForAction(
				action, sourcePose, m.levelFootprints[lev], m.cfg.CellSize)
		}
	}
}

func (m *MultiLevelEnvironment) sweptIndex(theta, aind, level int) int {
	return (theta*m.ActionWidth()+aind)*m.numLevels + level
}

// NumLevels returns the number of additional levels.
func (m *MultiLevelEnvironment) NumLevels() int {
	return m.numLevels
}

// FootprintChecks returns how many times the precise footprint sweep check has
// run, for diagnostics.
func (m *MultiLevelEnvironment) FootprintChecks() int64 {
	return m.footprintChecks
}

// Close releases all level grids, footprint storage, and the precomputed
// swept-cell tables. Closing twice is a no-op.
func (m *MultiLevelEnvironment) Close() {
	m.numLevels = 0
	m.levelGrids = nil
	m.levelFootprints = nil
	m.levelSwept = nil
	m.initialized = false
}

// checkLevel panics on an out-of-range level index. Always active, in every
// build configuration.
func (m *MultiLevelEnvironment) checkLevel(level int) {
	if level < 0 || level >= m.numLevels {
		panic(fmt.Sprintf("level %d out of range, have %d additional levels", level, m.numLevels))
	}
}

// SetLevelMap bulk-overwrites one additional level's cost grid from a
// row-major buffer of width*height cells.
func (m *MultiLevelEnvironment) SetLevelMap(level int, data []byte) error {
	if !m.initialized {
		return errors.New("additional levels not initialized")
	}
	if level < 0 || level >= m.numLevels {
		return errors.Errorf("level %d out of range, have %d additional levels", level, m.numLevels)
	}
	return m.levelGrids[level].load(data)
}

// UpdateLevelCost overwrites the cost of a single cell of one additional
// level. No derived structure needs recomputation.
func (m *MultiLevelEnvironment) UpdateLevelCost(x, y int, cost byte, level int) error {
	if !m.initialized {
		return errors.New("additional levels not initialized")
	}
	if level < 0 || level >= m.numLevels {
		return errors.Errorf("level %d out of range, have %d additional levels", level, m.numLevels)
	}
	if !m.grid.in(x, y) {
		return errors.Errorf("cell (%d, %d) outside %dx%d grid", x, y, m.cfg.Width, m.cfg.Height)
	}
	m.levelGrids[level].set(x, y, cost)
	return nil
}

// IsValidCell reports whether the cell is within map limits and traversable at
// the base level and at every additional level.
func (m *MultiLevelEnvironment) IsValidCell(x, y int) bool {
	if !m.Environment.IsValidCell(x, y) {
		return false
	}
	for lev := 0; lev < m.numLevels; lev++ {
		if m.levelGrids[lev].at(x, y) >= m.cfg.ObsThresh {
			return false
		}
	}
	return true
}

// IsValidCellAtLevel reports whether the cell is within map limits and
// traversable at one particular additional level.
func (m *MultiLevelEnvironment) IsValidCellAtLevel(x, y, level int) bool {
	return m.grid.in(x, y) && level >= 0 && level < m.numLevels &&
		m.levelGrids[level].at(x, y) < m.cfg.ObsThresh
}

// IsObstacle reports whether the cell is a hard obstacle at the base level or
// at any additional level.
func (m *MultiLevelEnvironment) IsObstacle(x, y int) bool {
	if m.Environment.IsObstacle(x, y) {
		return true
	}
	for lev := 0; lev < m.numLevels; lev++ {
		if m.levelGrids[lev].at(x, y) >= m.cfg.ObsThresh {
			return true
		}
	}
	return false
}

// IsObstacleAtLevel reports whether the cell is a hard obstacle at one
// particular additional level. Cells outside the map count as obstacles.
func (m *MultiLevelEnvironment) IsObstacleAtLevel(x, y, level int) bool {
	m.checkLevel(level)
	return !m.grid.in(x, y) || m.levelGrids[level].at(x, y) >= m.cfg.ObsThresh
}

// GetMapCost returns the maximum cost of the cell across the base grid and all
// additional levels.
func (m *MultiLevelEnvironment) GetMapCost(x, y int) byte {
	cost := m.Environment.GetMapCost(x, y)
	for lev := 0; lev < m.numLevels; lev++ {
		cost = utils.MaxByte(cost, m.levelGrids[lev].at(x, y))
	}
	return cost
}

// GetMapCostAtLevel returns the cost of the cell at one particular additional
// level.
func (m *MultiLevelEnvironment) GetMapCostAtLevel(x, y, level int) byte {
	m.checkLevel(level)
	m.checkCell(x, y)
	return m.levelGrids[level].at(x, y)
}

// IsValidConfiguration reports whether every level's footprint placed at the
// given discrete pose lies fully within map limits and clear of hard
// obstacles, the base level included.
func (m *MultiLevelEnvironment) IsValidConfiguration(x, y, theta int) bool {
	if !m.Environment.IsValidConfiguration(x, y, theta) {
		return false
	}
	pose := m.poseForCell(x, y, theta)
	for lev := 0; lev < m.numLevels; lev++ {
		for _, c := range spatialmath.FootprintCells(pose, m.levelFootprints[lev], m.cfg.CellSize) {
			if !m.grid.in(c.X, c.Y) || m.levelGrids[lev].at(c.X, c.Y) >= m.cfg.ObsThresh {
				return false
			}
		}
	}
	return true
}

// GetActionCost returns the larger of the base environment's action cost and
// the cost across all additional levels.
func (m *MultiLevelEnvironment) GetActionCost(sourceX, sourceY, sourceTheta int, action *Action) int {
	baseCost := m.Environment.GetActionCost(sourceX, sourceY, sourceTheta, action)
	levelCost := m.getActionCostAcrossLevels(sourceX, sourceY, sourceTheta, action)
	if baseCost > levelCost {
		return baseCost
	}
	return levelCost
}

// getActionCostAcrossLevels computes the action cost considering only the
// additional levels. Center cells of the trajectory are walked first (broad
// phase, tracking the running maximum cost overall and per level); the
// precomputed footprint sweep of a level is consulted only when that level's
// center-cell maximum reaches the possibly-circumscribed threshold (narrow
// phase). The returned cost reflects the center-cell maximum even when the
// narrow phase confirms no intersection; that conservative behavior is
// deliberate, downstream planners rely on its monotonicity.
func (m *MultiLevelEnvironment) getActionCostAcrossLevels(sourceX, sourceY, sourceTheta int, action *Action) int {
	if !m.IsValidCell(sourceX, sourceY) {
		return InfiniteCost
	}
	destX, destY := sourceX+action.DX, sourceY+action.DY
	if !m.IsValidCell(destX, destY) {
		return InfiniteCost
	}

	// with no additional levels, the base cost alone decides
	if m.numLevels == 0 {
		return 0
	}

	for lev := 0; lev < m.numLevels; lev++ {
		if m.levelGrids[lev].at(destX, destY) >= m.cfg.CostInscribedThresh {
			return InfiniteCost
		}
	}

	// broad phase
	var maxCellCost byte
	maxAtLevel := make([]byte, m.numLevels)
	for _, c := range action.IntermCells {
		x, y := c.X+sourceX, c.Y+sourceY
		if !m.grid.in(x, y) {
			maxCellCost = m.cfg.ObsThresh
			break
		}
		for lev := 0; lev < m.numLevels; lev++ {
			cost := m.levelGrids[lev].at(x, y)
			maxCellCost = utils.MaxByte(maxCellCost, cost)
			maxAtLevel[lev] = utils.MaxByte(maxAtLevel[lev], cost)
		}
		// no orientation of the robot is valid in such a cell
		if maxCellCost >= m.cfg.CostInscribedThresh {
			maxCellCost = m.cfg.ObsThresh
			break
		}
	}

	// narrow phase
	for lev := 0; lev < m.numLevels && maxCellCost < m.cfg.ObsThresh; lev++ {
		if len(m.levelFootprints[lev]) <= 1 || maxAtLevel[lev] < m.cfg.CostPossiblyCircumscribedThresh {
			continue
		}
		m.footprintChecks++
		for _, c := range m.levelSwept[m.sweptIndex(sourceTheta, action.Index, lev)] {
			if !m.IsValidCellAtLevel(c.X+sourceX, c.Y+sourceY, lev) {
				maxCellCost = m.cfg.ObsThresh
				break
			}
		}
	}

	if maxCellCost >= m.cfg.ObsThresh {
		return InfiniteCost
	}
	// cell cost is a multiplicative factor on the nominal action cost
	return action.Cost * (int(maxCellCost) + 1)
}
