package lattice

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/latticeplan/latticeplan/spatialmath"
)

// Cost multipliers for the default primitive set. Costs scale with the Euclidean
// length of the move at nominal 1000 per cell, so that the cell-cost multiplier
// applied at query time stays integral.
const (
	defaultCostPerCell   = 1000
	defaultTurnCost      = 1000
	defaultBackwardMult  = 5.0
	defaultArcMult       = 1.5
	defaultIntermSamples = 10
)

// Action is one motion primitive: a short precomputed kinematic trajectory from
// one discrete heading to another, with a nominal traversal cost.
type Action struct {
	// Index is the position of this action within its heading's action list.
	Index int
	// StartTheta and EndTheta are discrete heading indices.
	StartTheta int
	EndTheta   int
	// DX and DY are the total displacement in cells.
	DX int
	DY int
	// Cost is the nominal traversal cost, before cell-cost scaling.
	Cost int
	// IntermPoses are continuous poses along the trajectory, relative to the
	// canonical origin cell; headings are absolute.
	IntermPoses []spatialmath.Pose
	// IntermCells are the discretized center cells the trajectory passes
	// through, relative to the source cell, with consecutive duplicates removed.
	IntermCells []spatialmath.Cell
}

// DefaultActions builds the default per-heading motion-primitive library:
// straight moves of one and two cells, a backward move, in-place turns to the
// two neighboring headings, and forward arcs that end at a neighboring heading.
func DefaultActions(cfg *Config) ([][]*Action, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	actions := make([][]*Action, cfg.NumThetaDirs)
	for theta := 0; theta < cfg.NumThetaDirs; theta++ {
		angle := spatialmath.DiscThetaToCont(theta, cfg.NumThetaDirs)
		// project the heading onto the 8-connected cell neighborhood
		div := math.Max(math.Abs(math.Cos(angle)), math.Abs(math.Sin(angle)))
		dx := int(math.Round(math.Cos(angle) / div))
		dy := int(math.Round(math.Sin(angle) / div))

		left := (theta + 1) % cfg.NumThetaDirs
		right := (theta - 1 + cfg.NumThetaDirs) % cfg.NumThetaDirs
		moveCost := int(math.Round(defaultCostPerCell * math.Hypot(float64(dx), float64(dy))))

		perHeading := []*Action{
			newAction(cfg, theta, theta, dx, dy, moveCost),
			newAction(cfg, theta, theta, 2*dx, 2*dy, 2*moveCost),
			newAction(cfg, theta, theta, -dx, -dy, int(math.Round(float64(moveCost)*defaultBackwardMult))),
			newAction(cfg, theta, left, 0, 0, defaultTurnCost),
			newAction(cfg, theta, right, 0, 0, defaultTurnCost),
			newAction(cfg, theta, left, dx, dy, int(math.Round(float64(moveCost)*defaultArcMult))),
			newAction(cfg, theta, right, dx, dy, int(math.Round(float64(moveCost)*defaultArcMult))),
		}
		for i, action := range perHeading {
			action.Index = i
		}
		actions[theta] = perHeading
	}
	return actions, nil
}

// newAction interpolates the trajectory of a primitive and discretizes its
// center cells.
func newAction(cfg *Config, startTheta, endTheta, dx, dy, cost int) *Action {
	startAngle := spatialmath.DiscThetaToCont(startTheta, cfg.NumThetaDirs)
	endAngle := spatialmath.DiscThetaToCont(endTheta, cfg.NumThetaDirs)
	turn := spatialmath.AngleDiff(startAngle, endAngle)
	endX := float64(dx) * cfg.CellSize
	endY := float64(dy) * cfg.CellSize

	action := &Action{
		StartTheta: startTheta,
		EndTheta:   endTheta,
		DX:         dx,
		DY:         dy,
		Cost:       cost,
	}
	for i := 0; i <= defaultIntermSamples; i++ {
		t := float64(i) / float64(defaultIntermSamples)
		pose := spatialmath.Pose{
			X:     endX * t,
			Y:     endY * t,
			Theta: spatialmath.NormalizeAngle(startAngle + turn*t),
		}
		action.IntermPoses = append(action.IntermPoses, pose)

		// center cells are discretized about the canonical source cell center
		cell := spatialmath.Cell{
			X: spatialmath.ContXYToDisc(pose.X+spatialmath.DiscXYToCont(0, cfg.CellSize), cfg.CellSize),
			Y: spatialmath.ContXYToDisc(pose.Y+spatialmath.DiscXYToCont(0, cfg.CellSize), cfg.CellSize),
		}
		if n := len(action.IntermCells); n == 0 || action.IntermCells[n-1] != cell {
			action.IntermCells = append(action.IntermCells, cell)
		}
	}
	return action
}

// validateActions checks that every heading has the same number of actions and
// that indices and start headings are consistent with their position.
func validateActions(cfg *Config, actions [][]*Action) error {
	if len(actions) != cfg.NumThetaDirs {
		return errors.Errorf("have action lists for %d headings, expected %d", len(actions), cfg.NumThetaDirs)
	}
	width := len(actions[0])
	for theta, perHeading := range actions {
		if len(perHeading) != width {
			return errors.Errorf("heading %d has %d actions, expected %d", theta, len(perHeading), width)
		}
		for i, action := range perHeading {
			if action.Index != i || action.StartTheta != theta {
				return errors.Errorf("action %d of heading %d is mis-indexed", i, theta)
			}
			if action.EndTheta < 0 || action.EndTheta >= cfg.NumThetaDirs {
				return errors.Errorf("action %d of heading %d ends at invalid heading %d", i, theta, action.EndTheta)
			}
		}
	}
	return nil
}

// sweptCellsForAction unions the footprint cells of every intermediate pose of
// the action, translated by the canonical source pose, and subtracts the cells
// of the source footprint itself. The result is a set of cell offsets relative
// to the source cell, reusable at any absolute source by cell-wise addition.
func sweptCellsForAction(action *Action, sourcePose spatialmath.Pose, polygon []r2.Point, cellSize float64) []spatialmath.Cell {
	seen := make(map[spatialmath.Cell]struct{})
	var cells []spatialmath.Cell
	for _, rel := range action.IntermPoses {
		pose := spatialmath.Pose{X: rel.X + sourcePose.X, Y: rel.Y + sourcePose.Y, Theta: rel.Theta}
		for _, c := range spatialmath.FootprintCells(pose, polygon, cellSize) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cells = append(cells, c)
		}
	}
	return spatialmath.RemoveSourceFootprint(cells, sourcePose, polygon, cellSize)
}
