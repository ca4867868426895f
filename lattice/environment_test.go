package lattice

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func testConfig() Config {
	return Config{
		Width:                           20,
		Height:                          20,
		CellSize:                        1.0,
		NumThetaDirs:                    4,
		ObsThresh:                       254,
		CostInscribedThresh:             253,
		CostPossiblyCircumscribedThresh: 128,
	}
}

func squareFootprint(halfExtent float64) []r2.Point {
	return []r2.Point{
		{X: -halfExtent, Y: -halfExtent},
		{X: halfExtent, Y: -halfExtent},
		{X: halfExtent, Y: halfExtent},
		{X: -halfExtent, Y: halfExtent},
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	bad := testConfig()
	bad.Width = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = testConfig()
	bad.CellSize = -1
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = testConfig()
	bad.CostInscribedThresh = 255
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = testConfig()
	bad.CostPossiblyCircumscribedThresh = 254
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}

func TestSetMapRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	env, err := NewEnvironment(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	data := make([]byte, cfg.Width*cfg.Height)
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			data[x+y*cfg.Width] = byte((3*x + 7*y) % 251)
		}
	}
	test.That(t, env.SetMap(data), test.ShouldBeNil)
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			test.That(t, env.GetMapCost(x, y), test.ShouldEqual, data[x+y*cfg.Width])
		}
	}

	test.That(t, env.SetMap(data[:5]), test.ShouldNotBeNil)

	test.That(t, env.UpdateCost(4, 9, 77), test.ShouldBeNil)
	test.That(t, env.GetMapCost(4, 9), test.ShouldEqual, byte(77))
	test.That(t, env.UpdateCost(-1, 0, 1), test.ShouldNotBeNil)
	test.That(t, env.UpdateCost(0, cfg.Height, 1), test.ShouldNotBeNil)
}

func TestBaseCellQueries(t *testing.T) {
	logger := golog.NewTestLogger(t)
	env, err := NewEnvironment(testConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, env.IsValidCell(0, 0), test.ShouldBeTrue)
	test.That(t, env.IsValidCell(-1, 0), test.ShouldBeFalse)
	test.That(t, env.IsValidCell(20, 0), test.ShouldBeFalse)
	test.That(t, env.IsObstacle(0, 0), test.ShouldBeFalse)
	test.That(t, env.IsObstacle(-1, 5), test.ShouldBeTrue)

	test.That(t, env.UpdateCost(3, 3, 254), test.ShouldBeNil)
	test.That(t, env.IsValidCell(3, 3), test.ShouldBeFalse)
	test.That(t, env.IsObstacle(3, 3), test.ShouldBeTrue)

	test.That(t, func() { env.GetMapCost(20, 0) }, test.ShouldPanic)
}

func TestBaseValidConfiguration(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	cfg.Footprint = squareFootprint(1.4)
	env, err := NewEnvironment(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, env.IsValidConfiguration(5, 5, 0), test.ShouldBeTrue)
	// footprint sticks out of the map
	test.That(t, env.IsValidConfiguration(0, 0, 0), test.ShouldBeFalse)

	test.That(t, env.UpdateCost(6, 6, 254), test.ShouldBeNil)
	test.That(t, env.IsValidConfiguration(5, 5, 0), test.ShouldBeFalse)
	test.That(t, env.IsValidConfiguration(10, 10, 0), test.ShouldBeTrue)
}

func TestBaseActionCost(t *testing.T) {
	logger := golog.NewTestLogger(t)
	env, err := NewEnvironment(testConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	forward := env.Actions(0)[0]

	// free space: nominal cost
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, forward.Cost)

	// a costly destination scales the cost multiplicatively
	test.That(t, env.UpdateCost(6, 5, 10), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, forward.Cost*11)

	// hard obstacle at the destination blocks
	test.That(t, env.UpdateCost(6, 5, 254), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, InfiniteCost)

	// inscribed-threshold destination blocks even though the cell itself is not a hard obstacle
	test.That(t, env.UpdateCost(6, 5, 253), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, InfiniteCost)

	// invalid source blocks
	test.That(t, env.UpdateCost(6, 5, 0), test.ShouldBeNil)
	test.That(t, env.UpdateCost(5, 5, 254), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, InfiniteCost)

	// off the edge of the map blocks
	test.That(t, env.GetActionCost(19, 19, 0, forward), test.ShouldEqual, InfiniteCost)
}

func TestBaseActionCostFootprint(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	cfg.Footprint = squareFootprint(1.4)
	env, err := NewEnvironment(cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	forward := env.Actions(0)[0]

	// a center cell past the circumscribed threshold triggers the footprint
	// sweep, which finds the grazing obstacle beside the path
	test.That(t, env.UpdateCost(6, 5, 130), test.ShouldBeNil)
	test.That(t, env.UpdateCost(7, 6, 254), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, InfiniteCost)

	// with the grazing obstacle cleared, the sweep passes and the center-cell
	// maximum still scales the cost
	test.That(t, env.UpdateCost(7, 6, 0), test.ShouldBeNil)
	test.That(t, env.GetActionCost(5, 5, 0, forward), test.ShouldEqual, forward.Cost*131)
}
