package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAbsInt(t *testing.T) {
	test.That(t, AbsInt(4), test.ShouldEqual, 4)
	test.That(t, AbsInt(-4), test.ShouldEqual, 4)
	test.That(t, AbsInt(0), test.ShouldEqual, 0)
}

func TestMaxByte(t *testing.T) {
	test.That(t, MaxByte(3, 7), test.ShouldEqual, byte(7))
	test.That(t, MaxByte(7, 3), test.ShouldEqual, byte(7))
	test.That(t, MaxByte(5, 5), test.ShouldEqual, byte(5))
}

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, RadToDeg(DegToRad(33)), test.ShouldAlmostEqual, 33)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-9, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-6), test.ShouldBeFalse)
}
