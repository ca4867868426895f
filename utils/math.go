// Package utils contains small math helpers shared across the planning packages.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// AbsInt returns the absolute value of the given value.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// MaxByte returns the larger of two bytes.
func MaxByte(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}

// Float64AlmostEqual validates that two floats are within a given epsilon.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) <= epsilon
}
