// Package mathx carries the small integer helpers used on driver hot
// paths.  Everything is fixed-point; no floating point anywhere.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min/Max for convenience.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Map re-maps x from [inMin,inMax] to [outMin,outMax] with 32-bit
// intermediates.  The output range may run downwards (outMin > outMax),
// which is how a closing servo sweep is expressed.
func Map[T ~int | ~int16 | ~int32](x, inMin, inMax, outMin, outMax T) T {
	if inMax == inMin {
		return outMin
	}
	num := int32(x-inMin) * int32(outMax-outMin)
	den := int32(inMax - inMin)
	return outMin + T(num/den)
}
