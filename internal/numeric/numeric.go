// Package numeric provides the element type constraints and small generic
// helpers shared by the parallel primitives.
package numeric

import "math/cmplx"

// Signed is a constraint for signed integer element types.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint for unsigned integer element types.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint for all integer element types.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint for floating point element types.
type Float interface {
	~float32 | ~float64
}

// Real is a constraint for element types that are addable, subtractable and
// ordered. Every scan and reduction works over Real.
type Real interface {
	Integer | Float
}

// Complex is a constraint for complex element types.
type Complex interface {
	~complex64 | ~complex128
}

// Min returns the smaller of x and y.
func Min[T Real](x, y T) T {
	if x < y {
		return x
	}
	return y
}

// Abs returns the absolute value of x. For unsigned types it is the identity.
func Abs[T Real](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// AbsDiff returns |x - y| without wrapping for unsigned types. For signed
// types whose true difference exceeds the maximum of T the result is
// negative; use DiffExceeds to compare against a tolerance.
func AbsDiff[T Real](x, y T) T {
	if x < y {
		return y - x
	}
	return x - y
}

// DiffExceeds reports whether |x - y| > eps, computed without overflow.
//
// A negative AbsDiff can only come from a signed subtraction that wrapped,
// in which case the true difference is larger than any value of T and so
// larger than eps. NaN differences never exceed eps.
func DiffExceeds[T Real](x, y, eps T) bool {
	d := AbsDiff(x, y)
	return d < 0 || d > eps
}

// Modulus returns |x - y| for complex values.
func Modulus[T Complex](x, y T) float64 {
	return cmplx.Abs(complex128(x - y))
}
