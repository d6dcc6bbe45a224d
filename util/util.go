package util

import "golang.org/x/exp/constraints"

func Sum[A constraints.Integer](nums []A) A {
	var total A
	for _, v := range nums {
		total += v
	}
	return total
}

// Clamp bounds v to [lo, hi]. hi < lo returns lo.
func Clamp[A constraints.Integer | constraints.Float](v, lo, hi A) A {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
