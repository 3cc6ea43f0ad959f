package mathx

import "math"

// FloorMod folds a into [0, b). b > 0.
func FloorMod(a, b float32) float32 {
	m := float32(math.Mod(float64(a), float64(b)))
	if m < 0 {
		m += b
	}
	return m
}

func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// ApproxEqual reports whether a and b differ by at most eps.
func ApproxEqual(a, b, eps float32) bool {
	return Abs(a-b) <= eps
}
