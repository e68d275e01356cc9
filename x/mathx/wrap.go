package mathx

import "golang.org/x/exp/constraints"

// Elapsed returns now-since in the modular arithmetic of T.
// It stays correct across one wrap of a free-running counter.
func Elapsed[T constraints.Unsigned](now, since T) T {
	return now - since
}

// Reached reports whether at least d units have passed between since and now.
func Reached[T constraints.Unsigned](now, since, d T) bool {
	return Elapsed(now, since) >= d
}

// TruncDiv returns a/b rounded toward zero; b==0 yields 0.
func TruncDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return a / b
}
