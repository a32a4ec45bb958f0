package utils

import "math/bits"

// NextPowerOfTwo rounds n up to the nearest power of two. Zero and one
// both round to one, so the result is always a valid ring capacity.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << (64 - bits.LeadingZeros64(uint64(n-1)))
}
