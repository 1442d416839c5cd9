package packstream

import "math"

// float64FromBits reinterprets the big-endian bit pattern already decoded
// from the wire as a float64, preserving NaN/±Inf exactly (spec §8
// property 1: bit-exact float round-trip).
func float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}
