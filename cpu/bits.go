package cpu

import "math"

func bitsFromFloat32(v float32) uint32 { return math.Float32bits(v) }
func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }
func bitsFromFloat64(v float64) uint64 { return math.Float64bits(v) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
