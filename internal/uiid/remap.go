package uiid

import "math"

// Scale is an inclusive numeric range used for value remapping.
type Scale struct {
	Min float64
	Max float64
}

// External and native scales used by the light family.
var (
	scaleBrightnessNative   = Scale{1, 100}
	scaleBrightnessExternal = Scale{1, 255}
	scaleColorTempNative    = Scale{0, 255}
)

// Colour temperature bounds in kelvin for the external scale.
const (
	minColorTempKelvin = 2000
	maxColorTempKelvin = 6535
)

// remap linearly maps value from one scale onto another.
func remap(value float64, from, to Scale) float64 {
	if from.Max == from.Min {
		return to.Min
	}
	return to.Min + (value-from.Min)*(to.Max-to.Min)/(from.Max-from.Min)
}

// remapRound linearly maps value between scales, rounding to the nearest
// integer. Mapping a value out and back again lands within one rounding unit
// of the original.
func remapRound(value int, from, to Scale) int {
	return int(math.Round(remap(float64(value), from, to)))
}
