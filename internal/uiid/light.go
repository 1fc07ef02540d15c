package uiid

import "github.com/nerrad567/ewelink-core/internal/device"

// Light mode discriminator values carried in the "ltype" parameter.
const (
	ltypeWhite = "white"
	ltypeColor = "color"
)

// light is the adapter for the dimmable white/colour bulb family (uiid 104).
// The active mode is discriminated by "ltype"; brightness and colour
// temperature live in a nested object named after the mode, RGB colour in a
// flat "color" object. Parameter builders re-send the complementary fields
// of the nested object because the firmware treats each write as the full
// mode state.
type light struct {
	generic
}

// ltype returns the active light mode, defaulting to white.
func (l *light) ltype(dev device.Device) string {
	v, ok := param(dev, "ltype")
	if !ok {
		return ltypeWhite
	}
	s, ok := v.(string)
	if !ok {
		return ltypeWhite
	}
	return s
}

// intParam reads an integer from the parameter document, falling back to
// def when absent or mistyped.
func intParam(dev device.Device, def int, keys ...string) int {
	path := append([]string{"itemData", "params"}, keys...)
	n, ok := dev.GetInt(path...)
	if !ok {
		return def
	}
	return n
}

func (l *light) Brightness(dev device.Device) (int, bool) {
	v, ok := param(dev, l.ltype(dev), "br")
	if !ok {
		return 0, false
	}
	n, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return remapRound(int(n), scaleBrightnessNative, scaleBrightnessExternal), true
}

func (l *light) BrightnessParams(dev device.Device, brightness int) (map[string]any, error) {
	ltype := l.ltype(dev)
	native := remapRound(brightness, scaleBrightnessExternal, scaleBrightnessNative)

	params := map[string]any{"ltype": ltype}
	if ltype == ltypeColor {
		params["color"] = map[string]any{
			"br": native,
			"r":  intParam(dev, 100, "color", "r"),
			"g":  intParam(dev, 100, "color", "g"),
			"b":  intParam(dev, 100, "color", "b"),
		}
	} else {
		params["white"] = map[string]any{
			"br": native,
			"ct": intParam(dev, 100, "white", "ct"),
		}
	}
	return params, nil
}

func (l *light) ColorTempKelvin(dev device.Device) (int, bool) {
	v, ok := param(dev, l.ltype(dev), "ct")
	if !ok {
		return 0, false
	}
	n, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	kelvin := remapRound(int(n), scaleColorTempNative,
		Scale{minColorTempKelvin, maxColorTempKelvin})
	return kelvin, true
}

func (l *light) ColorTempParams(dev device.Device, kelvin int) (map[string]any, error) {
	ct := remapRound(kelvin,
		Scale{minColorTempKelvin, maxColorTempKelvin}, scaleColorTempNative)
	return map[string]any{
		"ltype": ltypeWhite,
		"white": map[string]any{
			"br": intParam(dev, 50, "white", "br"),
			"ct": ct,
		},
	}, nil
}

func (l *light) ColorRGB(dev device.Device) (RGB, bool) {
	// Firmware omits the colour object until colour mode is first used;
	// report a neutral grey in that case, matching the device default.
	return RGB{
		R: intParam(dev, 100, "color", "r"),
		G: intParam(dev, 100, "color", "g"),
		B: intParam(dev, 100, "color", "b"),
	}, true
}

func (l *light) ColorRGBParams(dev device.Device, color RGB) (map[string]any, error) {
	return map[string]any{
		"ltype": ltypeColor,
		"color": map[string]any{
			"r":  color.R,
			"g":  color.G,
			"b":  color.B,
			"br": intParam(dev, 50, "color", "br"),
		},
	}, nil
}
