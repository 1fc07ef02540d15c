package uiid

import (
	"math"
	"sort"
	"strconv"

	"github.com/nerrad567/ewelink-core/internal/device"
)

// relayMode describes how a family encodes its relay state.
type relayMode int

const (
	// relayNone: the family has no controllable relay.
	relayNone relayMode = iota
	// relaySingle: a flat "switch" field.
	relaySingle
	// relayMultiOutlet: a "switches" array of per-outlet entries.
	relayMultiOutlet
)

// multiOutletCount is the number of entries a multi-outlet command carries.
// The protocol expects all four outlets in every write.
const multiOutletCount = 4

// generic is the base adapter. Family-specific adapters are generics with
// the appropriate mode flags; only the dimmable light family needs method
// overrides on top of it.
type generic struct {
	uiid      int
	relay     relayMode
	platforms []PlatformConfig
	events    map[int]EventType
}

func (g *generic) UIID() int { return g.uiid }

func (g *generic) Platforms() []PlatformConfig {
	out := make([]PlatformConfig, len(g.platforms))
	copy(out, g.platforms)
	return out
}

// param reads a value from the device parameter document.
func param(dev device.Device, keys ...string) (any, bool) {
	path := append([]string{"itemData", "params"}, keys...)
	return dev.Get(path...)
}

// paramEntry reads element index of the array stored at field in the
// parameter document.
func paramEntry(dev device.Device, field string, index int) (map[string]any, bool) {
	v, ok := param(dev, field)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok || index < 0 || index >= len(arr) {
		return nil, false
	}
	m, ok := arr[index].(map[string]any)
	return m, ok
}

func switchValue(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (g *generic) SwitchState(dev device.Device) (bool, bool) {
	switch g.relay {
	case relayMultiOutlet:
		entry, ok := paramEntry(dev, "switches", 0)
		if !ok {
			return false, false
		}
		s, ok := entry["switch"].(string)
		return s == "on", ok
	default:
		v, ok := param(dev, "switch")
		if !ok {
			return false, false
		}
		s, ok := v.(string)
		return s == "on", ok
	}
}

func (g *generic) SwitchParams(on bool) (map[string]any, error) {
	switch g.relay {
	case relaySingle:
		return map[string]any{"switch": switchValue(on)}, nil
	case relayMultiOutlet:
		// The strip is driven as a single switch: outlet 0 carries the
		// target state, the remaining outlets are written "off".
		switches := make([]any, 0, multiOutletCount)
		for i := 0; i < multiOutletCount; i++ {
			state := "off"
			if i == 0 {
				state = switchValue(on)
			}
			switches = append(switches, map[string]any{
				"switch": state,
				"outlet": i,
			})
		}
		return map[string]any{"switches": switches}, nil
	default:
		return nil, ErrUnsupported
	}
}

func (g *generic) Startup(dev device.Device, _ int) (string, bool) {
	switch g.relay {
	case relaySingle:
		v, ok := param(dev, "startup")
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	case relayMultiOutlet:
		entry, ok := paramEntry(dev, "configure", 0)
		if !ok {
			return "", false
		}
		s, ok := entry["startup"].(string)
		return s, ok
	default:
		return "", false
	}
}

func (g *generic) StartupParams(startup string, _ int) (map[string]any, error) {
	switch g.relay {
	case relaySingle:
		return map[string]any{"startup": startup}, nil
	case relayMultiOutlet:
		return map[string]any{
			"configure": []any{
				map[string]any{"outlet": 0, "startup": startup},
			},
		}, nil
	default:
		return nil, ErrUnsupported
	}
}

func (g *generic) Brightness(device.Device) (int, bool) { return 0, false }

func (g *generic) BrightnessParams(device.Device, int) (map[string]any, error) {
	return nil, ErrUnsupported
}

func (g *generic) ColorTempKelvin(device.Device) (int, bool) { return 0, false }

func (g *generic) ColorTempParams(device.Device, int) (map[string]any, error) {
	return nil, ErrUnsupported
}

func (g *generic) ColorRGB(device.Device) (RGB, bool) { return RGB{}, false }

func (g *generic) ColorRGBParams(device.Device, RGB) (map[string]any, error) {
	return nil, ErrUnsupported
}

func (g *generic) RSSI(dev device.Device) (int, bool) {
	return dev.GetInt("itemData", "params", "rssi")
}

func (g *generic) Temperature(dev device.Device) (float64, bool) {
	return centiReading(dev, "temperature")
}

func (g *generic) Humidity(dev device.Device) (float64, bool) {
	return centiReading(dev, "humidity")
}

// centiReading reads a sensor value reported in hundredths of a unit and
// returns it scaled, rounded to one decimal place.
func centiReading(dev device.Device, field string) (float64, bool) {
	v, ok := param(dev, field)
	if !ok {
		return 0, false
	}
	n, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return math.Round(n/100*10) / 10, true
}

// toFloat coerces the value representations firmware has been seen to use:
// JSON numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (g *generic) Battery(dev device.Device) (int, bool) {
	v, ok := param(dev, "battery")
	if !ok {
		return 0, false
	}
	n, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(n)), true
}

func (g *generic) DoorOpen(dev device.Device) (bool, bool) {
	return boolReading(dev, "lock")
}

func (g *generic) HumanPresent(dev device.Device) (bool, bool) {
	return boolReading(dev, "human")
}

// boolReading reads a flag the firmware reports either as a bool or as 0/1.
func boolReading(dev device.Device, field string) (bool, bool) {
	v, ok := param(dev, field)
	if !ok {
		return false, false
	}
	switch n := v.(type) {
	case bool:
		return n, true
	case float64:
		return n != 0, true
	case int:
		return n != 0, true
	default:
		return false, false
	}
}

func (g *generic) EventTypes() []EventType {
	if len(g.events) == 0 {
		return nil
	}
	keys := make([]int, 0, len(g.events))
	for k := range g.events {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]EventType, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.events[k])
	}
	return out
}

func (g *generic) KeyToEvent(key int) (EventType, bool) {
	ev, ok := g.events[key]
	return ev, ok
}
