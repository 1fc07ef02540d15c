package uiid

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/ewelink-core/internal/device"
)

// deviceWithParams builds a device tree around the given parameter document.
func deviceWithParams(uiid int, params map[string]any) device.Device {
	return device.Device{
		"itemData": map[string]any{
			"deviceid": "dev-1",
			"extra":    map[string]any{"uiid": float64(uiid)},
			"params":   params,
		},
	}
}

func TestSingleRelay_SwitchState(t *testing.T) {
	adapter := NewRegistry().Resolve(1)

	tests := []struct {
		name   string
		params map[string]any
		wantOn bool
		wantOK bool
	}{
		{"on", map[string]any{"switch": "on"}, true, true},
		{"off", map[string]any{"switch": "off"}, false, true},
		{"missing", map[string]any{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			on, ok := adapter.SwitchState(deviceWithParams(1, tt.params))
			if on != tt.wantOn || ok != tt.wantOK {
				t.Errorf("SwitchState() = (%v, %v), want (%v, %v)", on, ok, tt.wantOn, tt.wantOK)
			}
		})
	}
}

func TestSingleRelay_SwitchParams(t *testing.T) {
	adapter := NewRegistry().Resolve(1)

	params, err := adapter.SwitchParams(false)
	if err != nil {
		t.Fatalf("SwitchParams() error = %v", err)
	}
	if !reflect.DeepEqual(params, map[string]any{"switch": "off"}) {
		t.Errorf("SwitchParams(false) = %v", params)
	}
}

func TestSingleRelay_Startup(t *testing.T) {
	adapter := NewRegistry().Resolve(1)

	dev := deviceWithParams(1, map[string]any{"startup": "stay"})
	got, ok := adapter.Startup(dev, 0)
	if !ok || got != "stay" {
		t.Errorf("Startup() = (%q, %v), want (stay, true)", got, ok)
	}

	params, err := adapter.StartupParams(StartupOn, 0)
	if err != nil {
		t.Fatalf("StartupParams() error = %v", err)
	}
	if !reflect.DeepEqual(params, map[string]any{"startup": "on"}) {
		t.Errorf("StartupParams() = %v", params)
	}
}

func TestMultiOutlet_SwitchState(t *testing.T) {
	adapter := NewRegistry().Resolve(191)

	dev := deviceWithParams(191, map[string]any{
		"switches": []any{
			map[string]any{"switch": "on", "outlet": float64(0)},
			map[string]any{"switch": "off", "outlet": float64(1)},
		},
	})

	on, ok := adapter.SwitchState(dev)
	if !on || !ok {
		t.Errorf("SwitchState() = (%v, %v), want (true, true)", on, ok)
	}
}

func TestMultiOutlet_SwitchParams(t *testing.T) {
	adapter := NewRegistry().Resolve(191)

	params, err := adapter.SwitchParams(true)
	if err != nil {
		t.Fatalf("SwitchParams() error = %v", err)
	}

	// All four outlets are written: the target on outlet 0, "off" elsewhere.
	switches, ok := params["switches"].([]any)
	if !ok {
		t.Fatalf("params[switches] has type %T", params["switches"])
	}
	if len(switches) != 4 {
		t.Fatalf("len(switches) = %d, want 4", len(switches))
	}
	for i, raw := range switches {
		entry := raw.(map[string]any)
		if entry["outlet"] != i {
			t.Errorf("entry %d outlet = %v", i, entry["outlet"])
		}
		want := "off"
		if i == 0 {
			want = "on"
		}
		if entry["switch"] != want {
			t.Errorf("entry %d switch = %v, want %v", i, entry["switch"], want)
		}
	}
}

func TestMultiOutlet_Startup(t *testing.T) {
	adapter := NewRegistry().Resolve(191)

	dev := deviceWithParams(191, map[string]any{
		"configure": []any{
			map[string]any{"outlet": float64(0), "startup": "off"},
		},
	})
	got, ok := adapter.Startup(dev, 0)
	if !ok || got != "off" {
		t.Errorf("Startup() = (%q, %v), want (off, true)", got, ok)
	}

	params, err := adapter.StartupParams(StartupStay, 0)
	if err != nil {
		t.Fatalf("StartupParams() error = %v", err)
	}
	want := map[string]any{
		"configure": []any{
			map[string]any{"outlet": 0, "startup": "stay"},
		},
	}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("StartupParams() = %v, want %v", params, want)
	}
}

func TestButton_Events(t *testing.T) {
	adapter := NewRegistry().Resolve(174)

	want := []EventType{EventSinglePress, EventDoublePress, EventLongPress}
	if got := adapter.EventTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("EventTypes() = %v, want %v", got, want)
	}

	tests := []struct {
		key    int
		want   EventType
		wantOK bool
	}{
		{0, EventSinglePress, true},
		{1, EventDoublePress, true},
		{2, EventLongPress, true},
		{3, "", false},
	}
	for _, tt := range tests {
		got, ok := adapter.KeyToEvent(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("KeyToEvent(%d) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}

	// Six event channels.
	if got := len(adapter.Platforms()); got != 6 {
		t.Errorf("len(Platforms()) = %d, want 6", got)
	}
}

func TestButton_NoRelay(t *testing.T) {
	adapter := NewRegistry().Resolve(174)

	if _, err := adapter.SwitchParams(true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SwitchParams() error = %v, want ErrUnsupported", err)
	}
	if _, err := adapter.StartupParams(StartupOn, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("StartupParams() error = %v, want ErrUnsupported", err)
	}
}

func TestSensorReadings(t *testing.T) {
	reg := NewRegistry()

	t.Run("temperature and humidity scaled from centi-units", func(t *testing.T) {
		adapter := reg.Resolve(7014)
		dev := deviceWithParams(7014, map[string]any{
			"temperature": float64(2153),
			"humidity":    "4870",
			"battery":     float64(87.6),
			"rssi":        float64(-68),
		})

		if got, ok := adapter.Temperature(dev); !ok || got != 21.5 {
			t.Errorf("Temperature() = (%v, %v), want (21.5, true)", got, ok)
		}
		if got, ok := adapter.Humidity(dev); !ok || got != 48.7 {
			t.Errorf("Humidity() = (%v, %v), want (48.7, true)", got, ok)
		}
		if got, ok := adapter.Battery(dev); !ok || got != 88 {
			t.Errorf("Battery() = (%v, %v), want (88, true)", got, ok)
		}
		if got, ok := adapter.RSSI(dev); !ok || got != -68 {
			t.Errorf("RSSI() = (%v, %v), want (-68, true)", got, ok)
		}
	})

	t.Run("absent readings report ok=false", func(t *testing.T) {
		adapter := reg.Resolve(7014)
		dev := deviceWithParams(7014, map[string]any{})

		if _, ok := adapter.Temperature(dev); ok {
			t.Error("Temperature() ok = true for empty params")
		}
		if _, ok := adapter.Battery(dev); ok {
			t.Error("Battery() ok = true for empty params")
		}
	})

	t.Run("door sensor", func(t *testing.T) {
		adapter := reg.Resolve(7003)
		dev := deviceWithParams(7003, map[string]any{"lock": float64(1)})

		if got, ok := adapter.DoorOpen(dev); !ok || !got {
			t.Errorf("DoorOpen() = (%v, %v), want (true, true)", got, ok)
		}
	})

	t.Run("presence sensor", func(t *testing.T) {
		adapter := reg.Resolve(7016)
		dev := deviceWithParams(7016, map[string]any{"human": float64(0)})

		if got, ok := adapter.HumanPresent(dev); !ok || got {
			t.Errorf("HumanPresent() = (%v, %v), want (false, true)", got, ok)
		}
	})
}
