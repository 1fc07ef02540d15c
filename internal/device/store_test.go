package device

import (
	"errors"
	"reflect"
	"testing"
)

// testDevice builds a minimal dimmable-light attribute tree.
func testDevice(id string) Device {
	return Device{
		"itemData": map[string]any{
			"deviceid":     id,
			"name":         "Bedside Lamp",
			"apikey":       "device-apikey",
			"online":       true,
			"productModel": "B05-BL",
			"brandName":    "SONOFF",
			"extra": map[string]any{
				"uiid": float64(104),
			},
			"params": map[string]any{
				"switch": "on",
				"ltype":  "white",
				"white":  map[string]any{"br": float64(50), "ct": float64(100)},
			},
		},
	}
}

func TestDevice_Accessors(t *testing.T) {
	dev := testDevice("dev-1")

	if got := dev.ID(); got != "dev-1" {
		t.Errorf("ID() = %q, want %q", got, "dev-1")
	}
	if got := dev.Name(); got != "Bedside Lamp" {
		t.Errorf("Name() = %q, want %q", got, "Bedside Lamp")
	}
	if got := dev.APIKey(); got != "device-apikey" {
		t.Errorf("APIKey() = %q, want %q", got, "device-apikey")
	}
	if got := dev.Model(); got != "B05-BL" {
		t.Errorf("Model() = %q, want %q", got, "B05-BL")
	}
	if got := dev.UIID(); got != 104 {
		t.Errorf("UIID() = %d, want 104", got)
	}
	if !dev.Online() {
		t.Error("Online() = false, want true")
	}
	if params := dev.Params(); params["switch"] != "on" {
		t.Errorf("Params()[switch] = %v, want on", params["switch"])
	}
}

func TestDevice_AccessorsMissingFields(t *testing.T) {
	dev := Device{"itemData": map[string]any{}}

	if got := dev.ID(); got != "" {
		t.Errorf("ID() = %q, want empty", got)
	}
	if got := dev.UIID(); got != 0 {
		t.Errorf("UIID() = %d, want 0", got)
	}
	if dev.Online() {
		t.Error("Online() = true, want false")
	}
	if params := dev.Params(); params != nil {
		t.Errorf("Params() = %v, want nil", params)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(nil)

	_, err := store.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ReplaceAndGet(t *testing.T) {
	store := NewStore(nil)
	store.Replace(map[string]Device{
		"dev-1": testDevice("dev-1"),
		"dev-2": testDevice("dev-2"),
	})

	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}

	dev, err := store.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if dev.ID() != "dev-1" {
		t.Errorf("ID() = %q, want dev-1", dev.ID())
	}

	if got := len(store.List()); got != 2 {
		t.Errorf("List() returned %d devices, want 2", got)
	}
}

func TestStore_GetReturnsIsolatedCopy(t *testing.T) {
	store := NewStore(nil)
	store.Replace(map[string]Device{"dev-1": testDevice("dev-1")})

	dev, err := store.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Mutate the snapshot; the store copy must be unaffected.
	dev.Params()["switch"] = "off"

	fresh, err := store.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fresh.Params()["switch"] != "on" {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestStore_MergeParams(t *testing.T) {
	store := NewStore(nil)
	store.Replace(map[string]Device{"dev-1": testDevice("dev-1")})

	err := store.MergeParams("dev-1", map[string]any{
		"white": map[string]any{"br": float64(80)},
	})
	if err != nil {
		t.Fatalf("MergeParams() error = %v", err)
	}

	dev, err := store.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	wantParams := map[string]any{
		"switch": "on",
		"ltype":  "white",
		"white":  map[string]any{"br": float64(80), "ct": float64(100)},
	}
	if !reflect.DeepEqual(dev.Params(), wantParams) {
		t.Errorf("Params() = %v, want %v", dev.Params(), wantParams)
	}
}

func TestStore_MergeParamsUnknownDevice(t *testing.T) {
	store := NewStore(nil)

	err := store.MergeParams("missing", map[string]any{"switch": "off"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MergeParams() error = %v, want ErrNotFound", err)
	}
}

func TestStore_SetOnline(t *testing.T) {
	store := NewStore(nil)
	store.Replace(map[string]Device{"dev-1": testDevice("dev-1")})

	if err := store.SetOnline("dev-1", false); err != nil {
		t.Fatalf("SetOnline() error = %v", err)
	}

	dev, err := store.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if dev.Online() {
		t.Error("Online() = true after SetOnline(false)")
	}

	// Availability changes must not disturb the parameter document.
	if dev.Params()["switch"] != "on" {
		t.Error("SetOnline disturbed device params")
	}
}

func TestStore_ObserverNotifiedAfterMerge(t *testing.T) {
	store := NewStore(nil)
	store.Replace(map[string]Device{"dev-1": testDevice("dev-1")})

	var seen []string
	store.Subscribe(func(dev Device) {
		seen = append(seen, dev.ID())
	})

	if err := store.MergeParams("dev-1", map[string]any{"switch": "off"}); err != nil {
		t.Fatalf("MergeParams() error = %v", err)
	}
	if err := store.SetOnline("dev-1", false); err != nil {
		t.Fatalf("SetOnline() error = %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("observer called %d times, want 2", len(seen))
	}

	// Observer snapshot must reflect the state at notification time.
	var snapshot Device
	store.Subscribe(func(dev Device) { snapshot = dev })
	if err := store.MergeParams("dev-1", map[string]any{"switch": "on"}); err != nil {
		t.Fatalf("MergeParams() error = %v", err)
	}
	if snapshot.Params()["switch"] != "on" {
		t.Errorf("observer snapshot switch = %v, want on", snapshot.Params()["switch"])
	}
}
