package device

import (
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{
		{
			name: "empty update is identity",
			dst:  map[string]any{"switch": "on", "bright": float64(42)},
			src:  map[string]any{},
			want: map[string]any{"switch": "on", "bright": float64(42)},
		},
		{
			name: "scalar replacement",
			dst:  map[string]any{"switch": "on"},
			src:  map[string]any{"switch": "off"},
			want: map[string]any{"switch": "off"},
		},
		{
			name: "new key added",
			dst:  map[string]any{"switch": "on"},
			src:  map[string]any{"rssi": float64(-67)},
			want: map[string]any{"switch": "on", "rssi": float64(-67)},
		},
		{
			name: "nested objects merge key-wise",
			dst: map[string]any{
				"white": map[string]any{"br": float64(50), "ct": float64(100)},
			},
			src: map[string]any{
				"white": map[string]any{"br": float64(80)},
			},
			want: map[string]any{
				"white": map[string]any{"br": float64(80), "ct": float64(100)},
			},
		},
		{
			name: "sibling keys survive partial update",
			dst: map[string]any{
				"switch":    "on",
				"bright":    float64(60),
				"colorTemp": float64(2),
			},
			src: map[string]any{"bright": float64(80)},
			want: map[string]any{
				"switch":    "on",
				"bright":    float64(80),
				"colorTemp": float64(2),
			},
		},
		{
			name: "arrays replaced wholesale",
			dst: map[string]any{
				"switches": []any{
					map[string]any{"switch": "on", "outlet": float64(0)},
					map[string]any{"switch": "on", "outlet": float64(1)},
				},
			},
			src: map[string]any{
				"switches": []any{
					map[string]any{"switch": "off", "outlet": float64(0)},
				},
			},
			want: map[string]any{
				"switches": []any{
					map[string]any{"switch": "off", "outlet": float64(0)},
				},
			},
		},
		{
			name: "object replaces scalar",
			dst:  map[string]any{"color": "red"},
			src:  map[string]any{"color": map[string]any{"r": float64(255)}},
			want: map[string]any{"color": map[string]any{"r": float64(255)}},
		},
		{
			name: "scalar replaces object",
			dst:  map[string]any{"color": map[string]any{"r": float64(255)}},
			src:  map[string]any{"color": "red"},
			want: map[string]any{"color": "red"},
		},
		{
			name: "merge into nil destination",
			dst:  nil,
			src:  map[string]any{"switch": "on"},
			want: map[string]any{"switch": "on"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.dst, tt.src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	dst := map[string]any{
		"switch": "on",
		"white":  map[string]any{"br": float64(50), "ct": float64(100)},
	}
	src := map[string]any{
		"white": map[string]any{"br": float64(80)},
	}

	once := Merge(deepCopyMap(dst), src)
	twice := Merge(Merge(deepCopyMap(dst), src), src)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("applying the same update twice changed the result: %v vs %v", once, twice)
	}
}

func TestMerge_DoesNotAliasSource(t *testing.T) {
	src := map[string]any{
		"white": map[string]any{"br": float64(80)},
	}
	dst := Merge(map[string]any{}, src)

	// Mutating the source after the merge must not leak into the destination.
	src["white"].(map[string]any)["br"] = float64(1)

	white := dst["white"].(map[string]any)
	if white["br"] != float64(80) {
		t.Errorf("destination aliases source: br = %v, want 80", white["br"])
	}
}
