package device

// Device is the raw attribute tree for a single device as delivered by the
// cloud device list. The document is rooted at an "itemData" object; the
// accessors below read the well-known paths inside it.
type Device map[string]any

// Get walks the attribute tree along path and returns the value found there.
// The second return is false when any intermediate key is missing or not an
// object.
func (d Device) Get(path ...string) (any, bool) {
	var current any = map[string]any(d)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns the string at path, or "" when absent or mistyped.
func (d Device) GetString(path ...string) string {
	v, ok := d.Get(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetInt returns the integer at path. JSON numbers decode as float64, so
// both representations are accepted.
func (d Device) GetInt(path ...string) (int, bool) {
	v, ok := d.Get(path...)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// toInt coerces the numeric types a decoded JSON tree can contain.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// ID returns the unique device identifier.
func (d Device) ID() string {
	return d.GetString("itemData", "deviceid")
}

// Name returns the user-assigned device name.
func (d Device) Name() string {
	return d.GetString("itemData", "name")
}

// Model returns the hardware product model.
func (d Device) Model() string {
	return d.GetString("itemData", "productModel")
}

// Brand returns the hardware brand name.
func (d Device) Brand() string {
	return d.GetString("itemData", "brandName")
}

// APIKey returns the per-device API key used to address commands.
func (d Device) APIKey() string {
	return d.GetString("itemData", "apikey")
}

// UIID returns the device family identifier, or 0 when absent.
func (d Device) UIID() int {
	n, _ := d.GetInt("itemData", "extra", "uiid")
	return n
}

// Online reports cloud-side reachability of the device.
func (d Device) Online() bool {
	v, ok := d.Get("itemData", "online")
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Params returns the device parameter document, or nil when absent.
// The returned map aliases the tree; callers needing isolation should
// operate on a DeepCopy of the device.
func (d Device) Params() map[string]any {
	v, ok := d.Get("itemData", "params")
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// DeepCopy creates a complete independent copy of the attribute tree.
// Nested maps and slices are cloned so modifications to the copy do not
// affect the original. This is essential for snapshot isolation.
func (d Device) DeepCopy() Device {
	if d == nil {
		return nil
	}
	return Device(deepCopyMap(d))
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}
