package device

// Merge folds src into dst recursively and returns dst.
//
// Rules:
//   - When both sides hold an object at the same key, the objects are merged
//     key-wise.
//   - Otherwise the incoming value replaces the existing one, including
//     arrays, which are replaced wholesale rather than merged element-wise.
//   - Keys present in dst but absent from src are left untouched; a merge
//     never deletes.
//
// Merging an empty map is the identity operation, and merging the same
// document twice leaves dst unchanged after the first application.
//
// Incoming values are deep-copied before insertion so dst never aliases src.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		incoming, isMap := v.(map[string]any)
		if !isMap {
			dst[k] = deepCopyValue(v)
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			// Existing value is absent or not an object: replace.
			dst[k] = deepCopyMap(incoming)
			continue
		}
		dst[k] = Merge(existing, incoming)
	}
	return dst
}
