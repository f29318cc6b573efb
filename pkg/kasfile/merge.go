// SPDX-License-Identifier: MPL-2.0

package kasfile

import "slices"

// Merge layers src over dst in place. A key present in both merges
// recursively when both values are mappings and concatenates (dst first)
// when both are lists. Otherwise the src value replaces the dst value, even
// when it is null or of another kind.
func Merge(dst, src map[string]any) {
	for key, sv := range src {
		dv, ok := dst[key]
		if !ok {
			dst[key] = sv
			continue
		}
		switch d := dv.(type) {
		case map[string]any:
			if s, ok := sv.(map[string]any); ok {
				Merge(d, s)
				continue
			}
		case []any:
			if s, ok := sv.([]any); ok {
				dst[key] = append(slices.Clone(d), s...)
				continue
			}
		}
		dst[key] = sv
	}
}
