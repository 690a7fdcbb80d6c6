package types

import (
	"net/url"
	"sort"
	"strings"
)

// VariantSelection maps a variant dimension (size, color) to the chosen value.
type VariantSelection map[string]string

// Key renders the selection in a canonical order so two selections with the
// same pairs compare equal regardless of map iteration. Dimensions and values
// are query-escaped so separators inside them cannot forge another pair.
func (v VariantSelection) Key() string {
	if len(v) == 0 {
		return ""
	}
	dims := make([]string, 0, len(v))
	for dim := range v {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	var b strings.Builder
	for i, dim := range dims {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(url.QueryEscape(dim))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v[dim]))
	}
	return b.String()
}

// Equal compares pair by pair and treats nil and empty selections as the same.
func (v VariantSelection) Equal(other VariantSelection) bool {
	if len(v) != len(other) {
		return false
	}
	for dim, val := range v {
		if got, ok := other[dim]; !ok || got != val {
			return false
		}
	}
	return true
}

func (v VariantSelection) Clone() VariantSelection {
	if v == nil {
		return nil
	}
	out := make(VariantSelection, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
