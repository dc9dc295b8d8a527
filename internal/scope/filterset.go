package scope

import "strings"

// reservedFilterKeys never travel from a base filter set into a merged
// one; scope selection is handled separately from request shaping.
var reservedFilterKeys = map[string]bool{
	"scope":  true,
	"scopes": true,
}

// FilterSet holds request-shaping parameters for an action query.
// Merging a child set over a base keeps unset base keys, deep-merges
// nested maps, and lets child values win otherwise.
type FilterSet struct {
	Values map[string]any
}

// NewFilterSet builds a filter set from configuration, layered over an
// optional base.
func NewFilterSet(config map[string]any, base *FilterSet) *FilterSet {
	if base != nil {
		return &FilterSet{Values: Merge(base.Values, config)}
	}
	return &FilterSet{Values: Merge(config, nil)}
}

// Merge produces a new map from base with override applied on top.
// Reserved keys are stripped from the base first. Nested maps present
// in both are merged recursively; any other collision takes the
// override value.
func Merge(base, override map[string]any) map[string]any {
	target := make(map[string]any, len(base))
	for k, v := range base {
		if reservedFilterKeys[strings.ToLower(k)] {
			continue
		}
		target[k] = v
	}

	for k, v := range override {
		ov, isMap := v.(map[string]any)
		bv, hadMap := target[k].(map[string]any)
		if isMap && hadMap {
			target[k] = Merge(bv, ov)
			continue
		}
		target[k] = v
	}

	return target
}
