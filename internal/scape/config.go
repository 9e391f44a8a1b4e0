package scape

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Config is the environment's mutable state expressed as a structured
// document. It round-trips losslessly through read, mutate, write, read.
type Config map[string]any

// Clone deep-copies the document through its JSON form so that callers can
// mutate a variant without disturbing the baseline.
func (c Config) Clone() (Config, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("clone config: %w", err)
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone config: %w", err)
	}
	return out, nil
}

// Diff reports the top-level fields on which the two documents disagree.
// Values are compared structurally after JSON normalization, so an int
// written and a float64 read back as the same number do not diff.
func (c Config) Diff(other Config) []FieldDiff {
	left, err := c.Clone()
	if err != nil {
		left = c
	}
	right, err := other.Clone()
	if err != nil {
		right = other
	}

	keys := make(map[string]struct{}, len(left)+len(right))
	for k := range left {
		keys[k] = struct{}{}
	}
	for k := range right {
		keys[k] = struct{}{}
	}

	diffs := make([]FieldDiff, 0)
	for k := range keys {
		lv, lok := left[k]
		rv, rok := right[k]
		if lok && rok && reflect.DeepEqual(lv, rv) {
			continue
		}
		diffs = append(diffs, FieldDiff{Field: k, Written: lv, Read: rv})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Field < diffs[j].Field })
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}
