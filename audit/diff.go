package audit

import (
	"sort"
	"time"
)

const displayDateFormat = "02.01.2006 15:04"

var snapshotDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Diff computes the changed properties between two consecutive snapshots.
// The first snapshot of an object has no predecessor and yields no changes,
// and any failure degrades to an empty result rather than blocking the trail.
func Diff(prev, cur Snapshot) []UpdatedProperty {
	if prev == nil || cur == nil {
		return []UpdatedProperty{}
	}

	names := make([]string, 0, len(cur))
	seen := map[string]bool{}
	for name := range cur {
		names = append(names, name)
		seen[name] = true
	}
	for name := range prev {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	changes := []UpdatedProperty{}
	for _, name := range names {
		oldValue := prev[name]
		newValue := cur[name]
		if oldValue == newValue {
			continue
		}
		changes = append(changes, UpdatedProperty{
			PropertyName: name,
			OldValue:     oldValue,
			OldValueDesc: displayValue(oldValue),
			NewValue:     newValue,
			NewValueDesc: displayValue(newValue),
		})
	}
	return changes
}

// displayValue reformats timestamp-looking values for human reading and
// falls back to the raw value when parsing fails.
func displayValue(v string) string {
	if v == "" {
		return v
	}
	for _, layout := range snapshotDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(displayDateFormat)
		}
	}
	return v
}
