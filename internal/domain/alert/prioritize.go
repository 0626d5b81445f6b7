// internal/domain/alert/prioritize.go
package alert

import (
	"cmp"
	"slices"
)

// Prioritize returns a copy of alerts stable-sorted by severity weight.
// Equal severities keep their emission order; there is no secondary key.
func Prioritize(alerts []Alert) []Alert {
	sorted := slices.Clone(alerts)
	if sorted == nil {
		sorted = []Alert{}
	}
	slices.SortStableFunc(sorted, func(a, b Alert) int {
		return cmp.Compare(a.Severity.Weight(), b.Severity.Weight())
	})
	return sorted
}

