package scheduler

import "sort"

// extractSolution converts the solver's internal assignment set into the
// flat, canonically ordered Assignment list shared with downstream storage
// and UI.
func extractSolution(assignments []Assignment) []Assignment {
	out := make([]Assignment, len(assignments))
	copy(out, assignments)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.SubjectID < b.SubjectID
	})
	return out
}
