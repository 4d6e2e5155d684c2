package scheduler

import (
	"math"
	"sort"
)

// evaluateMetrics derives the reporting and ranking figures for one
// candidate from its flat assignment list. It never mutates its inputs and
// is safe to call on a candidate the caller is about to discard.
func evaluateMetrics(assignments []Assignment, inst Instance, avail map[string]*ResolvedAvailability) Metrics {
	m := Metrics{
		TeacherWorkload: make(map[string]int),
	}
	m.TotalAssignments = len(assignments)

	teachersUsed := make(map[string]bool)
	roomsUsed := make(map[string]bool)
	byTeacherDay := make(map[string]map[int][]int) // teacher -> day -> periods

	for _, a := range assignments {
		teachersUsed[a.TeacherID] = true
		roomsUsed[a.RoomID] = true
		m.TeacherWorkload[a.TeacherID]++

		if byTeacherDay[a.TeacherID] == nil {
			byTeacherDay[a.TeacherID] = make(map[int][]int)
		}
		byTeacherDay[a.TeacherID][a.Day] = append(byTeacherDay[a.TeacherID][a.Day], a.Period)

		ra := avail[a.TeacherID]
		if ra != nil && len(ra.PreferredPeriods) > 0 && !ra.PreferredPeriods[a.Period] {
			m.PreferenceViolations++
		}
	}

	m.TeachersUsed = len(teachersUsed)
	m.RoomsUsed = len(roomsUsed)
	m.GapsCount = gapsAcrossTeachers(byTeacherDay)
	m.TeacherWorkloadStdev = workloadStdev(m.TeacherWorkload)
	m.TotalScore = 10*m.TotalAssignments - 5*m.GapsCount - 2*m.PreferenceViolations

	return m
}

// gapsAcrossTeachers sums, for every teacher and every day they teach, the
// number of free periods strictly between their first and last assignment
// that day.
func gapsAcrossTeachers(byTeacherDay map[string]map[int][]int) int {
	teacherIDs := make([]string, 0, len(byTeacherDay))
	for id := range byTeacherDay {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	total := 0
	for _, teacherID := range teacherIDs {
		days := byTeacherDay[teacherID]
		dayNums := make([]int, 0, len(days))
		for d := range days {
			dayNums = append(dayNums, d)
		}
		sort.Ints(dayNums)
		for _, d := range dayNums {
			periods := append([]int(nil), days[d]...)
			sort.Ints(periods)
			for i := 0; i+1 < len(periods); i++ {
				gap := periods[i+1] - periods[i] - 1
				if gap > 0 {
					total += gap
				}
			}
		}
	}
	return total
}

// workloadStdev computes the population standard deviation of per-teacher
// assignment counts, 0 when fewer than two teachers carry any load (spec
// §4.7 "teacher_workload_stdev").
func workloadStdev(workload map[string]int) float64 {
	if len(workload) < 2 {
		return 0
	}
	ids := make([]string, 0, len(workload))
	for id := range workload {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sum := 0
	for _, id := range ids {
		sum += workload[id]
	}
	mean := float64(sum) / float64(len(ids))

	var variance float64
	for _, id := range ids {
		d := float64(workload[id]) - mean
		variance += d * d
	}
	variance /= float64(len(ids))

	return math.Sqrt(variance)
}
