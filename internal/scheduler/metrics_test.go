package scheduler

import "testing"

func TestEvaluateMetrics_GapsAndWorkload(t *testing.T) {
	assignments := []Assignment{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Day: 0, Period: 0},
		{ClassID: "c1", SubjectID: "sci", TeacherID: "t1", RoomID: "r1", Day: 0, Period: 3},
		{ClassID: "c2", SubjectID: "math", TeacherID: "t2", RoomID: "r1", Day: 0, Period: 0},
	}
	inst := Instance{Days: 5, PeriodsPerDay: 8}
	avail := map[string]*ResolvedAvailability{
		"t1": {PreferredPeriods: map[int]bool{}},
		"t2": {PreferredPeriods: map[int]bool{}},
	}

	m := evaluateMetrics(assignments, inst, avail)

	if m.TotalAssignments != 3 {
		t.Fatalf("expected 3 total assignments, got %d", m.TotalAssignments)
	}
	if m.TeachersUsed != 2 {
		t.Fatalf("expected 2 teachers used, got %d", m.TeachersUsed)
	}
	if m.GapsCount != 2 {
		t.Fatalf("expected a gap of 2 periods for t1 (period 0 to 3), got %d", m.GapsCount)
	}
	if m.TeacherWorkloadStdev <= 0 {
		t.Fatalf("expected nonzero workload stdev between t1(2) and t2(1), got %f", m.TeacherWorkloadStdev)
	}
	wantScore := 10*3 - 5*2 - 2*0
	if m.TotalScore != wantScore {
		t.Fatalf("expected total_score %d, got %d", wantScore, m.TotalScore)
	}
}

func TestEvaluateMetrics_PreferenceViolations(t *testing.T) {
	assignments := []Assignment{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Day: 0, Period: 5},
	}
	inst := Instance{Days: 5, PeriodsPerDay: 8}
	avail := map[string]*ResolvedAvailability{
		"t1": {PreferredPeriods: map[int]bool{0: true, 1: true}},
	}

	m := evaluateMetrics(assignments, inst, avail)
	if m.PreferenceViolations != 1 {
		t.Fatalf("expected 1 preference violation, got %d", m.PreferenceViolations)
	}
}

func TestEvaluateMetrics_SingleTeacherNoStdev(t *testing.T) {
	assignments := []Assignment{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Day: 0, Period: 0},
	}
	inst := Instance{Days: 5, PeriodsPerDay: 8}
	avail := map[string]*ResolvedAvailability{"t1": {}}

	m := evaluateMetrics(assignments, inst, avail)
	if m.TeacherWorkloadStdev != 0 {
		t.Fatalf("expected 0 stdev with a single teacher, got %f", m.TeacherWorkloadStdev)
	}
}
