package scheduler

import "sort"

// packageCandidates defensively re-validates every candidate against the
// invariants a correct construction should already guarantee, drops any
// that fail (a constructive or repair bug must never surface a broken
// schedule), deduplicates by canonical fingerprint, and returns the
// survivors ordered best-first.
//
// Ranking is total_score descending, then teacher_workload_stdev ascending,
// then lexicographic assignment fingerprint, so that two distinct candidates
// of equal quality still sort identically on every run.
func packageCandidates(candidates []Candidate, inst Instance, avail map[string]*ResolvedAvailability) []Candidate {
	seen := make(map[string]bool)
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Assignments = extractSolution(c.Assignments)
		if !validCandidate(c, inst, avail) {
			continue
		}
		fp := fingerprint(c.Assignments)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Metrics.TeacherWorkloadStdev != b.Metrics.TeacherWorkloadStdev {
			return a.Metrics.TeacherWorkloadStdev < b.Metrics.TeacherWorkloadStdev
		}
		return fingerprint(a.Assignments) < fingerprint(b.Assignments)
	})
	return out
}

// validCandidate re-checks every hard invariant a correct build should
// already guarantee, so a constructive or repair bug can never surface a
// broken schedule: grid bounds, no teacher/room/class double-booked in any
// slot, teacher qualification, room capacity and required features, teacher
// availability, and same-teacher/same-room contiguous consecutive blocks.
func validCandidate(c Candidate, inst Instance, avail map[string]*ResolvedAvailability) bool {
	teacherSlot := make(map[string]map[slot]bool)
	roomSlot := make(map[string]map[slot]bool)
	classSlot := make(map[string]map[slot]bool)

	roomsByID := make(map[string]Room, len(inst.Rooms))
	for _, r := range inst.Rooms {
		roomsByID[r.ID] = r
	}
	subjectsByID := indexSubjects(inst.Subjects)
	classesByID := indexClasses(inst.Classes)

	qualified := make(map[[2]string]bool, len(inst.Qualifications))
	for _, q := range inst.Qualifications {
		qualified[[2]string{q.TeacherID, q.SubjectID}] = true
	}

	blockSizeFor := make(map[[2]string]int)
	for _, cr := range expandConsecutive(inst) {
		blockSizeFor[[2]string{cr.ClassID, cr.SubjectID}] = cr.BlockSize
	}
	byBlockKey := make(map[blockKey][]Assignment)

	for _, a := range c.Assignments {
		if a.Day < 0 || a.Day >= inst.Days || a.Period < 0 || a.Period >= inst.PeriodsPerDay {
			return false
		}
		s := slot{Day: a.Day, Period: a.Period}
		if ensureSlotMap(teacherSlot, a.TeacherID)[s] {
			return false
		}
		if ensureSlotMap(roomSlot, a.RoomID)[s] {
			return false
		}
		if ensureSlotMap(classSlot, a.ClassID)[s] {
			return false
		}
		teacherSlot[a.TeacherID][s] = true
		roomSlot[a.RoomID][s] = true
		classSlot[a.ClassID][s] = true

		if !qualified[[2]string{a.TeacherID, a.SubjectID}] {
			return false
		}

		room, ok := roomsByID[a.RoomID]
		if !ok {
			return false
		}
		subject, ok := subjectsByID[a.SubjectID]
		if !ok {
			return false
		}
		class, ok := classesByID[a.ClassID]
		if !ok {
			return false
		}
		if room.Capacity < class.StudentCount || !featuresSatisfied(subject.RequiredFeatures, room.Features) {
			return false
		}

		if !avail[a.TeacherID].CanTeach(a.Day, a.Period) {
			return false
		}

		if blockSizeFor[[2]string{a.ClassID, a.SubjectID}] > 0 {
			key := blockKey{ClassID: a.ClassID, SubjectID: a.SubjectID, Day: a.Day}
			byBlockKey[key] = append(byBlockKey[key], a)
		}
	}

	for key, block := range byBlockKey {
		blockSize := blockSizeFor[[2]string{key.ClassID, key.SubjectID}]
		if !contiguousBlock(block, blockSize) {
			return false
		}
	}

	return true
}

// blockKey groups a candidate's assignments by the (class, subject, day)
// that a consecutive-block requirement applies to.
type blockKey struct {
	ClassID   string
	SubjectID string
	Day       int
}

// contiguousBlock reports whether assignments form exactly one run of
// blockSize consecutive periods, all on the same teacher and room — the
// same invariant the constructive placement and repair pass are required
// to uphold for any (class, subject, day) carrying a consecutive
// requirement.
func contiguousBlock(assignments []Assignment, blockSize int) bool {
	if len(assignments) != blockSize {
		return false
	}
	periods := make([]int, len(assignments))
	for i, a := range assignments {
		periods[i] = a.Period
	}
	sort.Ints(periods)
	for i := 1; i < len(periods); i++ {
		if periods[i] != periods[i-1]+1 {
			return false
		}
	}
	teacherID := assignments[0].TeacherID
	roomID := assignments[0].RoomID
	for _, a := range assignments {
		if a.TeacherID != teacherID || a.RoomID != roomID {
			return false
		}
	}
	return true
}
