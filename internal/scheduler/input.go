package scheduler

import "fmt"

// validationResult carries a model-level pass/fail outcome.
type validationResult struct {
	ok     bool
	reason string
}

func invalid(format string, args ...interface{}) validationResult {
	return validationResult{ok: false, reason: fmt.Sprintf(format, args...)}
}

func valid() validationResult {
	return validationResult{ok: true}
}

// validateInput runs structural sanity checks against a normalized Instance
// (defaults already applied). avail is the already-resolved availability
// map; it is consulted only to confirm that a qualified teacher is a known
// teacher, and per-period availability is not examined here.
func validateInput(inst Instance, avail map[string]*ResolvedAvailability) validationResult {
	if len(inst.Teachers) == 0 {
		return invalid("no teachers defined")
	}
	if len(inst.Classes) == 0 {
		return invalid("no classes defined")
	}
	if len(inst.Subjects) == 0 {
		return invalid("no subjects defined")
	}
	if len(inst.Rooms) == 0 {
		return invalid("no rooms defined")
	}
	if inst.Requirements == nil {
		return invalid("requirements are required input")
	}

	maxPeriods := inst.Days * inst.PeriodsPerDay
	subjectsByID := indexSubjects(inst.Subjects)
	classesByID := indexClasses(inst.Classes)
	roomsByID := inst.Rooms

	qualified := make(map[string]map[string]bool) // subject -> teacher -> true
	for _, q := range inst.Qualifications {
		if qualified[q.SubjectID] == nil {
			qualified[q.SubjectID] = make(map[string]bool)
		}
		qualified[q.SubjectID][q.TeacherID] = true
	}

	for _, req := range inst.Requirements {
		if req.PeriodsPerWeek < 0 || req.PeriodsPerWeek > maxPeriods {
			return invalid("periods_per_week for %s/%s out of range [0,%d]", req.ClassID, req.SubjectID, maxPeriods)
		}
		if req.PeriodsPerWeek == 0 {
			continue
		}

		class, ok := classesByID[req.ClassID]
		if !ok {
			return invalid("requirement references unknown class %s", req.ClassID)
		}
		subject, ok := subjectsByID[req.SubjectID]
		if !ok {
			return invalid("requirement references unknown subject %s", req.SubjectID)
		}

		teachers := qualified[req.SubjectID]
		hasQualifiedTeacher := false
		for teacherID := range teachers {
			ra := avail[teacherID]
			if ra == nil {
				continue
			}
			hasQualifiedTeacher = true
			break
		}
		if !hasQualifiedTeacher {
			return invalid("no qualified teacher for %s/%s", req.ClassID, req.SubjectID)
		}

		hasSuitableRoom := false
		for _, room := range roomsByID {
			if room.Capacity >= class.StudentCount && featuresSatisfied(subject.RequiredFeatures, room.Features) {
				hasSuitableRoom = true
				break
			}
		}
		if !hasSuitableRoom {
			return invalid("no suitable room for %s/%s", req.ClassID, req.SubjectID)
		}
	}

	for _, cr := range inst.Consecutive {
		if cr.BlockSize < 2 {
			return invalid("consecutive requirement for %s has block_size < 2", cr.SubjectID)
		}
	}

	return valid()
}

func featuresSatisfied(required, have map[string]bool) bool {
	for f := range required {
		if !have[f] {
			return false
		}
	}
	return true
}

func indexSubjects(subjects []Subject) map[string]Subject {
	out := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		out[s.ID] = s
	}
	return out
}

func indexClasses(classes []Class) map[string]Class {
	out := make(map[string]Class, len(classes))
	for _, c := range classes {
		out[c.ID] = c
	}
	return out
}

func indexRequirements(reqs []ClassSubjectRequirement) map[[2]string]int {
	out := make(map[[2]string]int, len(reqs))
	for _, r := range reqs {
		out[[2]string{r.ClassID, r.SubjectID}] = r.PeriodsPerWeek
	}
	return out
}

// expandConsecutive turns "all"/"" class-wildcard consecutive requirements
// into concrete per-class rules. It never silently rounds a non-dividing
// block size: non-dividing combinations are left in place, and buildJobs
// rejects them as Infeasible before any search runs.
func expandConsecutive(inst Instance) []ConsecutiveRequirement {
	reqByClassSubject := make(map[string][]string) // subject -> classIDs with a requirement
	for _, r := range inst.Requirements {
		if r.PeriodsPerWeek > 0 {
			reqByClassSubject[r.SubjectID] = append(reqByClassSubject[r.SubjectID], r.ClassID)
		}
	}

	var out []ConsecutiveRequirement
	for _, cr := range inst.Consecutive {
		if cr.ClassID == "" || cr.ClassID == AllClasses {
			for _, classID := range reqByClassSubject[cr.SubjectID] {
				out = append(out, ConsecutiveRequirement{ClassID: classID, SubjectID: cr.SubjectID, BlockSize: cr.BlockSize})
			}
			continue
		}
		out = append(out, cr)
	}
	return out
}
