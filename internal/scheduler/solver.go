package scheduler

import (
	"math/rand"
	"sort"
	"time"
)

// defaultSeed is used when the caller does not supply one, so that a solve
// without an explicit seed is still fully reproducible rather than
// depending on wall-clock entropy.
const defaultSeed int64 = 42

// placementJob is one unit of work the constructive search must satisfy:
// either BlockSize contiguous periods of a consecutive requirement, or a
// single period of an ordinary requirement.
type placementJob struct {
	ClassID   string
	SubjectID string
	BlockSize int // 0 means "single period", not a consecutive block
}

// driveSolver runs the constructive search under a time limit and
// cancellation handle, collecting up to K distinct candidates via repeated,
// differently-seeded attempts: a CP/SAT-style "callback per solution"
// contract realized as a restart loop over a randomized weighted-lottery
// construction.
func driveSolver(inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, jobs []placementJob, opts SolveOptions) ([]Candidate, bool /*timedOut*/) {
	deadline := time.Now().Add(time.Duration(opts.TimeLimitSeconds) * time.Second)
	seed := defaultSeed
	if opts.HasSeed {
		seed = opts.Seed
	}

	seen := make(map[string]bool)
	var candidates []Candidate

	for attempt := 0; len(candidates) < opts.SolutionLimit; attempt++ {
		select {
		case <-opts.Cancel:
			return candidates, false
		default:
		}
		if time.Now().After(deadline) {
			return candidates, len(candidates) == 0
		}
		// Bound the number of attempts per wall-clock check so a pathological
		// instance cannot spin forever between deadline checks.
		if attempt > 0 && attempt%64 == 0 && time.Now().After(deadline) {
			return candidates, len(candidates) == 0
		}

		rng := rand.New(rand.NewSource(seed + int64(attempt)))
		assignments, ok := constructAttempt(inst, avail, model, jobs, rng)
		if !ok {
			continue
		}
		assignments = repairGaps(assignments, inst, avail, model, 12)

		fp := fingerprint(assignments)
		if seen[fp] {
			continue
		}
		seen[fp] = true

		metrics := evaluateMetrics(assignments, inst, avail)
		candidates = append(candidates, Candidate{
			Assignments: assignments,
			Metrics:     metrics,
			TotalScore:  metrics.TotalScore,
		})
	}
	return candidates, false
}

// constructAttempt runs one randomized constructive pass: every placement
// job is assigned a legal slot via a weighted lottery biased by
// objectiveWeight's per-variable weight, honoring the hard constraints
// tracked by constraintState. It returns ok=false if any job could not be
// placed (the attempt is discarded; a fresh seed is tried).
func constructAttempt(inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, jobs []placementJob, rng *rand.Rand) ([]Assignment, bool) {
	cs := newConstraintState(avail)
	order := make([]placementJob, len(jobs))
	copy(order, jobs)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var out []Assignment
	for _, job := range order {
		if job.BlockSize > 0 {
			placed, ok := placeBlock(inst, avail, model, cs, job, rng)
			if !ok {
				return nil, false
			}
			out = append(out, placed...)
			continue
		}
		v, ok := placeSingle(inst, avail, model, cs, job, rng)
		if !ok {
			return nil, false
		}
		cs.place(v)
		out = append(out, toAssignment(v))
	}
	return out, true
}

func placeSingle(inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, cs *constraintState, job placementJob, rng *rand.Rand) (DecisionVariable, bool) {
	key := [2]string{job.ClassID, job.SubjectID}
	candidates := weightedCandidates(inst, avail, model, cs, model.byClassSubject[key])
	if len(candidates) == 0 {
		return DecisionVariable{}, false
	}
	return lotteryPick(candidates, rng), true
}

type weighted struct {
	v       DecisionVariable
	tickets int
}

func weightedCandidates(inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, cs *constraintState, idxs []int) []weighted {
	var out []weighted
	for _, idx := range idxs {
		v := model.vars[idx]
		if !cs.canPlace(v) {
			continue
		}
		w := objectiveWeight(v, avail[v.TeacherID], inst.PeriodsPerDay)
		out = append(out, weighted{v: v, tickets: lotteryTickets(w)})
	}
	return out
}

func lotteryPick(candidates []weighted, rng *rand.Rand) DecisionVariable {
	total := 0
	for _, c := range candidates {
		total += c.tickets
	}
	winner := rng.Intn(total)
	for _, c := range candidates {
		winner -= c.tickets
		if winner < 0 {
			return c.v
		}
	}
	return candidates[len(candidates)-1].v
}

// placeBlock places BlockSize contiguous same-day periods of a consecutive
// requirement using a single teacher/room pair: a block start is only
// usable if every period in [start, start+B) has a legal, still-available
// variable for the same (teacher, room).
func placeBlock(inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, cs *constraintState, job placementJob, rng *rand.Rand) ([]Assignment, bool) {
	key := [2]string{job.ClassID, job.SubjectID}
	type blockOption struct {
		teacherID string
		roomID    string
		day       int
		start     int
		tickets   int
	}

	var options []blockOption
	teacherIDs := sortedKeys(model.teachersForClassSubject[key])
	roomIDs := sortedKeys(model.roomsForClassSubject[key])
	for day := 0; day < inst.Days; day++ {
		for start := 0; start+job.BlockSize <= inst.PeriodsPerDay; start++ {
			for _, teacherID := range teacherIDs {
				for _, roomID := range roomIDs {
					ok := true
					weight := 0
					for p := start; p < start+job.BlockSize; p++ {
						v := DecisionVariable{ClassID: job.ClassID, SubjectID: job.SubjectID, TeacherID: teacherID, RoomID: roomID, Day: day, Period: p}
						if !hasVariable(model, v) || !cs.canPlace(v) {
							ok = false
							break
						}
						weight += objectiveWeight(v, avail[teacherID], inst.PeriodsPerDay)
					}
					if !ok {
						continue
					}
					options = append(options, blockOption{teacherID: teacherID, roomID: roomID, day: day, start: start, tickets: lotteryTickets(weight)})
				}
			}
		}
	}
	if len(options) == 0 {
		return nil, false
	}

	total := 0
	for _, o := range options {
		total += o.tickets
	}
	winner := rng.Intn(total)
	var chosen blockOption
	for _, o := range options {
		winner -= o.tickets
		if winner < 0 {
			chosen = o
			break
		}
	}
	if chosen.roomID == "" && len(options) > 0 {
		chosen = options[len(options)-1]
	}

	var placed []Assignment
	for p := chosen.start; p < chosen.start+job.BlockSize; p++ {
		v := DecisionVariable{ClassID: job.ClassID, SubjectID: job.SubjectID, TeacherID: chosen.teacherID, RoomID: chosen.roomID, Day: chosen.day, Period: p}
		cs.place(v)
		placed = append(placed, toAssignment(v))
	}
	return placed, true
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func hasVariable(model *variableModel, v DecisionVariable) bool {
	key := [4]interface{}{v.ClassID, v.SubjectID, v.Day, v.Period}
	for _, idx := range model.byClassSubjectDaySlot[key] {
		cand := model.vars[idx]
		if cand.TeacherID == v.TeacherID && cand.RoomID == v.RoomID {
			return true
		}
	}
	return false
}

func toAssignment(v DecisionVariable) Assignment {
	return Assignment{
		ClassID:   v.ClassID,
		SubjectID: v.SubjectID,
		TeacherID: v.TeacherID,
		RoomID:    v.RoomID,
		Day:       v.Day,
		Period:    v.Period,
	}
}

// repairGaps is a bounded local-search pass: for each pair of a teacher's
// same-day assignments with free periods between them, it tries to move the
// later one to the period right after the earlier one, closing that gap,
// without breaking any hard constraint. It never changes which
// (class,subject,teacher,room) is assigned — only the (day,period) of
// single-period assignments that are not part of a consecutive block.
func repairGaps(assignments []Assignment, inst Instance, avail map[string]*ResolvedAvailability, model *variableModel, maxIterations int) []Assignment {
	blocked := blockedAssignmentSet(inst)
	cs := rebuildConstraintState(assignments, avail)

	for iter := 0; iter < maxIterations; iter++ {
		moved := false
		groups := groupByTeacherDay(assignments)
		for _, g := range groups {
			idxs := g.indices
			sort.Slice(idxs, func(i, j int) bool { return assignments[idxs[i]].Period < assignments[idxs[j]].Period })
			for i := 0; i < len(idxs)-1; i++ {
				cur := assignments[idxs[i]]
				next := &assignments[idxs[i+1]]
				if next.Period-cur.Period <= 1 {
					continue
				}
				if blocked[next.ClassID+"/"+next.SubjectID] {
					continue
				}
				target := cur.Period + 1
				candidate := *next
				candidate.Period = target
				if !hasVariable(model, DecisionVariable{ClassID: candidate.ClassID, SubjectID: candidate.SubjectID, TeacherID: candidate.TeacherID, RoomID: candidate.RoomID, Day: candidate.Day, Period: target}) {
					continue
				}
				old := *next
				cs.unplace(variableFromAssignment(old))
				if cs.canPlace(variableFromAssignment(candidate)) {
					cs.place(variableFromAssignment(candidate))
					*next = candidate
					moved = true
				} else {
					cs.place(variableFromAssignment(old))
				}
			}
			if moved {
				break
			}
		}
		if !moved {
			break
		}
	}
	return assignments
}

func variableFromAssignment(a Assignment) DecisionVariable {
	return DecisionVariable{ClassID: a.ClassID, SubjectID: a.SubjectID, TeacherID: a.TeacherID, RoomID: a.RoomID, Day: a.Day, Period: a.Period}
}

func rebuildConstraintState(assignments []Assignment, avail map[string]*ResolvedAvailability) *constraintState {
	cs := newConstraintState(avail)
	for _, a := range assignments {
		cs.place(variableFromAssignment(a))
	}
	return cs
}

type teacherDayGroup struct {
	teacherID string
	day       int
	indices   []int
}

// groupByTeacherDay returns groups in a deterministic order (sorted by
// teacher ID then day) so repairGaps produces the same result every run
// given the same input assignments, preserving idempotence.
func groupByTeacherDay(assignments []Assignment) []teacherDayGroup {
	index := make(map[[2]interface{}]int)
	var groups []teacherDayGroup
	for i, a := range assignments {
		key := [2]interface{}{a.TeacherID, a.Day}
		if pos, ok := index[key]; ok {
			groups[pos].indices = append(groups[pos].indices, i)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, teacherDayGroup{teacherID: a.TeacherID, day: a.Day, indices: []int{i}})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].teacherID != groups[j].teacherID {
			return groups[i].teacherID < groups[j].teacherID
		}
		return groups[i].day < groups[j].day
	})
	return groups
}

// blockedAssignmentSet marks the "class/subject" pairs that carry a
// consecutive-block requirement: repairGaps must never relocate their
// assignments individually, since doing so could break block contiguity.
func blockedAssignmentSet(inst Instance) map[string]bool {
	out := make(map[string]bool)
	for _, cr := range expandConsecutive(inst) {
		out[cr.ClassID+"/"+cr.SubjectID] = true
	}
	return out
}

func fingerprint(assignments []Assignment) string {
	sorted := make([]Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		return a.RoomID < b.RoomID
	})
	buf := make([]byte, 0, len(sorted)*48)
	for _, a := range sorted {
		buf = append(buf, a.ClassID...)
		buf = append(buf, '|')
		buf = append(buf, a.SubjectID...)
		buf = append(buf, '|')
		buf = append(buf, a.TeacherID...)
		buf = append(buf, '|')
		buf = append(buf, a.RoomID...)
		buf = append(buf, '|')
		buf = appendInt(buf, a.Day)
		buf = append(buf, '|')
		buf = appendInt(buf, a.Period)
		buf = append(buf, ';')
	}
	return string(buf)
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	neg := n < 0
	if neg {
		n = -n
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	if neg {
		buf = append(buf, '-')
	}
	// reverse the digits just appended
	end := len(buf) - 1
	for start < end {
		buf[start], buf[end] = buf[end], buf[start]
		start++
		end--
	}
	return buf
}
