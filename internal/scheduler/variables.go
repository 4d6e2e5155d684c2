package scheduler

// DecisionVariable identifies one legal (class, subject, teacher, room, day,
// period) tuple. buildVariables allocates one of these only for tuples that
// pass every legality predicate; pruning happens here, not as constraints
// applied after the fact.
type DecisionVariable struct {
	ClassID   string
	SubjectID string
	TeacherID string
	RoomID    string
	Day       int
	Period    int
}

// variableModel holds every legal DecisionVariable plus the projection
// indices the constraint checker and constructive solver both need.
type variableModel struct {
	vars []DecisionVariable

	byClassSubject         map[[2]string][]int            // [class,subject] -> var indices
	byClassSubjectDaySlot  map[[4]interface{}][]int        // [class,subject,day,period] -> var indices
	byTeacherSlot          map[[3]interface{}][]int        // [teacher,day,period] -> var indices
	byRoomSlot             map[[3]interface{}][]int        // [room,day,period] -> var indices
	byClassSlot            map[[3]interface{}][]int        // [class,day,period] -> var indices

	teachersForClassSubject map[[2]string]map[string]bool
	roomsForClassSubject    map[[2]string]map[string]bool
}

// buildVariables enumerates the Cartesian product of qualified teachers,
// suitable rooms and legal periods for every required (class, subject) pair
// and day. It returns the variable model plus the set of (class,subject)
// pairs left with zero legal slots, which the caller must
// treat as Infeasible before ever invoking the solver.
func buildVariables(inst Instance, avail map[string]*ResolvedAvailability) (*variableModel, []string) {
	subjectsByID := indexSubjects(inst.Subjects)
	classesByID := indexClasses(inst.Classes)

	qualifiedTeachers := make(map[string][]string) // subject -> teacher IDs
	for _, q := range inst.Qualifications {
		qualifiedTeachers[q.SubjectID] = append(qualifiedTeachers[q.SubjectID], q.TeacherID)
	}

	model := &variableModel{
		byClassSubject:          make(map[[2]string][]int),
		byClassSubjectDaySlot:   make(map[[4]interface{}][]int),
		byTeacherSlot:           make(map[[3]interface{}][]int),
		byRoomSlot:              make(map[[3]interface{}][]int),
		byClassSlot:             make(map[[3]interface{}][]int),
		teachersForClassSubject: make(map[[2]string]map[string]bool),
		roomsForClassSubject:    make(map[[2]string]map[string]bool),
	}

	var starved []string

	for _, req := range inst.Requirements {
		if req.PeriodsPerWeek <= 0 {
			continue
		}
		class, ok := classesByID[req.ClassID]
		if !ok {
			continue
		}
		subject, ok := subjectsByID[req.SubjectID]
		if !ok {
			continue
		}
		key := [2]string{req.ClassID, req.SubjectID}
		model.teachersForClassSubject[key] = make(map[string]bool)
		model.roomsForClassSubject[key] = make(map[string]bool)

		suitableRooms := suitableRoomsFor(inst.Rooms, class, subject)

		for _, teacherID := range qualifiedTeachers[req.SubjectID] {
			ra := avail[teacherID]
			if ra == nil {
				continue
			}
			for day := 0; day < inst.Days; day++ {
				periods := ra.Available[day]
				for period := 0; period < inst.PeriodsPerDay; period++ {
					if !periods[period] {
						continue
					}
					for _, room := range suitableRooms {
						idx := len(model.vars)
						model.vars = append(model.vars, DecisionVariable{
							ClassID:   req.ClassID,
							SubjectID: req.SubjectID,
							TeacherID: teacherID,
							RoomID:    room.ID,
							Day:       day,
							Period:    period,
						})
						model.byClassSubject[key] = append(model.byClassSubject[key], idx)
						dsKey := [4]interface{}{req.ClassID, req.SubjectID, day, period}
						model.byClassSubjectDaySlot[dsKey] = append(model.byClassSubjectDaySlot[dsKey], idx)
						tKey := [3]interface{}{teacherID, day, period}
						model.byTeacherSlot[tKey] = append(model.byTeacherSlot[tKey], idx)
						rKey := [3]interface{}{room.ID, day, period}
						model.byRoomSlot[rKey] = append(model.byRoomSlot[rKey], idx)
						cKey := [3]interface{}{req.ClassID, day, period}
						model.byClassSlot[cKey] = append(model.byClassSlot[cKey], idx)
						model.teachersForClassSubject[key][teacherID] = true
						model.roomsForClassSubject[key][room.ID] = true
					}
				}
			}
		}

		if len(model.byClassSubject[key]) == 0 {
			starved = append(starved, req.ClassID+"/"+req.SubjectID)
		}
	}

	return model, starved
}

func suitableRoomsFor(rooms []Room, class Class, subject Subject) []Room {
	var out []Room
	for _, r := range rooms {
		if r.Capacity >= class.StudentCount && featuresSatisfied(subject.RequiredFeatures, r.Features) {
			out = append(out, r)
		}
	}
	return out
}
