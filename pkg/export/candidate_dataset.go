package export

import (
	"fmt"
	"sort"

	"github.com/noah-isme/classtable-engine/internal/scheduler"
)

// CandidateDataset renders one candidate timetable as a day x period grid
// per class, in the Headers/Rows shape the CSV and PDF renderers expect.
func CandidateDataset(candidate scheduler.Candidate, inst scheduler.Instance) Dataset {
	classNames := make(map[string]string, len(inst.Classes))
	for _, c := range inst.Classes {
		classNames[c.ID] = c.Name
	}
	subjectNames := make(map[string]string, len(inst.Subjects))
	for _, s := range inst.Subjects {
		subjectNames[s.ID] = s.Name
	}
	teacherNames := make(map[string]string, len(inst.Teachers))
	for _, t := range inst.Teachers {
		teacherNames[t.ID] = t.Name
	}
	roomNames := make(map[string]string, len(inst.Rooms))
	for _, r := range inst.Rooms {
		roomNames[r.ID] = r.Name
	}

	days := inst.Days
	if days <= 0 {
		days = 5
	}
	periods := inst.PeriodsPerDay
	if periods <= 0 {
		periods = 8
	}

	headers := make([]string, 0, days+1)
	headers = append(headers, "class", "period")
	dayLabel := func(day int) string {
		return fmt.Sprintf("day_%d", day+1)
	}
	for d := 0; d < days; d++ {
		headers = append(headers, dayLabel(d))
	}

	type cellKey struct {
		classID string
		period  int
		day     int
	}
	cells := make(map[cellKey]string, len(candidate.Assignments))
	classSet := make(map[string]struct{})
	for _, a := range candidate.Assignments {
		label := subjectNames[a.SubjectID]
		if label == "" {
			label = a.SubjectID
		}
		teacher := teacherNames[a.TeacherID]
		if teacher == "" {
			teacher = a.TeacherID
		}
		room := roomNames[a.RoomID]
		if room == "" {
			room = a.RoomID
		}
		cells[cellKey{a.ClassID, a.Period, a.Day}] = fmt.Sprintf("%s (%s, %s)", label, teacher, room)
		classSet[a.ClassID] = struct{}{}
	}

	classIDs := make([]string, 0, len(classSet))
	for id := range classSet {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	rows := make([]map[string]string, 0, len(classIDs)*periods)
	for _, classID := range classIDs {
		name := classNames[classID]
		if name == "" {
			name = classID
		}
		for p := 0; p < periods; p++ {
			row := map[string]string{
				"class":  name,
				"period": fmt.Sprintf("%d", p+1),
			}
			for d := 0; d < days; d++ {
				row[dayLabel(d)] = cells[cellKey{classID, p, d}]
			}
			rows = append(rows, row)
		}
	}

	return Dataset{Headers: headers, Rows: rows}
}
