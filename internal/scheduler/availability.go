package scheduler

import "strings"

// ResolvedAvailability is the compiled per-teacher (day, period) bitmap
// derived from a TeacherAvailabilityDoc plus its preference overlay.
type ResolvedAvailability struct {
	// Available[day] is the set of periods the teacher may teach on that day.
	Available map[int]map[int]bool

	PreferredDays    map[int]bool
	PreferredPeriods map[int]bool
	AvoidedPeriods   map[int]bool
	PrefersMorning   bool
	PrefersAfternoon bool
	MaxDailyLoad     int
	MaxConsecutive   int
	PreferredRooms   map[string]bool
}

var dayNameToIndex = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

func dayIndexFromName(name string) (int, bool) {
	idx, ok := dayNameToIndex[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

// ResolveAvailability compiles every teacher's raw availability/preference
// documents into a per-teacher ResolvedAvailability. Missing day entries
// default to every period being available; hard flags are applied after
// day entries are resolved.
func ResolveAvailability(teachers []Teacher, days, periodsPerDay int) map[string]*ResolvedAvailability {
	result := make(map[string]*ResolvedAvailability, len(teachers))
	for _, t := range teachers {
		result[t.ID] = resolveOne(t, days, periodsPerDay)
	}
	return result
}

func resolveOne(t Teacher, days, periodsPerDay int) *ResolvedAvailability {
	ra := &ResolvedAvailability{
		Available:        make(map[int]map[int]bool, days),
		PreferredDays:    toIntSet(t.Preferences.PreferredDays),
		PreferredPeriods: toIntSet(t.Preferences.PreferredPeriods),
		AvoidedPeriods:   toIntSet(t.Preferences.AvoidedPeriods),
		PrefersMorning:   t.Preferences.PrefersMorning,
		PrefersAfternoon: t.Preferences.PrefersAfternoon,
		MaxDailyLoad:     t.Preferences.MaxDailyLoad,
		MaxConsecutive:   t.Preferences.MaxConsecutive,
		PreferredRooms:   toStringSet(t.Preferences.PreferredRooms),
	}
	if ra.MaxDailyLoad <= 0 {
		ra.MaxDailyLoad = 6
	}
	if ra.MaxConsecutive <= 0 {
		ra.MaxConsecutive = 4
	}

	byIndex := make(map[int]DayAvailability, len(t.Availability.Days))
	for name, doc := range t.Availability.Days {
		if idx, ok := dayIndexFromName(name); ok {
			byIndex[idx] = doc
		}
	}

	for day := 0; day < days; day++ {
		periods := make(map[int]bool, periodsPerDay)
		doc, hasDoc := byIndex[day]
		switch {
		case !hasDoc:
			for p := 0; p < periodsPerDay; p++ {
				periods[p] = true
			}
		case len(doc.Available) > 0:
			// A day entry is available minus unavailable: when both lists
			// are populated, unavailable still wins for any period it names.
			for _, p := range doc.Available {
				if p >= 0 && p < periodsPerDay {
					periods[p] = true
				}
			}
			for _, p := range doc.Unavailable {
				delete(periods, p)
			}
		default:
			for p := 0; p < periodsPerDay; p++ {
				periods[p] = true
			}
			for _, p := range doc.Unavailable {
				delete(periods, p)
			}
		}
		ra.Available[day] = periods
	}

	if t.Availability.NeverMondayMorning {
		if monday, ok := ra.Available[0]; ok {
			delete(monday, 0)
			delete(monday, 1)
			delete(monday, 2)
		}
	}
	if t.Availability.NoLastPeriod {
		last := periodsPerDay - 1
		for day := 0; day < days; day++ {
			delete(ra.Available[day], last)
		}
	}
	if t.Availability.NoEarlyMorning {
		for day := 0; day < days; day++ {
			delete(ra.Available[day], 0)
		}
	}

	return ra
}

func (r *ResolvedAvailability) CanTeach(day, period int) bool {
	if r == nil {
		return false
	}
	set, ok := r.Available[day]
	return ok && set[period]
}

func toIntSet(vals []int) map[int]bool {
	set := make(map[int]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

func toStringSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
