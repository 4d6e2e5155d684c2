package scheduler

// objectiveWeight computes a per-variable bonus-penalty term that biases
// the constructive search toward preference-satisfying placements. It is
// deliberately independent from evaluateMetrics' ranking score: the
// objective guides search, the score is the audit-reproducible ranking
// contract.
//
// Gap penalties operate on a whole-day view and cannot be attributed to a
// single variable; they are not part of this weight (the repair pass in
// solver.go closes gaps, and evaluateMetrics counts them). The
// preference-violation penalty is applied per variable, and only when the
// period is not already penalized as avoided.
func objectiveWeight(v DecisionVariable, ra *ResolvedAvailability, periodsPerDay int) int {
	if ra == nil {
		return 0
	}
	bonus := 0
	if ra.PreferredDays[v.Day] {
		bonus += 3
	}
	if ra.PreferredPeriods[v.Period] {
		bonus += 2
	}
	if ra.PreferredRooms[v.RoomID] {
		bonus += 1
	}

	penalty := 0
	avoided := ra.AvoidedPeriods[v.Period]
	if avoided {
		penalty += 5
	}
	if ra.PrefersMorning && v.Period >= periodsPerDay/2 {
		penalty += 2
	}
	if ra.PrefersAfternoon && v.Period < periodsPerDay/2 {
		penalty += 2
	}
	// Preference violation not already accounted for by the avoided-periods
	// penalty above: a non-empty preferred set that excludes this period.
	if len(ra.PreferredPeriods) > 0 && !ra.PreferredPeriods[v.Period] && !avoided {
		penalty += 2
	}

	return bonus - penalty
}

// lotteryTickets turns an objective weight into a positive lottery ticket
// count for the weighted-random constructive choice in solver.go (grounded
// on the weighted-lottery pattern: higher weight, proportionally more
// tickets, floor of 1 so every legal option remains reachable).
func lotteryTickets(weight int) int {
	const ticketFloor = 1
	const ticketScale = 3
	tickets := ticketScale*weight + 20
	if tickets < ticketFloor {
		tickets = ticketFloor
	}
	return tickets
}
