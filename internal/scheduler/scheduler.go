package scheduler

import (
	"sort"
	"time"
)

// Solve is the package's single entry point: it runs the full pipeline
// (input validation, availability resolution, variable construction,
// constructive search, metrics evaluation, candidate packaging) and
// returns an ordered, best-first list of up to SolutionLimit distinct
// candidates. Solve performs no I/O; callers own loading the Instance and
// persisting the SolveOutcome.
func Solve(instance Instance, opts SolveOptions) SolveOutcome {
	start := time.Now()
	inst := defaultInstance(instance)
	opts = defaultOptions(opts)

	avail := ResolveAvailability(inst.Teachers, inst.Days, inst.PeriodsPerDay)

	if res := validateInput(inst, avail); !res.ok {
		return SolveOutcome{Status: StatusInvalidInput, Reason: res.reason, Elapsed: time.Since(start)}
	}

	model, starved := buildVariables(inst, avail)
	if len(starved) > 0 {
		return SolveOutcome{
			Status:  StatusInfeasible,
			Reason:  "no legal placement for: " + joinSorted(starved),
			Elapsed: time.Since(start),
		}
	}

	jobs, reason, ok := buildJobs(inst)
	if !ok {
		return SolveOutcome{Status: StatusInfeasible, Reason: reason, Elapsed: time.Since(start)}
	}

	if opts.Cancel != nil {
		select {
		case <-opts.Cancel:
			return SolveOutcome{Status: StatusCancelled, Elapsed: time.Since(start)}
		default:
		}
	}

	candidates, timedOut := driveSolver(inst, avail, model, jobs, opts)
	candidates = packageCandidates(candidates, inst, avail)

	elapsed := time.Since(start)
	if opts.Cancel != nil {
		select {
		case <-opts.Cancel:
			if len(candidates) == 0 {
				return SolveOutcome{Status: StatusCancelled, Elapsed: elapsed}
			}
		default:
		}
	}

	if len(candidates) == 0 {
		if timedOut {
			return SolveOutcome{Status: StatusTimedOut, Reason: "time limit reached before any feasible candidate was found", Elapsed: elapsed}
		}
		return SolveOutcome{Status: StatusInfeasible, Reason: "no feasible candidate survived validation", Elapsed: elapsed}
	}

	// A timed-out search that still produced at least one candidate is
	// reported as Completed+Partial, not TimedOut: the caller has a usable,
	// if possibly incomplete, result set.
	return SolveOutcome{
		Status:     StatusCompleted,
		Candidates: candidates,
		Partial:    timedOut,
		Elapsed:    elapsed,
	}
}

// buildJobs turns each (class,subject) requirement into one or more
// placementJobs: whole consecutive blocks where a ConsecutiveRequirement
// applies, one single-period job per remaining period otherwise. A
// requirement paired with a consecutive rule whose block size does not
// evenly divide its periods_per_week is infeasible by construction: no
// silent rounding.
func buildJobs(inst Instance) ([]placementJob, string, bool) {
	blockSizeFor := make(map[[2]string]int)
	for _, cr := range expandConsecutive(inst) {
		blockSizeFor[[2]string{cr.ClassID, cr.SubjectID}] = cr.BlockSize
	}

	var jobs []placementJob
	for _, req := range inst.Requirements {
		if req.PeriodsPerWeek <= 0 {
			continue
		}
		key := [2]string{req.ClassID, req.SubjectID}
		blockSize, hasBlock := blockSizeFor[key]
		if !hasBlock {
			for i := 0; i < req.PeriodsPerWeek; i++ {
				jobs = append(jobs, placementJob{ClassID: req.ClassID, SubjectID: req.SubjectID})
			}
			continue
		}
		count, exact := blockCount(req.PeriodsPerWeek, blockSize)
		if !exact {
			return nil, "block_size " + itoa(blockSize) + " does not evenly divide periods_per_week for " + req.ClassID + "/" + req.SubjectID, false
		}
		for i := 0; i < count; i++ {
			jobs = append(jobs, placementJob{ClassID: req.ClassID, SubjectID: req.SubjectID, BlockSize: blockSize})
		}
	}
	return jobs, "", true
}

func joinSorted(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	out := ""
	for i, s := range sorted {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func itoa(n int) string {
	return string(appendInt(nil, n))
}
