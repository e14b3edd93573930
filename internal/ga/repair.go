package ga

// Repair deterministically reduces the hard-violation count of a
// chromosome in place, given (chromosome, rng) (spec.md §4.4). It halts
// when no improving move exists or a budget of 2*units probes is
// exhausted. It never increases hardViolations (P9).
type Repair struct {
	eval *Evaluator
}

// NewRepair binds an Evaluator to repair with.
func NewRepair(eval *Evaluator) *Repair {
	return &Repair{eval: eval}
}

// Run repairs c in place and returns the number of reassignments made.
func (r *Repair) Run(c *Chromosome, rng *RNG) int {
	snap := r.eval.snap
	budget := 2 * len(c.Genes)
	moves := 0

	for probe := 0; probe < budget; probe++ {
		violators := r.violatingUnits(c)
		if len(violators) == 0 {
			break
		}
		// enumerate in descending individual contribution
		target := violators[0]
		lec := snap.UnitLecture(target)
		starts := snap.FeasibleStartsCached(lec.Duration)
		if len(starts) == 0 {
			continue
		}

		currentHard, currentSoft := r.localCost(c, target)

		bestHard := currentHard
		bestSoft := currentSoft
		bestSlots := []SlotID{c.Genes[target]}
		original := c.Genes[target]

		for _, start := range starts {
			if start.ID == original {
				continue
			}
			c.Genes[target] = start.ID
			hard, soft := r.localCost(c, target)
			if hard < bestHard || (hard == bestHard && soft < bestSoft) {
				bestHard, bestSoft = hard, soft
				bestSlots = bestSlots[:0]
				bestSlots = append(bestSlots, start.ID)
			} else if hard == bestHard && soft == bestSoft {
				bestSlots = append(bestSlots, start.ID)
			}
		}
		c.Genes[target] = original

		if bestHard >= currentHard {
			// no improving move for this unit; move on to the next probe
			// so other violators still get a chance within budget.
			continue
		}

		chosen := bestSlots[rng.Intn(len(bestSlots))]
		c.Genes[target] = chosen
		moves++
	}

	r.eval.Evaluate(c)
	return moves
}

// violatingUnits returns unit indices that currently participate in at
// least one hard violation, ordered by descending individual contribution.
func (r *Repair) violatingUnits(c *Chromosome) []int {
	snap := r.eval.snap
	contribution := make(map[int]int)

	for i, start := range c.Genes {
		lec := snap.UnitLecture(i)
		if start < 0 {
			contribution[i] += lec.Duration * 10
			continue
		}
		sl, ok := snap.Slot(start)
		if !ok {
			contribution[i]++
			continue
		}
		daySlots := snap.SlotsForDay(sl.Day)
		lastPeriod := sl.Period
		if len(daySlots) > 0 {
			lastPeriod = daySlots[len(daySlots)-1].Period
		}
		if sl.Period+lec.Duration-1 > lastPeriod {
			contribution[i]++
		}
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			if snap.TeacherHardBlocked(lec.TeacherID, slotID) {
				contribution[i]++
			}
			for _, sdID := range lec.Subdivisions {
				if snap.SubdivisionHardBlocked(sdID, slotID) {
					contribution[i]++
				}
			}
			for _, crID := range lec.Classrooms {
				if snap.ClassroomHardBlocked(crID, slotID) {
					contribution[i]++
				}
			}
		}
	}

	occ := r.eval.buildOccupancy(c)
	for _, units := range occ {
		for a := 0; a < len(units); a++ {
			for b := a + 1; b < len(units); b++ {
				lecA := snap.UnitLecture(units[a])
				lecB := snap.UnitLecture(units[b])
				if coOccurrenceViolates(snap, lecA, lecB) {
					contribution[units[a]]++
					contribution[units[b]]++
				}
			}
		}
	}

	violators := make([]int, 0, len(contribution))
	for i, cnt := range contribution {
		if cnt > 0 {
			violators = append(violators, i)
		}
	}
	sortByContributionDesc(violators, contribution)
	return violators
}

func sortByContributionDesc(units []int, contribution map[int]int) {
	for i := 1; i < len(units); i++ {
		j := i
		for j > 0 && contribution[units[j-1]] < contribution[units[j]] {
			units[j-1], units[j] = units[j], units[j-1]
			j--
		}
	}
}

// localCost is a cheap re-evaluation of the whole chromosome's hard/soft
// scores after a hypothetical single-gene change; repair's budget is
// 2*units probes so full re-evaluation per probe is acceptable at the
// sizes this engine targets.
func (r *Repair) localCost(c *Chromosome, _ int) (hard int, soft float64) {
	rec := r.eval.Evaluate(c)
	return rec.HardViolations, rec.SoftPenalty
}
