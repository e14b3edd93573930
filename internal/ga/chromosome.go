package ga

import "sort"

// Chromosome is a fixed-length assignment of lecture-units to starting
// slots. Position i corresponds to Snapshot.UnitRef(i); invariants 1-2 of
// spec.md §3 hold for every chromosome ever produced by this package.
type Chromosome struct {
	Genes []SlotID

	// Fitness is populated by Evaluate and left at its zero value until
	// then; it is never computed implicitly by constructors.
	Fitness FitnessRecord
}

// FitnessRecord is the cached evaluation result attached to a chromosome.
type FitnessRecord struct {
	HardViolations int
	SoftPenalty    float64
	Fitness        float64
	Evaluated      bool
}

// Less implements the lexicographic ranking of spec.md §3 invariant 5:
// fewer hard violations wins; ties broken by lower soft penalty.
func (f FitnessRecord) Less(o FitnessRecord) bool {
	if f.HardViolations != o.HardViolations {
		return f.HardViolations < o.HardViolations
	}
	return f.SoftPenalty < o.SoftPenalty
}

// NewRandomChromosome builds a chromosome by choosing, for each
// lecture-unit, a uniformly random feasible starting slot (spec.md §4.2).
func NewRandomChromosome(snap *Snapshot, rng *RNG) *Chromosome {
	genes := make([]SlotID, snap.TotalUnits())
	for i := range genes {
		lec := snap.UnitLecture(i)
		starts := snap.FeasibleStartsCached(lec.Duration)
		if len(starts) == 0 {
			genes[i] = -1 // no feasible start at all; HV1 will penalize this
			continue
		}
		genes[i] = starts[rng.Intn(len(starts))].ID
	}
	return &Chromosome{Genes: genes}
}

// NewHeuristicChromosome builds a chromosome via constrained seeding:
// lecture-units are ordered by descending constrainedness (longer
// duration first, then teachers with more unavailabilities, then
// subdivisions belonging to larger groups), and each is placed at the
// least-conflicting feasible start seen so far, ties broken at random
// (spec.md §4.2).
func NewHeuristicChromosome(snap *Snapshot, rng *RNG) *Chromosome {
	genes := make([]SlotID, snap.TotalUnits())
	for i := range genes {
		genes[i] = -1
	}

	order := heuristicOrder(snap)
	occupied := map[SlotID][]int{} // slot -> unit indices placed there so far
	for _, i := range order {
		lec := snap.UnitLecture(i)
		starts := snap.FeasibleStartsCached(lec.Duration)
		if len(starts) == 0 {
			continue
		}

		bestCost := -1
		var bestSlots []SlotID
		for _, start := range starts {
			cost := incrementalHardCost(snap, lec, start.ID, genes, i, occupied)
			if bestCost == -1 || cost < bestCost {
				bestCost = cost
				bestSlots = bestSlots[:0]
				bestSlots = append(bestSlots, start.ID)
			} else if cost == bestCost {
				bestSlots = append(bestSlots, start.ID)
			}
		}
		chosen := bestSlots[rng.Intn(len(bestSlots))]
		genes[i] = chosen
		for _, occ := range snap.OccupiedSlots(chosen, lec.Duration) {
			occupied[occ] = append(occupied[occ], i)
		}
	}
	return &Chromosome{Genes: genes}
}

// heuristicOrder ranks lecture-unit indices by descending constrainedness.
func heuristicOrder(snap *Snapshot) []int {
	n := snap.TotalUnits()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	teacherUnavailCount := func(teacherID string) int {
		t, _ := snap.Teacher(teacherID)
		return len(t.Unavailable)
	}

	groupMemberCount := map[string]int{}
	for _, sub := range snap.subjects {
		groupMemberCount[sub.GroupID]++
	}
	groupSize := func(subjectID string) int {
		sub, ok := snap.Subject(subjectID)
		if !ok {
			return 0
		}
		return groupMemberCount[sub.GroupID]
	}

	sort.SliceStable(order, func(a, b int) bool {
		la := snap.UnitLecture(order[a])
		lb := snap.UnitLecture(order[b])
		if la.Duration != lb.Duration {
			return la.Duration > lb.Duration
		}
		ua, ub := teacherUnavailCount(la.TeacherID), teacherUnavailCount(lb.TeacherID)
		if ua != ub {
			return ua > ub
		}
		ga, gb := groupSize(la.SubjectID), groupSize(lb.SubjectID)
		return ga > gb
	})
	return order
}

// incrementalHardCost estimates how many additional hard violations
// placing unit `unitIdx` of lecture `lec` at `start` would introduce,
// given the units already placed in `genes`/`occupied`.
func incrementalHardCost(snap *Snapshot, lec Lecture, start SlotID, genes []SlotID, unitIdx int, occupied map[SlotID][]int) int {
	cost := 0
	occSlots := snap.OccupiedSlots(start, lec.Duration)
	if len(occSlots) != lec.Duration {
		return lec.Duration * 10 // overflow: heavily penalize, still finite so ties resolve
	}
	for _, slotID := range occSlots {
		if snap.TeacherHardBlocked(lec.TeacherID, slotID) {
			cost++
		}
		for _, sdID := range lec.Subdivisions {
			if snap.SubdivisionHardBlocked(sdID, slotID) {
				cost++
			}
		}
		for _, crID := range lec.Classrooms {
			if snap.ClassroomHardBlocked(crID, slotID) {
				cost++
			}
		}
		for _, otherIdx := range occupied[slotID] {
			other := snap.UnitLecture(otherIdx)
			if coOccurrenceViolates(snap, lec, other) {
				cost++
			}
		}
	}
	return cost
}

// Clone returns a deep copy of the chromosome.
func (c *Chromosome) Clone() *Chromosome {
	genes := make([]SlotID, len(c.Genes))
	copy(genes, c.Genes)
	return &Chromosome{Genes: genes, Fitness: c.Fitness}
}
