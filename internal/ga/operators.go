package ga

// TournamentSelect runs a tournament of the given size over the
// population and returns the index of the winner: the individual that is
// lexicographically best by (-hardViolations, -softPenalty) (spec.md §4.5).
func TournamentSelect(pop []*Chromosome, size int, rng *RNG) int {
	best := rng.Intn(len(pop))
	for i := 1; i < size; i++ {
		candidate := rng.Intn(len(pop))
		if pop[candidate].Fitness.Less(pop[best].Fitness) {
			best = candidate
		}
	}
	return best
}

// UniformCrossover produces two children from two parents by choosing,
// independently per lecture-unit gene, which parent each child inherits
// from (spec.md §4.5). When crossoverProbability rolls false, children are
// exact clones of the parents.
func UniformCrossover(a, b *Chromosome, crossoverProbability float64, rng *RNG) (child1, child2 *Chromosome) {
	if !rng.Bool(crossoverProbability) {
		return a.Clone(), b.Clone()
	}
	n := len(a.Genes)
	g1 := make([]SlotID, n)
	g2 := make([]SlotID, n)
	for i := 0; i < n; i++ {
		if rng.Bool(0.5) {
			g1[i], g2[i] = a.Genes[i], b.Genes[i]
		} else {
			g1[i], g2[i] = b.Genes[i], a.Genes[i]
		}
	}
	return &Chromosome{Genes: g1}, &Chromosome{Genes: g2}
}

// SinglePointCrossover produces two children by splitting both parents'
// gene sequences at one random point (spec.md §4.5, alternative to
// uniform crossover).
func SinglePointCrossover(a, b *Chromosome, crossoverProbability float64, rng *RNG) (child1, child2 *Chromosome) {
	if !rng.Bool(crossoverProbability) {
		return a.Clone(), b.Clone()
	}
	n := len(a.Genes)
	if n < 2 {
		return a.Clone(), b.Clone()
	}
	point := 1 + rng.Intn(n-1)
	g1 := make([]SlotID, n)
	g2 := make([]SlotID, n)
	copy(g1[:point], a.Genes[:point])
	copy(g1[point:], b.Genes[point:])
	copy(g2[:point], b.Genes[:point])
	copy(g2[point:], a.Genes[point:])
	return &Chromosome{Genes: g1}, &Chromosome{Genes: g2}
}

// Mutate applies one mutation to c in place: with probability
// swapMutationRatio it swaps the starting slots of two randomly chosen
// units of equal duration (keeping day-bound invariants structurally
// valid); otherwise it reassigns one unit's start to a uniformly random
// feasible slot (spec.md §4.5).
func Mutate(snap *Snapshot, c *Chromosome, swapMutationRatio float64, rng *RNG) {
	if rng.Bool(swapMutationRatio) {
		swapMutate(snap, c, rng)
		return
	}
	randomReassignMutate(snap, c, rng)
}

func swapMutate(snap *Snapshot, c *Chromosome, rng *RNG) {
	n := len(c.Genes)
	if n < 2 {
		return
	}
	i := rng.Intn(n)
	lecI := snap.UnitLecture(i)

	// find a candidate with equal duration; bound the search so a
	// pathological snapshot (single duration class) never loops forever.
	for attempt := 0; attempt < n; attempt++ {
		j := rng.Intn(n)
		if j == i {
			continue
		}
		lecJ := snap.UnitLecture(j)
		if lecJ.Duration == lecI.Duration {
			c.Genes[i], c.Genes[j] = c.Genes[j], c.Genes[i]
			return
		}
	}
}

func randomReassignMutate(snap *Snapshot, c *Chromosome, rng *RNG) {
	n := len(c.Genes)
	if n == 0 {
		return
	}
	i := rng.Intn(n)
	lec := snap.UnitLecture(i)
	starts := snap.FeasibleStartsCached(lec.Duration)
	if len(starts) == 0 {
		return
	}
	c.Genes[i] = starts[rng.Intn(len(starts))].ID
}
