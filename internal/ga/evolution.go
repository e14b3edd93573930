package ga

import (
	"runtime"
	"sync"
	"time"
)

// GenerationMetrics is published once per generation (spec.md §4.7 step 5 /
// §6 Progress Publisher sink).
type GenerationMetrics struct {
	Generation     int
	MaxGenerations int
	BestFitness    float64
	AvgFitness     float64
	HardViolations int // of the best individual
	SoftPenalty    float64
	Elapsed        time.Duration
}

// ProgressFunc is the host-provided Progress Publisher sink of spec.md §6.
// It must be non-blocking or tolerate blocking without deadlocking the
// loop; Evolution calls it synchronously at each generation boundary.
type ProgressFunc func(GenerationMetrics)

// TerminationReason names why Run stopped.
type TerminationReason string

const (
	TerminationMaxGenerations TerminationReason = "maxGenerations"
	TerminationStagnant       TerminationReason = "maxStagnantGenerations"
	TerminationTargetFitness  TerminationReason = "targetFitness"
	TerminationDeadline       TerminationReason = "deadlineExceeded"
	TerminationCancelled      TerminationReason = "cancelled"
	TerminationFeasible       TerminationReason = "stopOnFeasible"
)

// Result is what Evolution.Run returns: the best chromosome found and the
// reason the run stopped.
type Result struct {
	Best               *Chromosome
	Generations        int
	Reason             TerminationReason
	DeadlineExceeded   bool
	Cancelled          bool
	History            []GenerationMetrics
}

// Evolution is the generational driver of spec.md §4.7: elitism,
// recombination, mutation, repair, scoring, termination.
type Evolution struct {
	snap   *Snapshot
	cfg    Config
	eval   *Evaluator
	repair *Repair
	rootRNG *RNG

	Progress    ProgressFunc
	IsCancelled func() bool
}

// NewEvolution builds an Evolution loop bound to a snapshot and config.
// The config is assumed already Validate()-d by the caller. Per spec.md §6,
// an unset seed (HasSeed false) is derived from wall-clock time rather than
// silently defaulting to the zero seed.
func NewEvolution(snap *Snapshot, cfg Config) *Evolution {
	eval := NewEvaluator(snap, cfg.ConstraintWeights)
	seed := cfg.RandomSeed
	if !cfg.HasSeed {
		seed = uint64(time.Now().UnixNano())
	}
	return &Evolution{
		snap:    snap,
		cfg:     cfg,
		eval:    eval,
		repair:  NewRepair(eval),
		rootRNG: NewRNG(seed),
	}
}

// Run executes the evolution loop to termination and returns the best
// chromosome found plus the reason execution stopped. Zero-demand
// snapshots (TotalUnits() == 0) short-circuit at generation 0 with
// fitness 1, per spec.md §8.
func (e *Evolution) Run() Result {
	start := time.Now()

	if e.snap.TotalUnits() == 0 {
		empty := &Chromosome{Genes: nil}
		e.eval.Evaluate(empty)
		e.publish(0, []*Chromosome{empty}, start)
		return Result{Best: empty, Generations: 0, Reason: TerminationTargetFitness}
	}

	pop := e.initialPopulation()
	for _, c := range pop {
		e.eval.Evaluate(c)
	}

	mc := NewMutationController(e.cfg.AdaptiveMutation, e.cfg.MutationProbability)

	var stagnantGenerations int
	var lastBestFitness float64
	haveLastBest := false
	var history []GenerationMetrics

	generation := 0
	for {
		rankPopulation(pop)
		best := pop[0]

		if haveLastBest && best.Fitness.Fitness <= lastBestFitness {
			stagnantGenerations++
		} else {
			stagnantGenerations = 0
		}
		lastBestFitness = best.Fitness.Fitness
		haveLastBest = true
		mc.ObserveGeneration(best.Fitness.Fitness)

		metrics := e.snapshotMetrics(generation, pop, start)
		history = append(history, metrics)
		e.publishMetrics(metrics)

		if reason, ok := e.checkTermination(generation, best, stagnantGenerations, start); ok {
			return Result{
				Best:             best,
				Generations:      generation,
				Reason:           reason,
				DeadlineExceeded: reason == TerminationDeadline,
				Cancelled:        reason == TerminationCancelled,
				History:          history,
			}
		}

		pop = e.nextGeneration(pop, mc, generation)
		generation++
	}
}

func (e *Evolution) initialPopulation() []*Chromosome {
	n := e.cfg.PopulationSize
	heuristicCount := int(float64(n) * e.cfg.HeuristicInitRatio)
	pop := make([]*Chromosome, 0, n)
	for i := 0; i < n; i++ {
		sub := e.rootRNG.Split(uint64(i) + 1)
		if i < heuristicCount {
			pop = append(pop, NewHeuristicChromosome(e.snap, sub))
		} else {
			pop = append(pop, NewRandomChromosome(e.snap, sub))
		}
	}
	return pop
}

// rankPopulation sorts the population best-first by the lexicographic
// order of spec.md §3 invariant 5, stable so insertion order breaks ties
// deterministically (spec.md §4.3 ordering note).
func rankPopulation(pop []*Chromosome) {
	// insertion sort is adequate at the population sizes this engine
	// targets and keeps the stability guarantee explicit and obvious.
	for i := 1; i < len(pop); i++ {
		j := i
		for j > 0 && pop[j].Fitness.Less(pop[j-1].Fitness) {
			pop[j-1], pop[j] = pop[j], pop[j-1]
			j--
		}
	}
}

func (e *Evolution) checkTermination(generation int, best *Chromosome, stagnant int, start time.Time) (TerminationReason, bool) {
	if e.IsCancelled != nil && e.IsCancelled() {
		return TerminationCancelled, true
	}
	if time.Since(start) >= e.cfg.MaxExecutionTime {
		return TerminationDeadline, true
	}
	if e.cfg.StopOnFeasible && best.Fitness.HardViolations == 0 {
		return TerminationFeasible, true
	}
	if best.Fitness.Fitness >= e.cfg.TargetFitness {
		return TerminationTargetFitness, true
	}
	if stagnant >= e.cfg.MaxStagnantGenerations {
		return TerminationStagnant, true
	}
	if generation+1 >= e.cfg.MaxGenerations {
		return TerminationMaxGenerations, true
	}
	return "", false
}

// nextGeneration produces generation g+1 from g: elitism, then fill with
// offspring via selection/crossover/mutation/repair/evaluation.
func (e *Evolution) nextGeneration(pop []*Chromosome, mc *MutationController, generation int) []*Chromosome {
	next := make([]*Chromosome, 0, len(pop))
	for i := 0; i < e.cfg.EliteCount && i < len(pop); i++ {
		next = append(next, pop[i]) // elites carry over bit-identically (P4)
	}

	diversity := 1.0
	if e.cfg.AdaptiveMutation.Strategy == MutationDiversity || e.cfg.AdaptiveMutation.Strategy == MutationHybrid {
		diversity = PopulationDiversity(pop, e.rootRNG.Split(uint64(generation)+1<<32), 60, 200)
	}
	genProbability := mc.GenerationProbability(diversity)

	var fMax, fSum float64
	for i, c := range pop {
		if i == 0 || c.Fitness.Fitness > fMax {
			fMax = c.Fitness.Fitness
		}
		fSum += c.Fitness.Fitness
	}
	fAvg := fSum / float64(len(pop))

	need := len(pop) - len(next)
	type pairResult struct {
		children [2]*Chromosome
	}

	pairsNeeded := (need + 1) / 2
	results := make([]pairResult, pairsNeeded)

	runPair := func(pairIdx int) {
		sub := e.rootRNG.Split(uint64(generation)*1000003 + uint64(pairIdx) + 2)
		i1 := TournamentSelect(pop, e.cfg.TournamentSize, sub)
		i2 := TournamentSelect(pop, e.cfg.TournamentSize, sub)
		child1, child2 := UniformCrossover(pop[i1], pop[i2], e.cfg.CrossoverProbability, sub)

		for _, child := range [2]*Chromosome{child1, child2} {
			prob := genProbability
			if e.cfg.AdaptiveMutation.Strategy == MutationFitness {
				prob = mc.IndividualProbability(child.Fitness.Fitness, fMax, fAvg)
			}
			if sub.Bool(prob) {
				Mutate(e.snap, child, e.cfg.SwapMutationRatio, sub)
			}
			e.eval.Evaluate(child)
			if e.cfg.EnableRepair && child.Fitness.HardViolations > 0 {
				e.repair.Run(child, sub)
			}
		}
		results[pairIdx] = pairResult{children: [2]*Chromosome{child1, child2}}
	}

	if e.cfg.EnableParallel && pairsNeeded > 1 {
		workers := runtime.GOMAXPROCS(0)
		if e.cfg.MaxParallelism > 0 && e.cfg.MaxParallelism < workers {
			workers = e.cfg.MaxParallelism
		}
		if workers < 1 {
			workers = 1
		}
		var wg sync.WaitGroup
		jobs := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					runPair(idx)
				}
			}()
		}
		for idx := 0; idx < pairsNeeded; idx++ {
			jobs <- idx
		}
		close(jobs)
		wg.Wait()
	} else {
		for idx := 0; idx < pairsNeeded; idx++ {
			runPair(idx)
		}
	}

	for _, r := range results {
		for _, child := range r.children {
			if len(next) >= len(pop) {
				break
			}
			next = append(next, child)
		}
	}
	return next
}

func (e *Evolution) snapshotMetrics(generation int, pop []*Chromosome, start time.Time) GenerationMetrics {
	best := pop[0]
	var sum float64
	for _, c := range pop {
		sum += c.Fitness.Fitness
	}
	return GenerationMetrics{
		Generation:     generation,
		MaxGenerations: e.cfg.MaxGenerations,
		BestFitness:    best.Fitness.Fitness,
		AvgFitness:     sum / float64(len(pop)),
		HardViolations: best.Fitness.HardViolations,
		SoftPenalty:    best.Fitness.SoftPenalty,
		Elapsed:        time.Since(start),
	}
}

func (e *Evolution) publishMetrics(m GenerationMetrics) {
	if e.Progress != nil {
		e.Progress(m)
	}
}

func (e *Evolution) publish(generation int, pop []*Chromosome, start time.Time) {
	e.publishMetrics(e.snapshotMetrics(generation, pop, start))
}
