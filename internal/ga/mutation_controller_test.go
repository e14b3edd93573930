package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allStrategies() []MutationStrategy {
	return []MutationStrategy{MutationNone, MutationStagnation, MutationDiversity, MutationFitness, MutationHybrid}
}

// P10: GenerationProbability and IndividualProbability always stay within
// [MinProbability, MaxProbability], for every strategy.
func TestMutationProbabilityAlwaysWithinBounds(t *testing.T) {
	cfg := DefaultConfig().AdaptiveMutation
	for _, strategy := range allStrategies() {
		cfg.Strategy = strategy
		mc := NewMutationController(cfg, 0.05)
		for gen := 0; gen < 50; gen++ {
			mc.ObserveGeneration(float64(gen%3) / 10) // oscillate to exercise both stagnation and improvement
			for _, diversity := range []float64{0, 0.1, 0.5, 1.0} {
				p := mc.GenerationProbability(diversity)
				assert.GreaterOrEqual(t, p, cfg.MinProbability, "strategy %s", strategy)
				assert.LessOrEqual(t, p, cfg.MaxProbability, "strategy %s", strategy)
			}
			for _, f := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
				p := mc.IndividualProbability(f, 1.0, 0.5)
				assert.GreaterOrEqual(t, p, cfg.MinProbability, "strategy %s", strategy)
				assert.LessOrEqual(t, p, cfg.MaxProbability, "strategy %s", strategy)
			}
		}
	}
}

func TestStagnationRaisesProbabilityAfterThreshold(t *testing.T) {
	cfg := DefaultConfig().AdaptiveMutation
	cfg.Strategy = MutationStagnation
	cfg.StagnationThreshold = 3
	mc := NewMutationController(cfg, 0.05)

	// the first call sets the baseline; the next StagnationThreshold calls
	// are non-improving generations.
	for i := 0; i < cfg.StagnationThreshold+1; i++ {
		mc.ObserveGeneration(0.5)
	}
	raised := mc.GenerationProbability(1.0)
	assert.Greater(t, raised, 0.05)
}

func TestDiversityRaisesProbabilityBelowThreshold(t *testing.T) {
	cfg := DefaultConfig().AdaptiveMutation
	cfg.Strategy = MutationDiversity
	cfg.DiversityThreshold = 0.3
	mc := NewMutationController(cfg, 0.05)
	low := mc.GenerationProbability(0.1)
	high := mc.GenerationProbability(0.9)
	assert.Greater(t, low, high)
}

func TestIndividualProbabilityFavoursFitIndividuals(t *testing.T) {
	cfg := DefaultConfig().AdaptiveMutation
	cfg.Strategy = MutationFitness
	mc := NewMutationController(cfg, 0.05)
	below := mc.IndividualProbability(0.2, 1.0, 0.5)
	atMax := mc.IndividualProbability(1.0, 1.0, 0.5)
	assert.Greater(t, below, atMax, "below-average individuals should mutate more than the best individual")
}

func TestPopulationDiversityOfIdenticalPopulationIsZero(t *testing.T) {
	snap, err := trivialFixture()
	if err != nil {
		t.Fatal(err)
	}
	base := NewRandomChromosome(snap, NewRNG(1))
	pop := make([]*Chromosome, 5)
	for i := range pop {
		pop[i] = base.Clone()
	}
	d := PopulationDiversity(pop, NewRNG(2), 60, 20)
	assert.Equal(t, 0.0, d)
}

func TestPopulationDiversitySamplesLargePopulations(t *testing.T) {
	snap := multiUnitFixture(t)
	rng := NewRNG(3)
	pop := make([]*Chromosome, 200)
	for i := range pop {
		pop[i] = NewRandomChromosome(snap, rng.Split(uint64(i)))
	}
	d := PopulationDiversity(pop, NewRNG(4), 60, 100)
	assert.GreaterOrEqual(t, d, 0.0)
	assert.LessOrEqual(t, d, 1.0)
}
