package ga

// MutationController adjusts mutation probability using one of the four
// strategies of spec.md §4.6, consulted once per generation (or, for
// strategy `fitness`, once per individual).
type MutationController struct {
	cfg AdaptiveMutationConfig
	base float64

	stagnantGenerations int
	lastBestFitness     float64
	haveLastBest        bool
}

// NewMutationController binds the adaptive config and the base mutation
// probability (Config.MutationProbability) the controller scales from.
func NewMutationController(cfg AdaptiveMutationConfig, baseProbability float64) *MutationController {
	return &MutationController{cfg: cfg, base: baseProbability}
}

func (m *MutationController) clamp(p float64) float64 {
	if p < m.cfg.MinProbability {
		return m.cfg.MinProbability
	}
	if p > m.cfg.MaxProbability {
		return m.cfg.MaxProbability
	}
	return p
}

// ObserveGeneration updates the stagnation counter from the latest best
// fitness seen. Call once per generation before GenerationProbability.
func (m *MutationController) ObserveGeneration(bestFitness float64) {
	if m.haveLastBest && bestFitness <= m.lastBestFitness {
		m.stagnantGenerations++
	} else {
		m.stagnantGenerations = 0
	}
	m.lastBestFitness = bestFitness
	m.haveLastBest = true
}

// GenerationProbability returns the mutation probability to use for the
// current generation, for strategies other than per-individual `fitness`.
func (m *MutationController) GenerationProbability(diversity float64) float64 {
	switch m.cfg.Strategy {
	case MutationNone:
		return m.clamp(m.base)
	case MutationStagnation:
		return m.clamp(m.stagnationProbability())
	case MutationDiversity:
		return m.clamp(m.diversityProbability(diversity))
	case MutationHybrid:
		a := m.stagnationProbability()
		b := m.diversityProbability(diversity)
		if a > b {
			return m.clamp(a)
		}
		return m.clamp(b)
	case MutationFitness:
		// per-individual strategy; callers should use IndividualProbability.
		return m.clamp(m.base)
	default:
		return m.clamp(m.base)
	}
}

func (m *MutationController) stagnationProbability() float64 {
	if m.stagnantGenerations >= m.cfg.StagnationThreshold {
		return m.base * m.cfg.StagnationMultiplier
	}
	return m.base
}

func (m *MutationController) diversityProbability(diversity float64) float64 {
	if diversity < m.cfg.DiversityThreshold {
		return m.base * m.cfg.DiversityMultiplier
	}
	return m.base
}

// IndividualProbability implements the Srinivas-Patnaik per-individual
// probability for the `fitness` strategy: individuals at or above average
// fitness get a probability interpolated toward fitnessHighProbability as
// they approach fMax; individuals below average get fitnessLowProbability.
func (m *MutationController) IndividualProbability(f, fMax, fAvg float64) float64 {
	if m.cfg.Strategy != MutationFitness {
		return m.clamp(m.base)
	}
	if f < fAvg {
		return m.clamp(m.cfg.FitnessLowProbability)
	}
	if fMax <= fAvg {
		return m.clamp(m.cfg.FitnessHighProbability)
	}
	ratio := (fMax - f) / (fMax - fAvg)
	p := m.cfg.FitnessHighProbability + ratio*(m.cfg.FitnessLowProbability-m.cfg.FitnessHighProbability)
	return m.clamp(p)
}

// PopulationDiversity computes the mean normalised Hamming distance across
// chromosome pairs. For populations above sampleThreshold it samples pairs
// instead of computing all C(n,2), per spec.md §4.6.
func PopulationDiversity(pop []*Chromosome, rng *RNG, sampleThreshold, samplePairs int) float64 {
	n := len(pop)
	if n < 2 || len(pop[0].Genes) == 0 {
		return 1
	}
	geneLen := len(pop[0].Genes)

	hamming := func(a, b *Chromosome) float64 {
		diff := 0
		for i := range a.Genes {
			if a.Genes[i] != b.Genes[i] {
				diff++
			}
		}
		return float64(diff) / float64(geneLen)
	}

	var total float64
	var pairs int
	if n <= sampleThreshold {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				total += hamming(pop[i], pop[j])
				pairs++
			}
		}
	} else {
		for k := 0; k < samplePairs; k++ {
			i := rng.Intn(n)
			j := rng.Intn(n)
			if i == j {
				continue
			}
			total += hamming(pop[i], pop[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 1
	}
	return total / float64(pairs)
}
