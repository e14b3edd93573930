package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidatePopulationTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 1
	err := cfg.Validate()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "populationSize", cerr.Field)
}

func TestConfigValidateEliteCountOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EliteCount = cfg.PopulationSize + 1
	require.Error(t, cfg.Validate())
}

func TestConfigValidateTournamentSizeTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TournamentSize = 1
	require.Error(t, cfg.Validate())
}

func TestConfigValidateUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptiveMutation.Strategy = MutationStrategy("nonsense")
	require.Error(t, cfg.Validate())
}

func TestConfigValidateMinMaxProbabilityOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptiveMutation.MinProbability = 0.9
	cfg.AdaptiveMutation.MaxProbability = 0.1
	require.Error(t, cfg.Validate())
}

func TestConfigWithOverrides(t *testing.T) {
	cfg := DefaultConfig().WithOverrides(func(c *Config) {
		c.PopulationSize = 250
	})
	assert.Equal(t, 250, cfg.PopulationSize)
	assert.Equal(t, DefaultConfig().EliteCount, cfg.EliteCount)
	require.NoError(t, cfg.Validate())
}
