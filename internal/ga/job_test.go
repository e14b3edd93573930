package ga

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeSubmitRejectsInvalidConfig(t *testing.T) {
	snap := multiUnitFixture(t)
	rt := NewRuntime()
	cfg := DefaultConfig()
	cfg.PopulationSize = 1
	_, err := rt.Submit(snap, cfg)
	require.Error(t, err)
}

func TestRuntimeSubmitStatusResultHappyPath(t *testing.T) {
	snap := multiUnitFixture(t)
	rt := NewRuntime()
	cfg := smallConfig()

	id, err := rt.Submit(snap, cfg)
	require.NoError(t, err)

	best, err := rt.Result(id)
	require.NoError(t, err)
	require.NotNil(t, best)

	status, err := rt.Status(id)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, status.State)
	assert.Equal(t, 100.0, status.ProgressPct)
}

func TestRuntimeStatusUnknownJob(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.Status("does-not-exist")
	require.Error(t, err)
}

// P6: two sequential runs with the same seed over the same snapshot and
// config produce identical final chromosomes.
func TestRuntimeSameSeedIsReproducible(t *testing.T) {
	snap := multiUnitFixture(t)
	cfg := smallConfig()

	rt1 := NewRuntime()
	id1, err := rt1.Submit(snap, cfg)
	require.NoError(t, err)
	best1, err := rt1.Result(id1)
	require.NoError(t, err)

	rt2 := NewRuntime()
	id2, err := rt2.Submit(snap, cfg)
	require.NoError(t, err)
	best2, err := rt2.Result(id2)
	require.NoError(t, err)

	assert.Equal(t, best1.Genes, best2.Genes)
	assert.Equal(t, best1.Fitness, best2.Fitness)
}

// P7: Cancel is observed promptly and Status/Result reflect JobCancelled.
func TestRuntimeCancelIsObservedPromptly(t *testing.T) {
	snap := multiUnitFixture(t)
	rt := NewRuntime()
	cfg := smallConfig()
	cfg.MaxGenerations = 100000
	cfg.MaxStagnantGenerations = 100000
	cfg.MaxExecutionTime = time.Minute

	id, err := rt.Submit(snap, cfg)
	require.NoError(t, err)

	require.NoError(t, rt.Cancel(id))
	best, err := rt.Result(id)
	require.NoError(t, err)
	require.NotNil(t, best, "a cancelled run must still return its best chromosome so far")

	status, err := rt.Status(id)
	require.NoError(t, err)
	assert.Equal(t, JobCancelled, status.State)
	assert.Same(t, best, status.Result)
}

func TestRuntimeCancelIsIdempotent(t *testing.T) {
	snap := multiUnitFixture(t)
	rt := NewRuntime()
	cfg := smallConfig()

	id, err := rt.Submit(snap, cfg)
	require.NoError(t, err)
	_, _ = rt.Result(id)

	assert.NoError(t, rt.Cancel(id))
	assert.NoError(t, rt.Cancel(id))
}

func TestRuntimeForgetRemovesBookkeeping(t *testing.T) {
	snap := multiUnitFixture(t)
	rt := NewRuntime()
	cfg := smallConfig()
	id, err := rt.Submit(snap, cfg)
	require.NoError(t, err)
	_, _ = rt.Result(id)

	rt.Forget(id)
	_, err = rt.Status(id)
	require.Error(t, err)
}
