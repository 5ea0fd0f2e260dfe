package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/results"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sirResults(t *testing.T) *results.Results {
	t.Helper()
	m, _ := model.ByName("sir")
	prob := solver.NewProblem(m, nil, nil, [2]float64{0, 100})
	tr, err := solver.Solve(prob, solver.Tsit5(), solver.DefaultOptions())
	require.NoError(t, err)

	return results.NewBuilder().
		WithModel(m, prob.Params).
		WithSimulation(m, prob.U0, prob.Tspan, 0, solver.DefaultOptions()).
		WithTrajectory(tr, "tsit5", 0.01, 50).
		Build()
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	res := sirResults(t)

	require.NoError(t, s.Put(res))

	got, err := s.Get(res.Metadata.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Metadata.RunID, got.Metadata.RunID)
	assert.Equal(t, "sir", got.Model.Name)
	assert.Equal(t, res.Results.Summary.FinalState, got.Results.Summary.FinalState)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("nope")
	assert.ErrorContains(t, err, "not found")
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	res := sirResults(t)

	require.NoError(t, s.Put(res))
	res.Metadata.Method = "rk45"
	require.NoError(t, s.Put(res))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(res.Metadata.RunID)
	require.NoError(t, err)
	assert.Equal(t, "rk45", got.Metadata.Method)
}

func TestRecentOrdering(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		res := sirResults(t)
		res.Metadata.Timestamp = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.Put(res))
		ids = append(ids, res.Metadata.RunID)
	}

	runs, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	limited, err := s.Recent(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestByModel(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(sirResults(t)))

	runs, err := s.ByModel("sir", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	none, err := s.ByModel("logistic", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	res := sirResults(t)
	require.NoError(t, s.Put(res))

	require.NoError(t, s.Delete(res.Metadata.RunID))
	_, err := s.Get(res.Metadata.RunID)
	assert.Error(t, err)

	assert.ErrorContains(t, s.Delete(res.Metadata.RunID), "not found")
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 4; i++ {
		res := sirResults(t)
		res.Metadata.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, i*10)
		require.NoError(t, s.Put(res))
	}

	n, err := s.Prune(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountEmpty(t *testing.T) {
	s := openTestStore(t)
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestManyRuns(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 25; i++ {
		res := sirResults(t)
		res.Metadata.Timestamp = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Put(res))
	}

	runs, err := s.Recent(0)
	require.NoError(t, err)
	// Default listing cap.
	assert.Len(t, runs, 20)
}
