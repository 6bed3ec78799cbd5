package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsSingleSweep(t *testing.T) {
	s := &Study{
		Name:   "viscosity",
		Sweeps: []Sweep{{Parameter: "rheology.eta0", Values: []float64{0.5, 1, 2}}},
	}

	points := s.Points()
	require.Len(t, points, 3)
	assert.Equal(t, "run_001_eta0_0.5", points[0].Name)
	assert.Equal(t, "run_002_eta0_1", points[1].Name)
	assert.Equal(t, "run_003_eta0_2", points[2].Name)
	assert.Equal(t, []Assignment{{Parameter: "rheology.eta0", Value: 2}}, points[2].Assignments)
}

func TestPointsCartesianProduct(t *testing.T) {
	s := &Study{
		Name: "grid",
		Sweeps: []Sweep{
			{Parameter: "rheology.eta0", Values: []float64{0.5, 1}},
			{Parameter: "contact_angles.substrate", Values: []float64{35, 60, 90}},
		},
	}

	points := s.Points()
	require.Len(t, points, 6)

	// Last sweep varies fastest.
	assert.Equal(t, "run_001_eta0_0.5_substrate_35", points[0].Name)
	assert.Equal(t, "run_002_eta0_0.5_substrate_60", points[1].Name)
	assert.Equal(t, "run_003_eta0_0.5_substrate_90", points[2].Name)
	assert.Equal(t, "run_004_eta0_1_substrate_35", points[3].Name)

	// Every point carries one assignment per sweep, in sweep order.
	for _, p := range points {
		require.Len(t, p.Assignments, 2)
		assert.Equal(t, "rheology.eta0", p.Assignments[0].Parameter)
		assert.Equal(t, "contact_angles.substrate", p.Assignments[1].Parameter)
	}
}

func TestPointsEmpty(t *testing.T) {
	s := &Study{Name: "empty"}
	assert.Nil(t, s.Points())
}
