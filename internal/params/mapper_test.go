package params

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/foamstudy/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestSplitPath(t *testing.T) {
	section, name, err := SplitPath("rheology.eta0")
	require.NoError(t, err)
	assert.Equal(t, "rheology", section)
	assert.Equal(t, "eta0", name)

	for _, bad := range []string{"", "rheology", "rheology.", ".eta0", "a.b.c"} {
		_, _, err := SplitPath(bad)
		assert.Error(t, err, "path %q", bad)
	}
}

func TestMapRheologyViscosityConversion(t *testing.T) {
	store := NewStore()
	store.SetNumber("rho_ink", 3000)
	m := NewMapper(store)

	plan, err := m.Map(testContext(), "rheology.eta0", 0.5)
	require.NoError(t, err)

	// eta0 fans out to the Carreau file, the legacy mirror, and the base
	// viscosity of the Newtonian fallback, all with the same kinematic value.
	require.Len(t, plan.Writes, 3)
	assert.Equal(t, Write{File: FileMomentumTransportWater, Key: "nu0", Value: "1.666667e-04"}, plan.Writes[0])
	assert.Equal(t, Write{File: FileTransportProperties, Key: "nu0", Value: "1.666667e-04"}, plan.Writes[1])
	assert.Equal(t, Write{File: FilePhysicalPropsWater, Key: "nu", Value: "1.666667e-04"}, plan.Writes[2])

	// The written value parses back to eta/rho within 1e-6 relative error.
	parsed, err := strconv.ParseFloat(plan.Writes[0].Value, 64)
	require.NoError(t, err)
	assert.InEpsilon(t, 0.5/3000.0, parsed, 1e-6)

	assert.InEpsilon(t, 0.5/3000.0, plan.Resolved["nu0"], 1e-9)
}

func TestMapRheologyDensityFallback(t *testing.T) {
	m := NewMapper(NewStore()) // no rho_ink known

	plan, err := m.Map(testContext(), "rheology.eta_inf", 0.167)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Writes)
	parsed, err := strconv.ParseFloat(plan.Writes[0].Value, 64)
	require.NoError(t, err)
	assert.InEpsilon(t, 0.167/DefaultInkDensity, parsed, 1e-6)
	assert.Equal(t, "nuInf", plan.Writes[0].Key)
}

func TestMapRheologyPassThroughParameters(t *testing.T) {
	m := NewMapper(NewStore())

	plan, err := m.Map(testContext(), "rheology.lambda", 0.15)
	require.NoError(t, err)
	require.Len(t, plan.Writes, 2)
	assert.Equal(t, Write{File: FileMomentumTransportWater, Key: "k", Value: "0.15"}, plan.Writes[0])
	assert.Equal(t, Write{File: FileTransportProperties, Key: "k", Value: "0.15"}, plan.Writes[1])
}

func TestMapContactAngleRoundsToWholeDegrees(t *testing.T) {
	m := NewMapper(NewStore())

	plan, err := m.Map(testContext(), "contact_angles.substrate", 34.6)
	require.NoError(t, err)
	require.Len(t, plan.BlockWrites, 1)
	bw := plan.BlockWrites[0]
	assert.Equal(t, FileAlphaField, bw.File)
	assert.Equal(t, "substrate", bw.Block)
	assert.Equal(t, ThetaKey, bw.SubKey)
	assert.Equal(t, "35", bw.Value)

	// Same policy below the midpoint.
	plan, err = m.Map(testContext(), "contact_angles.wall_isolant_left", 34.4)
	require.NoError(t, err)
	assert.Equal(t, "34", plan.BlockWrites[0].Value)
}

func TestMapSurfaceTension(t *testing.T) {
	m := NewMapper(NewStore())

	plan, err := m.Map(testContext(), "surface.sigma", 0.04)
	require.NoError(t, err)
	require.Len(t, plan.Writes, 2)
	assert.Equal(t, Write{File: FilePhaseProperties, Key: "sigma", Value: "0.04"}, plan.Writes[0])
	assert.Equal(t, Write{File: FileTransportProperties, Key: "sigma", Value: "0.04"}, plan.Writes[1])
}

func TestMapNumericalAndProcess(t *testing.T) {
	m := NewMapper(NewStore())

	plan, err := m.Map(testContext(), "numerical.maxCo", 0.3)
	require.NoError(t, err)
	require.Len(t, plan.Writes, 1)
	assert.Equal(t, Write{File: FileControlDict, Key: "maxCo", Value: "0.3"}, plan.Writes[0])

	plan, err = m.Map(testContext(), "process.end_time", 0.1)
	require.NoError(t, err)
	require.Len(t, plan.Writes, 1)
	assert.Equal(t, Write{File: FileControlDict, Key: "endTime", Value: "0.1"}, plan.Writes[0])

	_, err = m.Map(testContext(), "process.dispense_time", 1)
	assert.Error(t, err)
}

func TestMapUnsupportedSection(t *testing.T) {
	m := NewMapper(NewStore())
	_, err := m.Map(testContext(), "mesh.cell_size", 5)
	assert.Error(t, err)
}
