package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAMLFileFlattensSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base_parameters.yaml")
	content := `physical:
  rho_ink: 3000
  rho_air: 1.2
rheology:
  eta0: 0.5
  model: BirdCarreau
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := FromYAMLFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3000.0, s.Number("rho_ink", 0))
	assert.Equal(t, 1.2, s.Number("rho_air", 0))
	assert.Equal(t, 0.5, s.Number("eta0", 0))
	// Non-numeric values are kept, just not as numbers.
	assert.True(t, s.Has("model"))
	_, err = s.StrictNumber("model")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMergeCaseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parameters")
	content := `// geometry [mm]
y_buse_bottom   0.198;
y_buse          0.341;
cell_size       5.0;
label           fine;
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := NewStore()
	require.NoError(t, s.MergeCaseFile(path))

	assert.Equal(t, 0.198, s.Number("y_buse_bottom", 0))
	assert.Equal(t, 0.341, s.Number("y_buse", 0))
	_, err := s.StrictNumber("label")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMergeCaseFileMissingIsNoOp(t *testing.T) {
	s := NewStore()
	s.SetNumber("rho_ink", 3000)
	require.NoError(t, s.MergeCaseFile(filepath.Join(t.TempDir(), "nope")))
	assert.Equal(t, 3000.0, s.Number("rho_ink", 0))
}

func TestNumberFallback(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 3000.0, s.Number("rho_ink", 3000))

	s.SetText("rho_ink", "not-a-number")
	assert.Equal(t, 3000.0, s.Number("rho_ink", 3000))

	s.SetNumber("rho_ink", 2500)
	assert.Equal(t, 2500.0, s.Number("rho_ink", 3000))
}

func TestStrictNumberDistinguishesAbsentFromMalformed(t *testing.T) {
	s := NewStore()
	_, err := s.StrictNumber("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s.SetText("bad", "abc")
	_, err = s.StrictNumber("bad")
	assert.ErrorIs(t, err, ErrMalformed)

	s.SetText("good", "1.5e-3")
	v, err := s.StrictNumber("good")
	require.NoError(t, err)
	assert.Equal(t, 1.5e-3, v)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.SetNumber("a", 1)

	c := s.Clone()
	c.SetNumber("a", 2)
	c.SetNumber("b", 3)

	assert.Equal(t, 1.0, s.Number("a", 0))
	assert.False(t, s.Has("b"))
	assert.Equal(t, 2.0, c.Number("a", 0))
}
