package drugbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/pkg/errors"
)

func testSet() *ReferenceSet {
	return NewReferenceSet([]Molecule{
		{Name: "a", SMILES: "CC", ATCCodes: []string{"N02"}, Values: map[string]float64{"hia": 0.1, "logp": 1.0}},
		{Name: "b", SMILES: "CCC", ATCCodes: []string{"N02", "C01"}, Values: map[string]float64{"hia": 0.3, "logp": 2.0}},
		{Name: "c", SMILES: "CCCC", ATCCodes: []string{"C01"}, Values: map[string]float64{"hia": 0.5, "logp": 3.0}},
		{Name: "d", SMILES: "CCCCC", ATCCodes: nil, Values: map[string]float64{"hia": 0.7, "logp": 4.0}},
		{Name: "e", SMILES: "CCCCCC", ATCCodes: []string{"J01"}, Values: map[string]float64{"hia": 0.9, "logp": 5.0}},
	})
}

func TestReferenceSet_ATCCodes(t *testing.T) {
	s := testSet()
	assert.Equal(t, []string{"all", "c01", "j01", "n02"}, s.ATCCodes())
	assert.True(t, s.HasATCCode("ALL"))
	assert.True(t, s.HasATCCode("N02"))
	assert.False(t, s.HasATCCode("zzz"))
}

func TestReferenceSet_Size(t *testing.T) {
	s := testSet()
	assert.Equal(t, 5, s.Size("all"))
	assert.Equal(t, 5, s.Size(""))
	assert.Equal(t, 2, s.Size("n02"))
	assert.Equal(t, 2, s.Size("C01"))
	assert.Equal(t, 0, s.Size("zzz"))
}

func TestReferenceSet_Column(t *testing.T) {
	s := testSet()

	col, err := s.Column("hia", "all")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.3, 0.5, 0.7, 0.9}, col)

	col, err = s.Column("hia", "c01")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.5}, col)

	_, err = s.Column("hia", "zzz")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownATCCode))

	_, err = s.Column("nope", "all")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
}

func TestReferenceSet_XY(t *testing.T) {
	s := testSet()
	xs, ys, err := s.XY("hia", "logp", "n02")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.3}, xs)
	assert.Equal(t, []float64{1.0, 2.0}, ys)
}

func TestPercentiles_RangeAndBoundaries(t *testing.T) {
	s := testSet()

	ranks, err := s.Percentiles("hia", []float64{0.0, 0.1, 0.5, 1.0}, "all")
	require.NoError(t, err)
	require.Len(t, ranks, 4)

	// Below the minimum ranks 0; above the maximum ranks 100.
	assert.Equal(t, 0.0, ranks[0])
	assert.Equal(t, 100.0, ranks[3])

	// Equal to the minimum: nothing below, four above.
	assert.Equal(t, 0.0, ranks[1])

	// Median value: two below, two above.
	assert.Equal(t, 50.0, ranks[2])

	for _, r := range ranks {
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 100.0)
	}
}

func TestPercentiles_EveryATCCode(t *testing.T) {
	s := testSet()
	for _, code := range s.ATCCodes() {
		ranks, err := s.Percentiles("hia", []float64{0.4}, code)
		require.NoError(t, err, "atc=%s", code)
		require.Len(t, ranks, 1)
		assert.GreaterOrEqual(t, ranks[0], 0.0)
		assert.LessOrEqual(t, ranks[0], 100.0)
	}
}

func TestPercentiles_SinglePointReference(t *testing.T) {
	s := NewReferenceSet([]Molecule{
		{SMILES: "CC", Values: map[string]float64{"hia": 0.5}},
	})

	// Equal to the whole population: rank degenerates to 50.
	ranks, err := s.Percentiles("hia", []float64{0.5}, "all")
	require.NoError(t, err)
	assert.Equal(t, 50.0, ranks[0])

	ranks, err = s.Percentiles("hia", []float64{0.1, 0.9}, "all")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ranks[0])
	assert.Equal(t, 100.0, ranks[1])
}

func TestPercentiles_EmptyValues(t *testing.T) {
	s := testSet()
	ranks, err := s.Percentiles("hia", nil, "all")
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestPercentiles_UnknownATC(t *testing.T) {
	s := testSet()
	_, err := s.Percentiles("hia", []float64{0.5}, "x99")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownATCCode))
}

func TestPercentiles_EmptyReference(t *testing.T) {
	s := NewReferenceSet(nil)
	_, err := s.Percentiles("hia", []float64{0.5}, "all")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientReference))
}

func TestPercentiles_CachedColumnsStayCorrect(t *testing.T) {
	s := testSet()

	first, err := s.Percentiles("logp", []float64{2.5}, "all")
	require.NoError(t, err)
	second, err := s.Percentiles("logp", []float64{2.5}, "all")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
