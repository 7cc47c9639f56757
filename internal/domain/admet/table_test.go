package admet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookups(t *testing.T) {
	p, ok := PropertyByName("Human Intestinal Absorption")
	require.True(t, ok)
	assert.Equal(t, "hia", p.ID)
	assert.Equal(t, Absorption, p.Category)
	assert.True(t, p.Classification)

	p, ok = PropertyByID("clinical_toxicity")
	require.True(t, ok)
	assert.Equal(t, "Clinical Toxicity", p.Name)

	_, ok = PropertyByName("Telepathy")
	assert.False(t, ok)
}

func TestCatalog_NoDuplicateIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Catalog {
		assert.False(t, seen[p.ID], "duplicate property ID %s", p.ID)
		seen[p.ID] = true
	}
}

func TestRadialProperties_AllInCatalog(t *testing.T) {
	for _, name := range RadialProperties {
		_, ok := PropertyByName(name)
		assert.True(t, ok, "radial property %q missing from catalog", name)
	}
}

func TestPercentileColumn(t *testing.T) {
	p, _ := PropertyByID("hia")
	assert.Equal(t, "hia_drugbank_approved_percentile", p.PercentileColumn())
}

func TestTable_AppendAndColumn(t *testing.T) {
	tbl := NewTable()
	tbl.Append("CCO", map[string]float64{"hia": 0.9, "logp": -0.3})
	tbl.Append("c1ccccc1", map[string]float64{"hia": 0.7, "logp": 2.1})

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []float64{0.9, 0.7}, tbl.Column("hia"))
	assert.Equal(t, []float64{-0.3, 2.1}, tbl.Column("logp"))
}

func TestTable_SetPercentiles(t *testing.T) {
	tbl := NewTable()
	tbl.Append("CCO", map[string]float64{"hia": 0.9})
	tbl.Append("CCC", map[string]float64{"hia": 0.2})

	require.NoError(t, tbl.SetPercentiles("hia", []float64{75, 10}))

	v, ok := tbl.Percentile(0, "hia")
	require.True(t, ok)
	assert.Equal(t, 75.0, v)

	_, ok = tbl.Percentile(0, "logp")
	assert.False(t, ok)
	_, ok = tbl.Percentile(5, "hia")
	assert.False(t, ok)

	assert.Error(t, tbl.SetPercentiles("hia", []float64{1, 2, 3}))
}

func TestTable_WriteCSV(t *testing.T) {
	tbl := &Table{
		Properties: []Property{
			{ID: "hia", Name: "Human Intestinal Absorption"},
			{ID: "logp", Name: "LogP"},
		},
	}
	tbl.Append("CCO", map[string]float64{"hia": 0.9, "logp": -0.3})
	require.NoError(t, tbl.SetPercentiles("hia", []float64{62.5}))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "smiles,hia,logp,hia_drugbank_approved_percentile,logp_drugbank_approved_percentile", lines[0])
	assert.Equal(t, "CCO,0.9,-0.3,62.5,", lines[1])
}
