package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/pkg/errors"
)

func TestRenderScatter(t *testing.T) {
	cfg := ScatterConfig{
		XLabel: "Human Intestinal Absorption",
		YLabel: "Clinical Toxicity",
		RefX:   []float64{0.1, 0.4, 0.9},
		RefY:   []float64{0.2, 0.5, 0.8},
		UserX:  []float64{0.6},
		UserY:  []float64{0.3},
	}

	out, err := RenderScatter(cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<?xml"))
	assert.Contains(t, out, `width="100%"`)
	assert.Contains(t, out, `height="100%"`)
	assert.Contains(t, out, "viewBox=")
	assert.Contains(t, out, "Human Intestinal Absorption")
	assert.Contains(t, out, "Clinical Toxicity")
	assert.Contains(t, out, "</svg>")

	// Title and legend for both layers.
	assert.Contains(t, out, "Input Molecule vs DrugBank Approved")
	assert.Contains(t, out, ">DrugBank Approved<")
	assert.Contains(t, out, ">Input Molecule<")

	// One reference circle per molecule plus the legend marker; one star
	// polygon for the user plus its legend marker.
	assert.Equal(t, 4, strings.Count(out, "fill:"+colorReference))
	assert.Equal(t, 2, strings.Count(out, "fill:"+colorUser))
}

func TestRenderScatter_TitleAndLegendFollowSelection(t *testing.T) {
	t.Run("atc filter named in title and legend", func(t *testing.T) {
		out, err := RenderScatter(ScatterConfig{
			XLabel: "x", YLabel: "y",
			ATCCode: "j",
			RefX:    []float64{1, 2},
			RefY:    []float64{1, 2},
			UserX:   []float64{1.5},
			UserY:   []float64{1.5},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "ATC = j")
		assert.Contains(t, out, "DrugBank Approved (ATC filter)")
	})

	t.Run("unfiltered omits the atc line", func(t *testing.T) {
		out, err := RenderScatter(ScatterConfig{
			XLabel: "x", YLabel: "y",
			ATCCode: "all",
			RefX:    []float64{1, 2},
			RefY:    []float64{1, 2},
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "ATC =")
		assert.NotContains(t, out, "(ATC filter)")
	})

	t.Run("plural input label", func(t *testing.T) {
		out, err := RenderScatter(ScatterConfig{
			XLabel: "x", YLabel: "y",
			RefX:  []float64{1, 2},
			RefY:  []float64{1, 2},
			UserX: []float64{1, 2},
			UserY: []float64{1, 2},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Input Molecules vs DrugBank Approved")
	})
}

func TestRenderScatter_ReferenceOnly(t *testing.T) {
	out, err := RenderScatter(ScatterConfig{
		XLabel: "x", YLabel: "y",
		RefX: []float64{1, 2, 3},
		RefY: []float64{4, 5, 6},
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "fill:"+colorUser)
	assert.Contains(t, out, ">DrugBank Approved<")
}

func TestRenderScatter_Invalid(t *testing.T) {
	_, err := RenderScatter(ScatterConfig{RefX: []float64{1}, RefY: []float64{1, 2}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))

	_, err = RenderScatter(ScatterConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))

	_, err = RenderScatter(ScatterConfig{
		RefX: []float64{1}, RefY: []float64{1},
		UserX: []float64{1}, UserY: nil,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))
}

func TestRenderScatter_SinglePointDomain(t *testing.T) {
	// Identical values give a degenerate axis domain; the plot must still render.
	out, err := RenderScatter(ScatterConfig{
		XLabel: "x", YLabel: "y",
		RefX: []float64{0.5, 0.5},
		RefY: []float64{0.5, 0.5},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "</svg>")
}

func TestRenderScatter_EscapesLabels(t *testing.T) {
	out, err := RenderScatter(ScatterConfig{
		XLabel: "a<b>&c",
		YLabel: "y",
		RefX:   []float64{1, 2},
		RefY:   []float64{1, 2},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "a&lt;b&gt;&amp;c")
}

func TestRenderRadial(t *testing.T) {
	cfg := RadialConfig{
		Labels: []string{
			"Human Intestinal Absorption",
			"Oral Bioavailability",
			"Blood-Brain Barrier Penetration",
			"Clinical Toxicity",
			"hERG Blocking",
		},
		Values: []float64{80, 65, 30, 10, 45},
	}

	out, err := RenderRadial(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, `width="100%"`)
	for _, label := range cfg.Labels {
		assert.Contains(t, out, label)
	}
	// Ring tick labels 0/25/50/75/100.
	for _, tick := range []string{">0<", ">25<", ">50<", ">75<", ">100<"} {
		assert.Contains(t, out, tick)
	}
}

func TestRenderRadial_BoundaryValues(t *testing.T) {
	_, err := RenderRadial(RadialConfig{
		Labels: []string{"a", "b", "c"},
		Values: []float64{0, 100, 50},
	})
	assert.NoError(t, err)
}

func TestRenderRadial_Invalid(t *testing.T) {
	_, err := RenderRadial(RadialConfig{Labels: []string{"a"}, Values: []float64{1, 2}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))

	_, err = RenderRadial(RadialConfig{Labels: []string{"a", "b"}, Values: []float64{1, 2}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))

	_, err = RenderRadial(RadialConfig{
		Labels: []string{"a", "b", "c"},
		Values: []float64{10, 20, 120},
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))
}

func TestRenderMolecule(t *testing.T) {
	m, err := chem.ParseSMILES("CCO")
	require.NoError(t, err)

	out, err := RenderMolecule(m)
	require.NoError(t, err)

	assert.Contains(t, out, `width="100%"`)
	assert.Contains(t, out, "<line")
	// Oxygen with its hydrogen shows up labelled; carbons stay bare vertices.
	assert.Contains(t, out, "OH")
	assert.NotContains(t, out, ">C<")
}

func TestRenderMolecule_AromaticBonds(t *testing.T) {
	m, err := chem.ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	out, err := RenderMolecule(m)
	require.NoError(t, err)

	// Each of benzene's six aromatic bonds draws one full line plus one
	// shortened inner line, never the triple-bond rendering.
	assert.Equal(t, 12, strings.Count(out, "<line"))
}

func TestRenderMolecule_ChargedAtom(t *testing.T) {
	m, err := chem.ParseSMILES("[NH4+]")
	require.NoError(t, err)

	out, err := RenderMolecule(m)
	require.NoError(t, err)
	assert.Contains(t, out, "NH4+")
}

func TestRenderMolecule_Empty(t *testing.T) {
	_, err := RenderMolecule(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderFailed))
}

func TestAtomLabel(t *testing.T) {
	tests := []struct {
		atom chem.Atom
		want string
	}{
		{chem.Atom{Symbol: "O", Hydrogens: 1}, "OH"},
		{chem.Atom{Symbol: "N", Hydrogens: 2}, "NH2"},
		{chem.Atom{Symbol: "N", Charge: 1}, "N+"},
		{chem.Atom{Symbol: "O", Charge: -1}, "O-"},
		{chem.Atom{Symbol: "Fe", Charge: 2}, "Fe2+"},
		{chem.Atom{Symbol: "S"}, "S"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, atomLabel(tt.atom), tt.want)
	}
}
