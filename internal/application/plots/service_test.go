package plots

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/pkg/errors"
)

func testReference() *drugbank.ReferenceSet {
	mols := []drugbank.Molecule{
		{Name: "a", SMILES: "C", ATCCodes: []string{"j"}, Values: map[string]float64{"hia": 0.2, "clinical_toxicity": 0.1}},
		{Name: "b", SMILES: "CC", ATCCodes: []string{"j", "n"}, Values: map[string]float64{"hia": 0.5, "clinical_toxicity": 0.4}},
		{Name: "c", SMILES: "CCC", ATCCodes: []string{"n"}, Values: map[string]float64{"hia": 0.8, "clinical_toxicity": 0.9}},
	}
	return drugbank.NewReferenceSet(mols)
}

func testPredictConfig() config.PredictConfig {
	return config.PredictConfig{
		MaxMolecules:        100,
		MaxVisibleMolecules: 25,
		DefaultXProperty:    "Human Intestinal Absorption",
		DefaultYProperty:    "Clinical Toxicity",
	}
}

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemoryStore(config.StoreConfig{TTL: time.Hour, SweepInterval: time.Hour},
		logging.NewNopLogger(), nil)
	t.Cleanup(func() { st.Close() })

	svc := NewService(testPredictConfig(), testReference(), st, nil, logging.NewNopLogger())
	return svc, st
}

func storedTable() *admet.Table {
	table := admet.NewTable()
	table.Append("CCO", map[string]float64{"hia": 0.6, "clinical_toxicity": 0.3})
	table.Append("CCN", map[string]float64{"hia": 0.4, "clinical_toxicity": 0.7})
	return table
}

func TestDrugBankScatter_WithStoredPredictions(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "user-1", storedTable(), store.Preferences{
		ATCCode: drugbank.ATCAll, XProperty: "hia", YProperty: "clinical_toxicity",
	}))

	svg, err := svc.DrugBankScatter(ctx, "user-1", ScatterRequest{
		ATCCode: "j", XProperty: "hia", YProperty: "clinical_toxicity",
	})
	require.NoError(t, err)
	assert.Contains(t, svg, "Human Intestinal Absorption")
	assert.Contains(t, svg, "Clinical Toxicity")

	// Selections are persisted as preferences.
	entry, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "j", entry.Preferences.ATCCode)
}

func TestDrugBankScatter_TitlesFigureWithATCCode(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "user-1", storedTable(), store.Preferences{}))

	svg, err := svc.DrugBankScatter(ctx, "user-1", ScatterRequest{ATCCode: "j"})
	require.NoError(t, err)
	assert.Contains(t, svg, "Input Molecules vs DrugBank Approved")
	assert.Contains(t, svg, "ATC = j")
	assert.Contains(t, svg, "DrugBank Approved (ATC filter)")

	unfiltered, err := svc.DrugBankScatter(ctx, "user-1", ScatterRequest{ATCCode: "all"})
	require.NoError(t, err)
	assert.NotContains(t, unfiltered, "ATC =")
}

func TestDrugBankScatter_NoPredictionsRendersReferenceOnly(t *testing.T) {
	svc, _ := newTestService(t)

	svg, err := svc.DrugBankScatter(context.Background(), "anonymous", ScatterRequest{})
	require.NoError(t, err)
	assert.Contains(t, svg, "</svg>")
}

func TestDrugBankScatter_DefaultsFromPreferences(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "user-1", storedTable(), store.Preferences{
		ATCCode: "n", XProperty: "hia", YProperty: "clinical_toxicity",
	}))

	// An empty request reuses the stored selections.
	_, err := svc.DrugBankScatter(ctx, "user-1", ScatterRequest{})
	require.NoError(t, err)

	entry, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "n", entry.Preferences.ATCCode)
}

func TestDrugBankScatter_UnknownATCCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DrugBankScatter(context.Background(), "user-1", ScatterRequest{ATCCode: "zzz"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownATCCode))
}

func TestDrugBankScatter_UnknownProperty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DrugBankScatter(context.Background(), "user-1",
		ScatterRequest{XProperty: "nope"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
}

func TestDrugBankScatter_CapsVisibleMolecules(t *testing.T) {
	table := admet.NewTable()
	for i := 0; i < 40; i++ {
		table.Append("C", map[string]float64{"hia": 0.5, "clinical_toxicity": 0.5})
	}
	xs, ys := userPoints(table, "hia", "clinical_toxicity", 25)
	assert.Len(t, xs, 25)
	assert.Len(t, ys, 25)
}

func TestRadial(t *testing.T) {
	svc, _ := newTestService(t)

	table := storedTable()
	for _, name := range admet.RadialProperties {
		prop, ok := admet.PropertyByName(name)
		require.True(t, ok)
		require.NoError(t, table.SetPercentiles(prop.ID, []float64{75, 20}))
	}

	svg, err := svc.Radial(table, 0)
	require.NoError(t, err)
	for _, name := range admet.RadialProperties {
		assert.Contains(t, svg, name)
	}
}

func TestDepiction(t *testing.T) {
	svc, _ := newTestService(t)

	svg, err := svc.Depiction("CCO")
	require.NoError(t, err)
	assert.True(t, strings.Contains(svg, "<line"))

	_, err = svc.Depiction("((")
	assert.Error(t, err)
}

func TestResolveProperty(t *testing.T) {
	p, err := resolveProperty("hia")
	require.NoError(t, err)
	assert.Equal(t, "Human Intestinal Absorption", p.Name)

	p, err = resolveProperty("Human Intestinal Absorption")
	require.NoError(t, err)
	assert.Equal(t, "hia", p.ID)

	_, err = resolveProperty("bogus")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
}
