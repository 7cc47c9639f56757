package predict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/messaging/kafka"
	"github.com/openadmet/admet-server/internal/infrastructure/model"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/pkg/errors"
)

type capturingPublisher struct {
	events []kafka.PredictionCompletedEvent
}

func (p *capturingPublisher) PublishPredictionCompleted(_ context.Context, e kafka.PredictionCompletedEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func testReference() *drugbank.ReferenceSet {
	mols := make([]drugbank.Molecule, 0, 5)
	for i, hia := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		atc := "j"
		if i >= 3 {
			atc = "c"
		}
		mols = append(mols, drugbank.Molecule{
			Name:     "drug",
			SMILES:   "C",
			ATCCodes: []string{atc},
			Values: map[string]float64{
				"hia":               hia,
				"clinical_toxicity": float64(i) * 0.2,
			},
		})
	}
	return drugbank.NewReferenceSet(mols)
}

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Predict.MaxMolecules = 100
	cfg.Predict.MaxVisibleMolecules = 25
	cfg.Predict.DefaultXProperty = "Human Intestinal Absorption"
	cfg.Predict.DefaultYProperty = "Clinical Toxicity"
	cfg.Store.TTL = time.Hour
	cfg.Store.SweepInterval = time.Hour
	return cfg
}

func newTestService(t *testing.T, cfg config.Config) (*Service, store.Store, *capturingPublisher) {
	t.Helper()
	st := store.NewMemoryStore(cfg.Store, logging.NewNopLogger(), nil)
	t.Cleanup(func() { st.Close() })
	events := &capturingPublisher{}

	svc := NewService(cfg, model.NewDescriptorPredictor(), testReference(), st, events,
		nil, logging.NewNopLogger())
	return svc, st, events
}

func TestPredict_HappyPath(t *testing.T) {
	svc, st, events := newTestService(t, testConfig())
	ctx := context.Background()

	result, err := svc.Predict(ctx, "user-1", []string{"CCO", "c1ccccc1"}, "web")
	require.NoError(t, err)
	require.Equal(t, 2, result.Table.Len())
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.InvalidSMILES)

	// Computed descriptors are merged into each row.
	for _, row := range result.Table.Rows {
		assert.Greater(t, row.Values["molecular_weight"], 0.0)
		assert.Greater(t, row.Values["heavy_atoms"], 0.0)
	}

	// Percentiles exist for properties present in the reference set.
	_, ok := result.Table.Percentile(0, "hia")
	assert.True(t, ok)

	// The batch lands in the store with default preferences.
	entry, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, drugbank.ATCAll, entry.Preferences.ATCCode)
	assert.Equal(t, "Human Intestinal Absorption", entry.Preferences.XProperty)

	require.Len(t, events.events, 1)
	assert.Equal(t, "user-1", events.events[0].UserID)
	assert.Equal(t, 2, events.events[0].MoleculeCount)
	assert.Equal(t, "descriptor", events.events[0].ModelBackend)
}

func TestPredict_InvalidInputsAreDroppedWithWarning(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	result, err := svc.Predict(context.Background(), "user-1",
		[]string{"CCO", "not_a_smiles((", "C1CC"}, "web")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Table.Len())
	assert.Equal(t, []string{"not_a_smiles((", "C1CC"}, result.InvalidSMILES)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Input contains 2 invalid SMILES strings.", result.Warnings[0])
}

func TestInvalidWarning(t *testing.T) {
	assert.Equal(t, "Input contains 1 invalid SMILES string.", invalidWarning(1))
	assert.Equal(t, "Input contains 2 invalid SMILES strings.", invalidWarning(2))
	assert.Equal(t, "Input contains 1,234 invalid SMILES strings.", invalidWarning(1234))
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, groupDigits(tt.n))
	}
}

func TestPredict_AllInvalid(t *testing.T) {
	svc, st, _ := newTestService(t, testConfig())

	_, err := svc.Predict(context.Background(), "user-1", []string{"((", "xyz(("}, "web")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoValidMolecules))

	// Nothing is stored on failure.
	_, err = st.Get(context.Background(), "user-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionsNotFound))
}

func TestPredict_EmptyInput(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	_, err := svc.Predict(context.Background(), "user-1", []string{"", "  ", "\t"}, "web")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoValidMolecules))
}

func TestPredict_TooManyMolecules(t *testing.T) {
	cfg := testConfig()
	cfg.Predict.MaxMolecules = 2
	svc, _, _ := newTestService(t, cfg)

	_, err := svc.Predict(context.Background(), "user-1", []string{"C", "CC", "CCC"}, "web")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTooManyMolecules))
}

func TestPredict_OverwritesPreviousBatch(t *testing.T) {
	svc, st, _ := newTestService(t, testConfig())
	ctx := context.Background()

	_, err := svc.Predict(ctx, "user-1", []string{"C", "CC", "CCC"}, "web")
	require.NoError(t, err)

	_, err = svc.Predict(ctx, "user-1", []string{"CCO"}, "web")
	require.NoError(t, err)

	entry, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Table.Len())
	assert.Equal(t, "CCO", entry.Table.Rows[0].SMILES)
}

func TestAddPercentilesHonorsATCFilter(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	hiaProp, ok := admet.PropertyByID("hia")
	require.True(t, ok)

	newTableWithHIA := func() *admet.Table {
		table := admet.NewTable()
		table.Properties = []admet.Property{hiaProp}
		table.Append("CCO", map[string]float64{"hia": 0.6})
		return table
	}

	// Against the full set {0.1, 0.3, 0.5, 0.7, 0.9}: three below, two above.
	all := newTableWithHIA()
	svc.addPercentiles(all, drugbank.ATCAll)
	rank, ok := all.Percentile(0, "hia")
	require.True(t, ok)
	assert.InDelta(t, 60.0, rank, 1e-9)

	// Against the "j" subset {0.1, 0.3, 0.5}: everything below.
	filtered := newTableWithHIA()
	svc.addPercentiles(filtered, "j")
	rank, ok = filtered.Percentile(0, "hia")
	require.True(t, ok)
	assert.InDelta(t, 100.0, rank, 1e-9)
}

func TestPredict_KeepsStoredPreferences(t *testing.T) {
	svc, st, _ := newTestService(t, testConfig())
	ctx := context.Background()

	_, err := svc.Predict(ctx, "user-1", []string{"CCO"}, "web")
	require.NoError(t, err)

	require.NoError(t, st.SetPreferences(ctx, "user-1", store.Preferences{
		ATCCode:   "j",
		XProperty: "hia",
		YProperty: "clinical_toxicity",
	}))

	// A second batch keeps the user's ATC and axis selections.
	_, err = svc.Predict(ctx, "user-1", []string{"c1ccccc1"}, "web")
	require.NoError(t, err)

	entry, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "j", entry.Preferences.ATCCode)
	assert.Equal(t, "hia", entry.Preferences.XProperty)
	assert.Equal(t, "clinical_toxicity", entry.Preferences.YProperty)
}

func TestCleanInput(t *testing.T) {
	got := cleanInput([]string{" CCO ", "", "\t", "c1ccccc1\n"})
	assert.Equal(t, []string{"CCO", "c1ccccc1"}, got)
}
