package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

func TestDescriptorPredictor_CoversAllPredictedProperties(t *testing.T) {
	p := NewDescriptorPredictor()

	table, err := p.Predict(context.Background(), []string{"CCO", "c1ccccc1"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	for _, row := range table.Rows {
		for _, prop := range admet.PredictedProperties() {
			v, ok := row.Values[prop.ID]
			require.True(t, ok, "missing value for %s", prop.ID)
			if prop.Classification {
				assert.GreaterOrEqual(t, v, 0.0, prop.ID)
				assert.LessOrEqual(t, v, 1.0, prop.ID)
			}
		}
	}
}

func TestDescriptorPredictor_Deterministic(t *testing.T) {
	p := NewDescriptorPredictor()
	ctx := context.Background()

	first, err := p.Predict(ctx, []string{"CC(=O)Oc1ccccc1C(=O)O"})
	require.NoError(t, err)
	second, err := p.Predict(ctx, []string{"CC(=O)Oc1ccccc1C(=O)O"})
	require.NoError(t, err)

	assert.Equal(t, first.Rows[0].Values, second.Rows[0].Values)
}

func TestDescriptorPredictor_PreservesInputOrder(t *testing.T) {
	p := NewDescriptorPredictor()
	smiles := []string{"CCO", "CCN", "c1ccccc1", "CC(=O)O"}

	table, err := p.Predict(context.Background(), smiles)
	require.NoError(t, err)
	require.Equal(t, len(smiles), table.Len())
	for i, s := range smiles {
		assert.Equal(t, s, table.Rows[i].SMILES)
	}
}

func TestDescriptorPredictor_SolubilityFallsWithLipophilicity(t *testing.T) {
	p := NewDescriptorPredictor()

	// Ethanol vs a long aliphatic chain: the greasier molecule should come
	// out less soluble.
	table, err := p.Predict(context.Background(), []string{"CCO", "CCCCCCCCCCCC"})
	require.NoError(t, err)

	ethanol := table.Rows[0].Values["aqueous_solubility"]
	dodecane := table.Rows[1].Values["aqueous_solubility"]
	assert.Greater(t, ethanol, dodecane)
}

func TestDescriptorPredictor_CancelledContext(t *testing.T) {
	p := NewDescriptorPredictor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, []string{"CCO"})
	assert.Error(t, err)
}

func TestNewPredictor_UnknownBackend(t *testing.T) {
	_, err := NewPredictor(config.ModelConfig{Backend: "bogus"}, logging.NewNopLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotLoaded))
}

func TestNewPredictor_Descriptor(t *testing.T) {
	p, err := NewPredictor(config.ModelConfig{Backend: "descriptor"}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "descriptor", p.Name())
	assert.NoError(t, p.Close())
}

func writeMetadata(t *testing.T, dir string, meta Metadata) {
	t.Helper()
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFileName), raw, 0o644))
}

func validMetadata() Metadata {
	return Metadata{
		Tasks:        []string{"hia", "clinical_toxicity"},
		FeatureMeans: make([]float64, len(featureNames)),
		FeatureStds:  []float64{1, 1, 1, 1, 1, 1, 1, 1},
		InputName:    "features",
		OutputName:   "predictions",
	}
}

func TestLoadMetadata(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, validMetadata())

		meta, err := loadMetadata(filepath.Join(dir, metadataFileName))
		require.NoError(t, err)
		assert.Equal(t, []string{"hia", "clinical_toxicity"}, meta.Tasks)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadMetadata(filepath.Join(t.TempDir(), metadataFileName))
		assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotLoaded))
	})

	t.Run("unknown task", func(t *testing.T) {
		dir := t.TempDir()
		meta := validMetadata()
		meta.Tasks = []string{"not_a_property"}
		writeMetadata(t, dir, meta)

		_, err := loadMetadata(filepath.Join(dir, metadataFileName))
		assert.True(t, errors.IsCode(err, errors.ErrCodeModelMetadataBad))
	})

	t.Run("scaling length mismatch", func(t *testing.T) {
		dir := t.TempDir()
		meta := validMetadata()
		meta.FeatureStds = []float64{1}
		writeMetadata(t, dir, meta)

		_, err := loadMetadata(filepath.Join(dir, metadataFileName))
		assert.True(t, errors.IsCode(err, errors.ErrCodeModelMetadataBad))
	})

	t.Run("missing tensor names", func(t *testing.T) {
		dir := t.TempDir()
		meta := validMetadata()
		meta.OutputName = ""
		writeMetadata(t, dir, meta)

		_, err := loadMetadata(filepath.Join(dir, metadataFileName))
		assert.True(t, errors.IsCode(err, errors.ErrCodeModelMetadataBad))
	})
}

func TestFetchArtifacts_LocalVerification(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ModelConfig{ArtifactSource: "local", ModelDir: dir}

	err := FetchArtifacts(context.Background(), cfg, config.MinIOConfig{}, logging.NewNopLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactFetchFail))

	require.NoError(t, os.WriteFile(filepath.Join(dir, modelFileName), []byte("onnx"), 0o644))
	writeMetadata(t, dir, validMetadata())

	err = FetchArtifacts(context.Background(), cfg, config.MinIOConfig{}, logging.NewNopLogger())
	assert.NoError(t, err)
}
