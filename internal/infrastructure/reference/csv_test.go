package reference

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVRepository_LoadAll(t *testing.T) {
	path := writeCSV(t, strings.TrimLeft(`
name,smiles,atc_codes,hia,clinical_toxicity
Aspirin,CC(=O)Oc1ccccc1C(=O)O,N02; B01,0.95,0.02
Caffeine,CN1C=NC2=C1C(=O)N(C)C(=O)N2C,N06,0.99,0.01
Unclassified,CCO,,0.5,
`, "\n"))

	repo := NewCSVRepository(path, logging.NewNopLogger())
	mols, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, mols, 3)

	assert.Equal(t, "Aspirin", mols[0].Name)
	assert.Equal(t, []string{"N02", "B01"}, mols[0].ATCCodes)
	assert.Equal(t, 0.95, mols[0].Values["hia"])
	assert.Equal(t, 0.02, mols[0].Values["clinical_toxicity"])

	assert.Nil(t, mols[2].ATCCodes)
	_, hasTox := mols[2].Values["clinical_toxicity"]
	assert.False(t, hasTox, "empty cells must not become zeros")
}

func TestCSVRepository_MissingFile(t *testing.T) {
	repo := NewCSVRepository(filepath.Join(t.TempDir(), "nope.csv"), logging.NewNopLogger())
	_, err := repo.LoadAll(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceLoadFailed))
}

func TestCSVRepository_MissingSMILESColumn(t *testing.T) {
	path := writeCSV(t, "name,hia\nAspirin,0.95\n")
	repo := NewCSVRepository(path, logging.NewNopLogger())
	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smiles")
}

func TestCSVRepository_NonNumericValue(t *testing.T) {
	path := writeCSV(t, "smiles,hia\nCCO,high\n")
	repo := NewCSVRepository(path, logging.NewNopLogger())
	_, err := repo.LoadAll(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceLoadFailed))
}
