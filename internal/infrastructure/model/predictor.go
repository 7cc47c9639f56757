// Package model turns batches of SMILES strings into ADMET property
// predictions. Two backends are provided: an ONNX runtime session over a
// trained multitask model, and a descriptor-derived fallback that needs no
// artifacts and keeps the server usable in development.
package model

import (
	"context"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

// Predictor produces a prediction table for a batch of already-validated
// SMILES strings. Implementations fill the non-computed catalog properties;
// physicochemical descriptors are added by the caller.
type Predictor interface {
	// Predict returns one table row per input SMILES, in input order.
	Predict(ctx context.Context, smiles []string) (*admet.Table, error)

	// Name identifies the backend for logs and metrics.
	Name() string

	// Close releases backend resources.
	Close() error
}

// NewPredictor builds the predictor selected by the configuration.
func NewPredictor(cfg config.ModelConfig, log logging.Logger) (Predictor, error) {
	switch cfg.Backend {
	case "descriptor":
		return NewDescriptorPredictor(), nil
	case "onnx":
		return NewONNXPredictor(cfg, log)
	default:
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "unknown model backend").
			WithDetail("backend=" + cfg.Backend)
	}
}

// featureNames is the descriptor vector order shared by both backends. The
// ONNX model was trained on features in exactly this order.
var featureNames = []string{
	"molecular_weight", "logp", "tpsa", "hydrogen_bond_donors",
	"hydrogen_bond_acceptors", "rotatable_bonds", "aromatic_rings", "heavy_atoms",
}

// featurize computes the shared descriptor vector for one molecule.
func featurize(m *chem.Mol) []float64 {
	d := chem.ComputeDescriptors(m)
	return []float64{
		d.MolecularWeight,
		d.LogP,
		d.TPSA,
		float64(d.HBondDonors),
		float64(d.HBondAcceptors),
		float64(d.RotatableBonds),
		float64(d.AromaticRings),
		float64(d.HeavyAtoms),
	}
}

// parseBatch parses every SMILES in the batch. Inputs reaching a predictor
// have already passed validation, so a parse failure here is an internal
// inconsistency rather than user error.
func parseBatch(smiles []string) ([]*chem.Mol, error) {
	mols := make([]*chem.Mol, len(smiles))
	for i, s := range smiles {
		m, err := chem.ParseSMILES(s)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInferenceFailed, "failed to parse validated SMILES").
				WithDetail("smiles=" + s).WithCause(err)
		}
		mols[i] = m
	}
	return mols, nil
}
