package model

import (
	"context"
	"math"

	"github.com/openadmet/admet-server/internal/domain/admet"
)

// descriptorModel is a linear model over the shared feature vector. For
// classification properties the score is squashed through a sigmoid; for
// regression properties bias+weights give the value directly.
type descriptorModel struct {
	bias    float64
	weights [8]float64
}

// descriptorModels approximates each predicted property from descriptors.
// The coefficients encode coarse medicinal-chemistry trends (permeability
// falls with TPSA, hERG risk rises with LogP and size) so the fallback
// produces plausible, deterministic values rather than noise.
var descriptorModels = map[string]descriptorModel{
	// Absorption
	"hia":                  {bias: 2.5, weights: [8]float64{-0.002, 0.15, -0.02, -0.10, -0.05, -0.02, 0.05, 0}},
	"oral_bioavailability": {bias: 1.8, weights: [8]float64{-0.003, 0.10, -0.015, -0.12, -0.06, -0.05, 0.04, 0}},
	"pgp_inhibition":       {bias: -3.0, weights: [8]float64{0.004, 0.25, 0.002, -0.05, 0.04, 0.03, 0.10, 0}},
	"pampa_permeability":   {bias: 2.0, weights: [8]float64{-0.001, 0.20, -0.025, -0.15, -0.04, -0.01, 0.03, 0}},
	"caco2_permeability":   {bias: -4.6, weights: [8]float64{-0.0005, 0.12, -0.008, -0.08, -0.03, -0.01, 0.02, 0}},
	"aqueous_solubility":   {bias: -0.5, weights: [8]float64{-0.004, -0.70, 0.01, 0.10, 0.05, -0.02, -0.15, 0}},
	"lipophilicity":        {bias: -0.2, weights: [8]float64{0, 0.85, -0.005, -0.10, -0.05, 0.01, 0.05, 0}},

	// Distribution
	"bbb_penetration":        {bias: 1.2, weights: [8]float64{-0.003, 0.30, -0.04, -0.25, -0.10, -0.02, 0.05, 0}},
	"plasma_protein_binding": {bias: 45.0, weights: [8]float64{0.02, 9.0, -0.10, -1.0, -0.50, 0.10, 2.0, 0}},
	"vdss":                   {bias: 0.8, weights: [8]float64{-0.0005, 0.25, -0.004, 0.05, -0.02, 0.01, 0.03, 0}},

	// Metabolism
	"cyp1a2_inhibition":  {bias: -1.8, weights: [8]float64{-0.001, 0.20, -0.005, -0.10, 0.02, -0.04, 0.45, 0}},
	"cyp2c19_inhibition": {bias: -2.0, weights: [8]float64{0.001, 0.25, -0.006, -0.08, 0.01, 0.02, 0.30, 0}},
	"cyp2c9_inhibition":  {bias: -2.2, weights: [8]float64{0.002, 0.30, -0.004, -0.10, 0.01, 0.02, 0.25, 0}},
	"cyp2d6_inhibition":  {bias: -2.5, weights: [8]float64{0.001, 0.22, -0.003, 0.02, 0.05, 0.04, 0.20, 0}},
	"cyp3a4_inhibition":  {bias: -2.8, weights: [8]float64{0.004, 0.25, -0.002, -0.05, 0.03, 0.05, 0.18, 0}},
	"cyp2d6_substrate":   {bias: -1.5, weights: [8]float64{0.001, 0.10, -0.004, 0.05, 0.08, 0.02, 0.10, 0}},
	"cyp3a4_substrate":   {bias: -1.0, weights: [8]float64{0.003, 0.12, -0.003, -0.02, 0.02, 0.06, 0.08, 0}},

	// Excretion
	"half_life":            {bias: 3.0, weights: [8]float64{0.004, 0.40, 0.01, 0.20, 0.10, -0.05, 0.30, 0}},
	"hepatocyte_clearance": {bias: 5.0, weights: [8]float64{0.01, 2.5, -0.02, -0.30, -0.10, 0.20, 1.0, 0}},
	"microsomal_clearance": {bias: 8.0, weights: [8]float64{0.015, 3.5, -0.03, -0.50, -0.20, 0.30, 1.5, 0}},

	// Toxicity
	"herg_blocking":      {bias: -3.5, weights: [8]float64{0.005, 0.35, -0.003, -0.10, 0.05, 0.04, 0.25, 0}},
	"ames_mutagenicity":  {bias: -2.0, weights: [8]float64{0.001, 0.05, 0.004, 0.02, 0.06, -0.02, 0.40, 0}},
	"dili":               {bias: -1.5, weights: [8]float64{0.002, 0.18, 0.002, 0.05, 0.04, 0.03, 0.15, 0}},
	"clinical_toxicity":  {bias: -2.2, weights: [8]float64{0.002, 0.10, 0.003, 0.08, 0.05, 0.02, 0.12, 0}},
	"carcinogenicity":    {bias: -2.4, weights: [8]float64{0.001, 0.08, 0.002, 0.03, 0.04, -0.01, 0.30, 0}},
	"skin_sensitization": {bias: -1.2, weights: [8]float64{-0.003, 0.06, -0.002, 0.10, 0.05, -0.03, 0.10, 0}},
	"ld50":               {bias: 2.2, weights: [8]float64{0.001, 0.05, 0.002, 0.04, 0.03, 0.01, 0.08, 0}},
}

// DescriptorPredictor derives every predicted property from the computed
// descriptor vector. It exists so the server runs end to end without model
// artifacts; values follow real trends but are estimates, not inference.
type DescriptorPredictor struct{}

func NewDescriptorPredictor() *DescriptorPredictor { return &DescriptorPredictor{} }

func (p *DescriptorPredictor) Name() string { return "descriptor" }

func (p *DescriptorPredictor) Close() error { return nil }

func (p *DescriptorPredictor) Predict(ctx context.Context, smiles []string) (*admet.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mols, err := parseBatch(smiles)
	if err != nil {
		return nil, err
	}

	table := admet.NewTable()
	for i, m := range mols {
		features := featurize(m)
		values := make(map[string]float64, len(descriptorModels))
		for _, prop := range admet.PredictedProperties() {
			lm, ok := descriptorModels[prop.ID]
			if !ok {
				continue
			}
			score := lm.bias
			for j, w := range lm.weights {
				score += w * features[j]
			}
			if prop.Classification {
				score = sigmoid(score)
			}
			values[prop.ID] = score
		}
		table.Append(smiles[i], values)
	}
	return table, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
