// Package admet defines the ADMET property catalog and the prediction table
// that flows between the model, the reference percentile layer, the per-user
// store, and the HTTP surface.
package admet

// Category groups properties into the five ADMET classes plus the computed
// physicochemical descriptors.
type Category string

const (
	Physicochemical Category = "Physicochemical"
	Absorption      Category = "Absorption"
	Distribution    Category = "Distribution"
	Metabolism      Category = "Metabolism"
	Excretion       Category = "Excretion"
	Toxicity        Category = "Toxicity"
)

// PercentileSuffix is appended to a property ID to form the column name of
// its DrugBank approved-set percentile rank.
const PercentileSuffix = "drugbank_approved_percentile"

// Property describes one column of the prediction table.
type Property struct {
	// ID is the machine column name (snake_case), stable across releases.
	ID string

	// Name is the human-readable display name shown in plots and tables.
	Name string

	Category Category

	// Classification marks probability outputs in [0,1]; regression outputs
	// carry Units instead.
	Classification bool

	// Units is the unit label for regression outputs ("log mol/L", "hr", ...).
	Units string

	// Computed marks descriptor-derived properties that come from the parser
	// rather than the model.
	Computed bool
}

// PercentileColumn returns the table column name holding this property's
// DrugBank percentile.
func (p Property) PercentileColumn() string {
	return p.ID + "_" + PercentileSuffix
}

// Catalog is the ordered list of every property the server reports.
// Physicochemical rows are computed from the parsed structure; the rest come
// from the prediction model.
var Catalog = []Property{
	// Physicochemical (computed)
	{ID: "molecular_weight", Name: "Molecular Weight", Category: Physicochemical, Units: "Da", Computed: true},
	{ID: "logp", Name: "LogP", Category: Physicochemical, Computed: true},
	{ID: "tpsa", Name: "Topological Polar Surface Area", Category: Physicochemical, Units: "Å²", Computed: true},
	{ID: "hydrogen_bond_donors", Name: "Hydrogen Bond Donors", Category: Physicochemical, Computed: true},
	{ID: "hydrogen_bond_acceptors", Name: "Hydrogen Bond Acceptors", Category: Physicochemical, Computed: true},
	{ID: "rotatable_bonds", Name: "Rotatable Bonds", Category: Physicochemical, Computed: true},
	{ID: "aromatic_rings", Name: "Aromatic Rings", Category: Physicochemical, Computed: true},
	{ID: "heavy_atoms", Name: "Heavy Atoms", Category: Physicochemical, Computed: true},

	// Absorption
	{ID: "hia", Name: "Human Intestinal Absorption", Category: Absorption, Classification: true},
	{ID: "oral_bioavailability", Name: "Oral Bioavailability", Category: Absorption, Classification: true},
	{ID: "pgp_inhibition", Name: "P-glycoprotein Inhibition", Category: Absorption, Classification: true},
	{ID: "pampa_permeability", Name: "PAMPA Permeability", Category: Absorption, Classification: true},
	{ID: "caco2_permeability", Name: "Caco-2 Permeability", Category: Absorption, Units: "log cm/s"},
	{ID: "aqueous_solubility", Name: "Aqueous Solubility", Category: Absorption, Units: "log mol/L"},
	{ID: "lipophilicity", Name: "Lipophilicity", Category: Absorption, Units: "logD"},

	// Distribution
	{ID: "bbb_penetration", Name: "Blood-Brain Barrier Penetration", Category: Distribution, Classification: true},
	{ID: "plasma_protein_binding", Name: "Plasma Protein Binding", Category: Distribution, Units: "%"},
	{ID: "vdss", Name: "Volume of Distribution", Category: Distribution, Units: "L/kg"},

	// Metabolism
	{ID: "cyp1a2_inhibition", Name: "CYP1A2 Inhibition", Category: Metabolism, Classification: true},
	{ID: "cyp2c19_inhibition", Name: "CYP2C19 Inhibition", Category: Metabolism, Classification: true},
	{ID: "cyp2c9_inhibition", Name: "CYP2C9 Inhibition", Category: Metabolism, Classification: true},
	{ID: "cyp2d6_inhibition", Name: "CYP2D6 Inhibition", Category: Metabolism, Classification: true},
	{ID: "cyp3a4_inhibition", Name: "CYP3A4 Inhibition", Category: Metabolism, Classification: true},
	{ID: "cyp2d6_substrate", Name: "CYP2D6 Substrate", Category: Metabolism, Classification: true},
	{ID: "cyp3a4_substrate", Name: "CYP3A4 Substrate", Category: Metabolism, Classification: true},

	// Excretion
	{ID: "half_life", Name: "Half-Life", Category: Excretion, Units: "hr"},
	{ID: "hepatocyte_clearance", Name: "Hepatocyte Clearance", Category: Excretion, Units: "µL/min/10⁶ cells"},
	{ID: "microsomal_clearance", Name: "Microsomal Clearance", Category: Excretion, Units: "µL/min/mg"},

	// Toxicity
	{ID: "herg_blocking", Name: "hERG Blocking", Category: Toxicity, Classification: true},
	{ID: "ames_mutagenicity", Name: "Ames Mutagenicity", Category: Toxicity, Classification: true},
	{ID: "dili", Name: "Drug-Induced Liver Injury", Category: Toxicity, Classification: true},
	{ID: "clinical_toxicity", Name: "Clinical Toxicity", Category: Toxicity, Classification: true},
	{ID: "carcinogenicity", Name: "Carcinogenicity", Category: Toxicity, Classification: true},
	{ID: "skin_sensitization", Name: "Skin Sensitization", Category: Toxicity, Classification: true},
	{ID: "ld50", Name: "Acute Toxicity LD50", Category: Toxicity, Units: "log(1/(mol/kg))"},
}

// RadialProperties lists the display names summarised on the per-molecule
// radial plot, in spoke order.
var RadialProperties = []string{
	"Human Intestinal Absorption",
	"Oral Bioavailability",
	"Blood-Brain Barrier Penetration",
	"Clinical Toxicity",
	"hERG Blocking",
}

var (
	byID   = map[string]Property{}
	byName = map[string]Property{}
)

func init() {
	for _, p := range Catalog {
		byID[p.ID] = p
		byName[p.Name] = p
	}
}

// PropertyByID looks a property up by its column ID.
func PropertyByID(id string) (Property, bool) {
	p, ok := byID[id]
	return p, ok
}

// PropertyByName looks a property up by its display name.
func PropertyByName(name string) (Property, bool) {
	p, ok := byName[name]
	return p, ok
}

// PredictedProperties returns the catalog entries produced by the model,
// in catalog order.
func PredictedProperties() []Property {
	out := make([]Property, 0, len(Catalog))
	for _, p := range Catalog {
		if !p.Computed {
			out = append(out, p)
		}
	}
	return out
}

// PropertyNames returns every display name in catalog order.
func PropertyNames() []string {
	out := make([]string, len(Catalog))
	for i, p := range Catalog {
		out[i] = p.Name
	}
	return out
}
