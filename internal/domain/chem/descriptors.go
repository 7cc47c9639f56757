package chem

import (
	"sort"
	"strconv"
	"strings"
)

// Descriptors holds the physicochemical properties computed from a parsed
// molecule. The LogP and TPSA values are additive atom-contribution
// estimates, not full Crippen/Ertl implementations, but they track the same
// trends and are stable for a given input.
type Descriptors struct {
	MolecularWeight float64 `json:"molecular_weight"`
	LogP            float64 `json:"log_p"`
	TPSA            float64 `json:"tpsa"`
	HBondDonors     int     `json:"h_bond_donors"`
	HBondAcceptors  int     `json:"h_bond_acceptors"`
	RotatableBonds  int     `json:"rotatable_bonds"`
	AromaticRings   int     `json:"aromatic_rings"`
	HeavyAtoms      int     `json:"heavy_atoms"`
	Rings           int     `json:"rings"`
}

// atomicMass holds standard atomic weights for the elements the parser accepts.
var atomicMass = map[string]float64{
	"H": 1.008, "B": 10.811, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.086,
	"P": 30.974, "S": 32.065, "Cl": 35.453, "Ca": 40.078, "Cr": 51.996,
	"Mn": 54.938, "Fe": 55.845, "Co": 58.933, "Ni": 58.693, "Cu": 63.546,
	"Zn": 65.38, "As": 74.922, "Se": 78.971, "Br": 79.904, "Sr": 87.62,
	"Ag": 107.868, "Sn": 118.710, "Sb": 121.760, "Te": 127.60, "I": 126.904,
	"Ba": 137.327, "Gd": 157.25, "Pt": 195.084, "Au": 196.967, "Hg": 200.592,
	"Bi": 208.980, "Li": 6.941,
}

// logPContribution gives per-atom octanol/water partition contributions.
// Aromatic carbons are slightly more lipophilic than aliphatic ones;
// heteroatoms and halogens shift in the usual directions.
func logPContribution(a Atom) float64 {
	switch a.Symbol {
	case "C":
		if a.Aromatic {
			return 0.29
		}
		return 0.14
	case "N":
		if a.Aromatic {
			return -0.49
		}
		return -0.60
	case "O":
		if a.Aromatic {
			return -0.33
		}
		return -0.40
	case "S":
		return 0.25
	case "P":
		return -0.45
	case "F":
		return 0.22
	case "Cl":
		return 0.65
	case "Br":
		return 0.86
	case "I":
		return 1.10
	case "B":
		return 0.18
	default:
		return 0.0
	}
}

// tpsaContribution gives per-atom topological polar surface area
// contributions following the shape of Ertl's fragment table: only N and O
// (and their charged/hydrogenated variants) contribute.
func tpsaContribution(a Atom) float64 {
	switch a.Symbol {
	case "N":
		if a.Aromatic {
			if a.Hydrogens > 0 {
				return 15.79
			}
			return 12.89
		}
		switch a.Hydrogens {
		case 0:
			return 3.24
		case 1:
			return 12.03
		default:
			return 26.02
		}
	case "O":
		if a.Aromatic {
			return 13.14
		}
		if a.Hydrogens > 0 {
			return 20.23
		}
		return 17.07
	case "S":
		// Sulfur contributes in the extended TPSA definition.
		if a.Hydrogens > 0 {
			return 38.80
		}
		return 25.30
	default:
		return 0.0
	}
}

// ComputeDescriptors calculates the full descriptor set for a parsed molecule.
func ComputeDescriptors(m *Mol) Descriptors {
	var d Descriptors

	for i := range m.Atoms {
		a := m.Atoms[i]
		d.HeavyAtoms++
		d.MolecularWeight += atomicMass[a.Symbol] + float64(a.Hydrogens)*atomicMass["H"]
		d.LogP += logPContribution(a)
		d.TPSA += tpsaContribution(a)

		switch a.Symbol {
		case "N", "O":
			if a.Hydrogens > 0 {
				d.HBondDonors++
			}
			// Positively charged nitrogens are not acceptors.
			if !(a.Symbol == "N" && a.Charge > 0) {
				d.HBondAcceptors++
			}
		}
	}

	d.RotatableBonds = countRotatableBonds(m)
	d.Rings = len(m.Rings)
	for _, r := range m.Rings {
		if r.Aromatic {
			d.AromaticRings++
		}
	}

	return d
}

// countRotatableBonds counts single acyclic bonds between two non-terminal
// heavy atoms, excluding bonds to triple-bonded (linear) atoms.
func countRotatableBonds(m *Mol) int {
	n := 0
	for _, b := range m.Bonds {
		if b.Order != BondSingle || b.InRing {
			continue
		}
		if m.Degree(b.A) < 2 || m.Degree(b.B) < 2 {
			continue
		}
		if hasTripleBond(m, b.A) || hasTripleBond(m, b.B) {
			continue
		}
		n++
	}
	return n
}

func hasTripleBond(m *Mol, atom int) bool {
	for _, bi := range m.BondsOf(atom) {
		if m.Bonds[bi].Order == BondTriple {
			return true
		}
	}
	return false
}

// Formula returns the Hill-order molecular formula (C first, then H, then
// other elements alphabetically).
func Formula(m *Mol) string {
	counts := map[string]int{}
	for _, a := range m.Atoms {
		counts[a.Symbol]++
		counts["H"] += a.Hydrogens
	}
	return hillFormula(counts)
}

func hillFormula(counts map[string]int) string {
	var sb strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		sb.WriteString(sym)
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
		delete(counts, sym)
	}
	write("C")
	write("H")

	rest := make([]string, 0, len(counts))
	for sym := range counts {
		rest = append(rest, sym)
	}
	sort.Strings(rest)
	for _, sym := range rest {
		sb.WriteString(sym)
		if counts[sym] > 1 {
			sb.WriteString(strconv.Itoa(counts[sym]))
		}
	}
	return sb.String()
}
