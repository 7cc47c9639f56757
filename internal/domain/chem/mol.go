// Package chem provides the molecular domain model for the ADMET server:
// a SMILES parser producing an atom/bond graph, physicochemical descriptor
// calculation, and deterministic 2D coordinate generation for depiction.
//
// The parser covers the organic subset (B, C, N, O, P, S, F, Cl, Br, I),
// bracket atoms with charge and explicit hydrogen counts, aromatic lowercase
// atoms, branches, ring closures (including %nn two-digit form), and the
// -, =, #, :, / and \ bond symbols. Stereochemistry markers are accepted and
// ignored; descriptor calculation does not depend on them.
package chem

import (
	"fmt"
	"strings"

	"github.com/openadmet/admet-server/pkg/errors"
)

// Bond orders.
const (
	BondSingle   = 1
	BondDouble   = 2
	BondTriple   = 3
	BondAromatic = 4
)

// Atom is a single atom node in the molecular graph.
type Atom struct {
	// Symbol is the element symbol in canonical capitalisation ("C", "Cl").
	Symbol string

	// Aromatic is true for atoms written in lowercase SMILES form or inside
	// an aromatic bracket atom.
	Aromatic bool

	// Charge is the formal charge from a bracket atom; zero otherwise.
	Charge int

	// Hydrogens is the number of attached hydrogens. For bracket atoms it is
	// the explicit H count; for organic-subset atoms it is filled in by
	// implicit valence completion after parsing.
	Hydrogens int

	// InRing is set during ring perception.
	InRing bool
}

// Bond is an edge between two atoms, identified by their indices in Mol.Atoms.
type Bond struct {
	A, B  int
	Order int

	// InRing is set during ring perception.
	InRing bool
}

// Ring is a perceived ring, listing member atom indices in traversal order.
type Ring struct {
	Atoms    []int
	Aromatic bool
}

// Mol is a parsed molecule.
type Mol struct {
	SMILES string
	Atoms  []Atom
	Bonds  []Bond
	Rings  []Ring

	// adjacency[i] lists bond indices incident to atom i.
	adjacency [][]int

	// fixedH lists atoms whose hydrogen count came from a bracket spec and
	// must not be altered by implicit valence completion.
	fixedH []int
}

// Neighbors returns the atom indices adjacent to atom i.
func (m *Mol) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adjacency[i]))
	for _, bi := range m.adjacency[i] {
		b := m.Bonds[bi]
		if b.A == i {
			out = append(out, b.B)
		} else {
			out = append(out, b.A)
		}
	}
	return out
}

// BondsOf returns the bond indices incident to atom i.
func (m *Mol) BondsOf(i int) []int {
	return m.adjacency[i]
}

// Degree returns the number of explicit (heavy-atom) connections of atom i.
func (m *Mol) Degree(i int) int {
	return len(m.adjacency[i])
}

// organicValence gives the default valence used for implicit hydrogen
// completion of organic-subset atoms.
var organicValence = map[string]int{
	"B": 3, "C": 4, "N": 3, "O": 2, "P": 3, "S": 2,
	"F": 1, "Cl": 1, "Br": 1, "I": 1,
}

// aromaticSymbols are the elements that may be written lowercase.
var aromaticSymbols = map[string]bool{
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
}

type ringBondRef struct {
	atom  int
	order int
}

type smilesParser struct {
	input string
	pos   int
	mol   *Mol

	// prev is the atom the next atom will bond to; -1 at fragment start.
	prev int

	// pendingOrder is the bond order set by an explicit bond symbol, consumed
	// by the next atom or ring closure. Zero means "default".
	pendingOrder int

	// stack holds saved prev atoms for '(' branches.
	stack []int

	// ringRefs maps open ring-closure numbers to their first endpoint.
	ringRefs map[int]ringBondRef
}

// ParseSMILES parses a single SMILES string into a molecular graph, completes
// implicit hydrogens, and perceives rings. It returns an AppError with code
// ErrCodeInvalidSMILES on any syntax or valence problem.
func ParseSMILES(smiles string) (*Mol, error) {
	s := strings.TrimSpace(smiles)
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "empty SMILES string")
	}

	p := &smilesParser{
		input:    s,
		mol:      &Mol{SMILES: s},
		prev:     -1,
		ringRefs: make(map[int]ringBondRef),
	}

	if err := p.parse(); err != nil {
		return nil, err
	}

	m := p.mol
	if len(m.Atoms) == 0 {
		return nil, p.errorf("no atoms")
	}
	if len(p.ringRefs) != 0 {
		return nil, p.errorf("unclosed ring bond")
	}

	m.buildAdjacency()
	if err := m.completeHydrogens(); err != nil {
		return nil, err
	}
	m.perceiveRings()
	return m, nil
}

func (p *smilesParser) errorf(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeInvalidSMILES, fmt.Sprintf(format, args...)).
		WithDetail(fmt.Sprintf("smiles=%s pos=%d", p.input, p.pos))
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch before any atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.errorf("unmatched closing parenthesis")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '-' || c == '/' || c == '\\':
			p.pendingOrder = BondSingle
			p.pos++
		case c == '=':
			p.pendingOrder = BondDouble
			p.pos++
		case c == '#':
			p.pendingOrder = BondTriple
			p.pos++
		case c == ':':
			p.pendingOrder = BondAromatic
			p.pos++
		case c == '.':
			if p.pendingOrder != 0 {
				return p.errorf("bond symbol before dot disconnect")
			}
			p.prev = -1
			p.pos++
		case c >= '1' && c <= '9':
			if err := p.ringClosure(int(c - '0')); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.input) ||
				!isDigit(p.input[p.pos+1]) || !isDigit(p.input[p.pos+2]) {
				return p.errorf("%% must be followed by two digits")
			}
			n := int(p.input[p.pos+1]-'0')*10 + int(p.input[p.pos+2]-'0')
			if err := p.ringClosure(n); err != nil {
				return err
			}
			p.pos += 3
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	if len(p.stack) != 0 {
		return p.errorf("unclosed branch")
	}
	if p.pendingOrder != 0 {
		return p.errorf("dangling bond symbol")
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// organicAtom consumes an organic-subset atom at the current position.
func (p *smilesParser) organicAtom() error {
	rest := p.input[p.pos:]

	// Two-letter symbols first.
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.pos += 2
			return p.addAtom(Atom{Symbol: sym})
		}
	}

	c := rest[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		p.pos++
		return p.addAtom(Atom{Symbol: string(c)})
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.pos++
		return p.addAtom(Atom{Symbol: strings.ToUpper(string(c)), Aromatic: true})
	case 'H':
		return p.errorf("bare H outside brackets")
	default:
		return p.errorf("unexpected character %q", string(c))
	}
}

// bracketAtom consumes a [ ... ] atom specification.
func (p *smilesParser) bracketAtom() error {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return p.errorf("unterminated bracket atom")
	}
	body := p.input[p.pos+1 : p.pos+end]
	start := p.pos
	p.pos += end + 1

	i := 0
	// Optional isotope.
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i >= len(body) {
		p.pos = start
		return p.errorf("bracket atom missing element symbol")
	}

	// Element symbol: one uppercase optionally followed by lowercase, or a
	// lowercase aromatic symbol.
	var sym string
	aromatic := false
	c := body[i]
	switch {
	case c >= 'A' && c <= 'Z':
		sym = string(c)
		i++
		if i < len(body) && body[i] >= 'a' && body[i] <= 'z' &&
			body[i] != 'h' { // 'h' never follows as part of a symbol here
			candidate := sym + string(body[i])
			if isKnownElement(candidate) {
				sym = candidate
				i++
			}
		}
	case aromaticSymbols[string(c)]:
		sym = strings.ToUpper(string(c))
		aromatic = true
		i++
	default:
		p.pos = start
		return p.errorf("invalid element in bracket atom")
	}

	atom := Atom{Symbol: sym, Aromatic: aromatic}
	explicitH := 0
	hasExplicitH := false

	for i < len(body) {
		switch body[i] {
		case '@': // chirality, ignored
			i++
		case 'H':
			hasExplicitH = true
			explicitH = 1
			i++
			if i < len(body) && isDigit(body[i]) {
				explicitH = int(body[i] - '0')
				i++
			}
		case '+', '-':
			sign := 1
			if body[i] == '-' {
				sign = -1
			}
			i++
			n := 1
			if i < len(body) && isDigit(body[i]) {
				n = int(body[i] - '0')
				i++
			} else {
				// ++ / -- repetition form
				for i < len(body) && (body[i] == '+' || body[i] == '-') {
					n++
					i++
				}
			}
			atom.Charge = sign * n
		case ':':
			// Atom class: consume digits.
			i++
			for i < len(body) && isDigit(body[i]) {
				i++
			}
		default:
			p.pos = start
			return p.errorf("unexpected %q in bracket atom", string(body[i]))
		}
	}

	if hasExplicitH {
		atom.Hydrogens = explicitH
	} else {
		// Bracket atoms without an H spec carry zero hydrogens.
		atom.Hydrogens = 0
	}
	// Mark so completeHydrogens leaves this atom alone.
	return p.addAtomFixedH(atom)
}

// knownTwoLetter lists two-letter element symbols the parser accepts inside
// brackets. Covers the elements that show up in drug-like molecules.
var knownTwoLetter = map[string]bool{
	"Cl": true, "Br": true, "Si": true, "Se": true, "Na": true, "Li": true,
	"Ca": true, "Mg": true, "Zn": true, "Fe": true, "As": true, "Al": true,
	"Sn": true, "Ag": true, "Au": true, "Pt": true, "Hg": true, "Cu": true,
	"Mn": true, "Co": true, "Ni": true, "Cr": true, "Ba": true, "Sr": true,
	"Bi": true, "Gd": true, "Te": true, "Sb": true,
}

func isKnownElement(sym string) bool {
	return knownTwoLetter[sym]
}

func (p *smilesParser) addAtom(a Atom) error {
	return p.add(a, false)
}

func (p *smilesParser) addAtomFixedH(a Atom) error {
	return p.add(a, true)
}

func (p *smilesParser) add(a Atom, fixedH bool) error {
	idx := len(p.mol.Atoms)
	p.mol.Atoms = append(p.mol.Atoms, a)
	if fixedH {
		p.mol.fixedH = append(p.mol.fixedH, idx)
	}

	if p.prev >= 0 {
		order := p.pendingOrder
		if order == 0 {
			if p.mol.Atoms[p.prev].Aromatic && a.Aromatic {
				order = BondAromatic
			} else {
				order = BondSingle
			}
		}
		p.mol.Bonds = append(p.mol.Bonds, Bond{A: p.prev, B: idx, Order: order})
	} else if p.pendingOrder != 0 {
		return p.errorf("bond symbol at fragment start")
	}
	p.pendingOrder = 0
	p.prev = idx
	return nil
}

// ringClosure opens or closes ring bond number n.
func (p *smilesParser) ringClosure(n int) error {
	if p.prev < 0 {
		return p.errorf("ring closure before any atom")
	}
	if ref, open := p.ringRefs[n]; open {
		if ref.atom == p.prev {
			return p.errorf("ring closure %d bonds atom to itself", n)
		}
		order := p.pendingOrder
		if order == 0 {
			order = ref.order
		}
		if order == 0 {
			if p.mol.Atoms[ref.atom].Aromatic && p.mol.Atoms[p.prev].Aromatic {
				order = BondAromatic
			} else {
				order = BondSingle
			}
		}
		for _, b := range p.mol.Bonds {
			if (b.A == ref.atom && b.B == p.prev) || (b.A == p.prev && b.B == ref.atom) {
				return p.errorf("duplicate ring bond %d", n)
			}
		}
		p.mol.Bonds = append(p.mol.Bonds, Bond{A: ref.atom, B: p.prev, Order: order})
		delete(p.ringRefs, n)
	} else {
		p.ringRefs[n] = ringBondRef{atom: p.prev, order: p.pendingOrder}
	}
	p.pendingOrder = 0
	return nil
}

func (m *Mol) buildAdjacency() {
	m.adjacency = make([][]int, len(m.Atoms))
	for bi, b := range m.Bonds {
		m.adjacency[b.A] = append(m.adjacency[b.A], bi)
		m.adjacency[b.B] = append(m.adjacency[b.B], bi)
	}
}

// bondOrderSum returns the valence consumed by explicit bonds of atom i.
// Aromatic bonds contribute 1.5; the total is rounded up per the usual
// aromatic valence convention.
func (m *Mol) bondOrderSum(i int) int {
	sum := 0.0
	for _, bi := range m.adjacency[i] {
		switch m.Bonds[bi].Order {
		case BondAromatic:
			sum += 1.5
		default:
			sum += float64(m.Bonds[bi].Order)
		}
	}
	// Round half-integer sums up: an aromatic carbon with two ring bonds
	// consumes 3 of its 4 valences.
	return int(sum + 0.5)
}

// completeHydrogens fills implicit hydrogen counts for organic-subset atoms.
func (m *Mol) completeHydrogens() error {
	fixed := make(map[int]bool, len(m.fixedH))
	for _, i := range m.fixedH {
		fixed[i] = true
	}
	for i := range m.Atoms {
		if fixed[i] {
			continue
		}
		a := &m.Atoms[i]
		valence, ok := organicValence[a.Symbol]
		if !ok {
			// Non-organic-subset atoms outside brackets never reach here;
			// bracket atoms are fixed. Treat as zero hydrogens.
			continue
		}
		used := m.bondOrderSum(i)
		// Sulfur and phosphorus expand valence when overbonded (e.g. sulfone).
		if a.Symbol == "S" && used > 2 {
			if used <= 4 {
				valence = 4
			} else {
				valence = 6
			}
		}
		if a.Symbol == "P" && used > 3 {
			valence = 5
		}
		if a.Symbol == "N" && used > 3 {
			valence = 5
		}
		// Positive charge adds a bonding site, negative removes one.
		h := valence + a.Charge - used
		if h < 0 {
			if used > 6 {
				return errors.New(errors.ErrCodeInvalidSMILES, "atom exceeds maximum valence").
					WithDetail(fmt.Sprintf("smiles=%s atom=%d symbol=%s", m.SMILES, i, a.Symbol))
			}
			h = 0
		}
		a.Hydrogens = h
	}
	return nil
}

// perceiveRings marks ring membership and records one ring per independent
// cycle. For each bond that lies on a cycle the shortest cycle through it is
// found by breadth-first search with the bond removed.
func (m *Mol) perceiveRings() {
	seen := make(map[string]bool)
	for bi, b := range m.Bonds {
		path := m.shortestPath(b.A, b.B, bi)
		if path == nil {
			continue
		}
		// path runs from A to B without the direct bond; closing it via the
		// bond forms the ring.
		key := ringKey(path)
		if seen[key] {
			continue
		}
		seen[key] = true

		aromatic := true
		for _, ai := range path {
			m.Atoms[ai].InRing = true
			if !m.Atoms[ai].Aromatic {
				aromatic = false
			}
		}
		m.Rings = append(m.Rings, Ring{Atoms: path, Aromatic: aromatic})
	}

	// Mark ring bonds: both endpoints in the same ring and adjacent in it.
	for ri := range m.Rings {
		r := m.Rings[ri]
		for i := range r.Atoms {
			a := r.Atoms[i]
			b := r.Atoms[(i+1)%len(r.Atoms)]
			for _, bi := range m.adjacency[a] {
				bond := &m.Bonds[bi]
				if (bond.A == a && bond.B == b) || (bond.A == b && bond.B == a) {
					bond.InRing = true
				}
			}
		}
	}
}

// shortestPath finds the shortest path from src to dst avoiding bond skipBond,
// returning the atom sequence including both endpoints, or nil when dst is
// unreachable (the bond is a bridge, i.e. not in a ring).
func (m *Mol) shortestPath(src, dst, skipBond int) []int {
	prev := make([]int, len(m.Atoms))
	for i := range prev {
		prev[i] = -2
	}
	prev[src] = -1
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			var path []int
			for at := dst; at != -1; at = prev[at] {
				path = append(path, at)
			}
			// Reverse so the path runs src → dst.
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		for _, bi := range m.adjacency[cur] {
			if bi == skipBond {
				continue
			}
			b := m.Bonds[bi]
			next := b.A
			if next == cur {
				next = b.B
			}
			if prev[next] == -2 {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return nil
}

func ringKey(path []int) string {
	min := path[0]
	for _, v := range path {
		if v < min {
			min = v
		}
	}
	var sb strings.Builder
	sorted := append([]int(nil), path...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] < sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	for _, v := range sorted {
		fmt.Fprintf(&sb, "%d,", v)
	}
	return sb.String()
}
