// Package drugbank holds the approved-drug reference set used to rank user
// predictions. The set is loaded once at startup (from CSV or PostgreSQL),
// indexed by ATC code, and immutable afterwards; every operation here is
// read-only and safe for concurrent use.
package drugbank

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/openadmet/admet-server/pkg/errors"
)

// ATCAll is the sentinel filter value meaning "no ATC filtering".
const ATCAll = "all"

// Molecule is one approved drug in the reference set.
type Molecule struct {
	Name     string
	SMILES   string
	ATCCodes []string

	// Values holds the precomputed property values keyed by property ID.
	Values map[string]float64
}

// Repository loads the full reference set from a backing source.
type Repository interface {
	LoadAll(ctx context.Context) ([]Molecule, error)
}

// ReferenceSet is the indexed, immutable reference population.
type ReferenceSet struct {
	molecules []Molecule

	// atcIndex maps a lowercase ATC code to the row indices carrying it.
	atcIndex map[string][]int

	// atcCodes is the sorted list of distinct codes, ATCAll first.
	atcCodes []string

	// sortedCols caches ascending value slices per (property, atc) pair.
	mu         sync.Mutex
	sortedCols map[string][]float64
}

// NewReferenceSet indexes the given molecules. The slice is retained; callers
// must not mutate it afterwards.
func NewReferenceSet(molecules []Molecule) *ReferenceSet {
	s := &ReferenceSet{
		molecules:  molecules,
		atcIndex:   make(map[string][]int),
		sortedCols: make(map[string][]float64),
	}
	for i, m := range molecules {
		for _, code := range m.ATCCodes {
			code = strings.ToLower(strings.TrimSpace(code))
			if code == "" {
				continue
			}
			s.atcIndex[code] = append(s.atcIndex[code], i)
		}
	}

	s.atcCodes = make([]string, 0, len(s.atcIndex)+1)
	for code := range s.atcIndex {
		s.atcCodes = append(s.atcCodes, code)
	}
	sort.Strings(s.atcCodes)
	s.atcCodes = append([]string{ATCAll}, s.atcCodes...)
	return s
}

// Size returns the number of molecules matching the ATC filter.
func (s *ReferenceSet) Size(atcCode string) int {
	if isAll(atcCode) {
		return len(s.molecules)
	}
	return len(s.atcIndex[strings.ToLower(atcCode)])
}

// ATCCodes returns every selectable ATC code, with ATCAll first.
func (s *ReferenceSet) ATCCodes() []string {
	out := make([]string, len(s.atcCodes))
	copy(out, s.atcCodes)
	return out
}

// HasATCCode reports whether the code is selectable.
func (s *ReferenceSet) HasATCCode(atcCode string) bool {
	if isAll(atcCode) {
		return true
	}
	_, ok := s.atcIndex[strings.ToLower(atcCode)]
	return ok
}

// Column returns the property values of the molecules matching the ATC
// filter, in row order.
func (s *ReferenceSet) Column(propertyID, atcCode string) ([]float64, error) {
	rows, err := s.rows(atcCode)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for _, i := range rows {
		v, ok := s.molecules[i].Values[propertyID]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownProperty, "unknown property").
				WithDetail("property=" + propertyID)
		}
		out = append(out, v)
	}
	return out, nil
}

// XY returns paired (x, y) property values for the scatter plot, filtered by
// ATC code.
func (s *ReferenceSet) XY(xPropertyID, yPropertyID, atcCode string) (xs, ys []float64, err error) {
	xs, err = s.Column(xPropertyID, atcCode)
	if err != nil {
		return nil, nil, err
	}
	ys, err = s.Column(yPropertyID, atcCode)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// rows resolves the ATC filter to row indices. Unknown codes are an error;
// ATCAll selects everything.
func (s *ReferenceSet) rows(atcCode string) ([]int, error) {
	if isAll(atcCode) {
		all := make([]int, len(s.molecules))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	rows, ok := s.atcIndex[strings.ToLower(atcCode)]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownATCCode, "unknown ATC code").
			WithDetail("atc_code=" + atcCode)
	}
	return rows, nil
}

func isAll(atcCode string) bool {
	return atcCode == "" || strings.EqualFold(atcCode, ATCAll)
}

// sortedColumn returns the ascending reference values for the property under
// the given filter, cached after first use.
func (s *ReferenceSet) sortedColumn(propertyID, atcCode string) ([]float64, error) {
	key := strings.ToLower(atcCode) + "\x00" + propertyID
	if isAll(atcCode) {
		key = ATCAll + "\x00" + propertyID
	}

	s.mu.Lock()
	cached, ok := s.sortedCols[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	col, err := s.Column(propertyID, atcCode)
	if err != nil {
		return nil, err
	}
	sort.Float64s(col)

	s.mu.Lock()
	s.sortedCols[key] = col
	s.mu.Unlock()
	return col, nil
}
