package drugbank

import (
	"sort"

	"github.com/openadmet/admet-server/pkg/errors"
)

// Percentiles ranks each value against the reference population for the
// given property, optionally filtered by ATC code. The result has the same
// length and order as values, each entry in [0, 100].
//
// The rank of v is 100·L/(L+G) where L is the number of reference values
// strictly below v and G the number strictly above. Values below the
// reference minimum rank 0, above the maximum rank 100, and a value equal to
// the entire population ranks 50.
func (s *ReferenceSet) Percentiles(propertyID string, values []float64, atcCode string) ([]float64, error) {
	ref, err := s.sortedColumn(propertyID, atcCode)
	if err != nil {
		return nil, err
	}
	if len(ref) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientReference, "insufficient reference data").
			WithDetail("property=" + propertyID + " atc_code=" + atcCode)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = rank(ref, v)
	}
	return out, nil
}

// rank computes the percentile of v against the ascending slice ref.
func rank(ref []float64, v float64) float64 {
	// below = #strictly less, above = #strictly greater.
	below := sort.SearchFloat64s(ref, v)
	above := len(ref) - sort.Search(len(ref), func(i int) bool { return ref[i] > v })

	denom := below + above
	if denom == 0 {
		return 50
	}
	return 100 * float64(below) / float64(denom)
}
