package admet

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/openadmet/admet-server/pkg/errors"
)

// Row holds one molecule's values: model predictions plus computed
// descriptors keyed by property ID, and DrugBank percentile ranks keyed the
// same way.
type Row struct {
	SMILES      string             `json:"smiles"`
	Values      map[string]float64 `json:"values"`
	Percentiles map[string]float64 `json:"percentiles,omitempty"`
}

// Table is an ordered prediction result for one submitted batch.
type Table struct {
	// Properties is the column order; defaults to the full catalog.
	Properties []Property `json:"properties"`
	Rows       []Row      `json:"rows"`
}

// NewTable creates an empty table over the full property catalog.
func NewTable() *Table {
	return &Table{Properties: Catalog}
}

// Append adds a row for the given SMILES with its predicted values.
func (t *Table) Append(smiles string, values map[string]float64) {
	t.Rows = append(t.Rows, Row{
		SMILES:      smiles,
		Values:      values,
		Percentiles: make(map[string]float64),
	})
}

// Len returns the number of molecules in the table.
func (t *Table) Len() int { return len(t.Rows) }

// Column extracts one property's values across all rows. Rows missing the
// property contribute NaN-free zero values, which does not occur for tables
// built by the prediction service.
func (t *Table) Column(propertyID string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[propertyID]
	}
	return out
}

// SetPercentiles stores percentile ranks for one property across all rows.
// The slice length must match the row count.
func (t *Table) SetPercentiles(propertyID string, ranks []float64) error {
	if len(ranks) != len(t.Rows) {
		return errors.New(errors.ErrCodeInternal, "percentile count does not match row count").
			WithDetail("property=" + propertyID)
	}
	for i := range t.Rows {
		if t.Rows[i].Percentiles == nil {
			t.Rows[i].Percentiles = make(map[string]float64)
		}
		t.Rows[i].Percentiles[propertyID] = ranks[i]
	}
	return nil
}

// Percentile returns the stored percentile of row i for the given property.
func (t *Table) Percentile(i int, propertyID string) (float64, bool) {
	if i < 0 || i >= len(t.Rows) {
		return 0, false
	}
	v, ok := t.Rows[i].Percentiles[propertyID]
	return v, ok
}

// WriteCSV writes the table with a header row: smiles, one column per
// property in table order, then one percentile column per property.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+2*len(t.Properties))
	header = append(header, "smiles")
	for _, p := range t.Properties {
		header = append(header, p.ID)
	}
	for _, p := range t.Properties {
		header = append(header, p.PercentileColumn())
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write CSV header")
	}

	record := make([]string, len(header))
	for _, r := range t.Rows {
		record = record[:0]
		record = append(record, r.SMILES)
		for _, p := range t.Properties {
			record = append(record, formatValue(r.Values[p.ID]))
		}
		for _, p := range t.Properties {
			v, ok := r.Percentiles[p.ID]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to flush CSV")
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
