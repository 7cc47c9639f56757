// Package reference loads the DrugBank approved reference set from a CSV
// file. This is the default source for single-node deployments; the postgres
// repository covers shared setups.
package reference

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

// Fixed leading columns of the reference CSV; every other header is treated
// as a property ID.
const (
	colName     = "name"
	colSMILES   = "smiles"
	colATCCodes = "atc_codes"
)

// CSVRepository loads the reference set from a CSV file. It satisfies
// drugbank.Repository.
type CSVRepository struct {
	path   string
	logger logging.Logger
}

// NewCSVRepository returns a repository reading from path.
func NewCSVRepository(path string, log logging.Logger) *CSVRepository {
	return &CSVRepository{path: path, logger: log}
}

// LoadAll parses the whole file. ATC codes are semicolon-separated within
// their cell; empty property cells are skipped rather than treated as zero.
func (r *CSVRepository) LoadAll(ctx context.Context) ([]drugbank.Molecule, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "reference load cancelled")
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to open reference CSV").
			WithDetail("path=" + r.path)
	}
	defer f.Close()

	mols, err := parseCSV(f)
	if err != nil {
		return nil, err
	}

	r.logger.Info("loaded DrugBank reference set from CSV",
		logging.String("path", r.path),
		logging.Int("molecules", len(mols)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return mols, nil
}

func parseCSV(rd io.Reader) ([]drugbank.Molecule, error) {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to read CSV header")
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	smilesIdx, ok := idx[colSMILES]
	if !ok {
		return nil, errors.New(errors.ErrCodeReferenceLoadFailed, "reference CSV missing smiles column")
	}
	nameIdx, hasName := idx[colName]
	atcIdx, hasATC := idx[colATCCodes]

	// Property columns are everything that is not a fixed column.
	type propCol struct {
		id  string
		col int
	}
	var props []propCol
	for i, h := range header {
		id := strings.ToLower(strings.TrimSpace(h))
		if id == colName || id == colSMILES || id == colATCCodes {
			continue
		}
		props = append(props, propCol{id: id, col: i})
	}

	var out []drugbank.Molecule
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "malformed CSV record").
				WithDetail("line=" + strconv.Itoa(line))
		}

		m := drugbank.Molecule{
			SMILES: strings.TrimSpace(record[smilesIdx]),
			Values: make(map[string]float64, len(props)),
		}
		if hasName {
			m.Name = strings.TrimSpace(record[nameIdx])
		}
		if hasATC {
			m.ATCCodes = splitCodes(record[atcIdx])
		}

		for _, pc := range props {
			cell := strings.TrimSpace(record[pc.col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "non-numeric property value").
					WithDetail("line=" + strconv.Itoa(line) + " column=" + pc.id)
			}
			m.Values[pc.id] = v
		}
		out = append(out, m)
	}

	return out, nil
}

func splitCodes(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
