package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

// ReferenceRepository loads the DrugBank approved reference set from the
// drugbank_reference table. It satisfies drugbank.Repository.
type ReferenceRepository struct {
	conn   *Connection
	logger logging.Logger
}

// NewReferenceRepository returns a repository over the given connection.
func NewReferenceRepository(conn *Connection, log logging.Logger) *ReferenceRepository {
	return &ReferenceRepository{conn: conn, logger: log}
}

// LoadAll reads every reference molecule. Property values are stored as a
// JSONB map keyed by property ID; ATC codes as a semicolon-separated string.
func (r *ReferenceRepository) LoadAll(ctx context.Context) ([]drugbank.Molecule, error) {
	start := time.Now()

	rows, err := r.conn.DB().QueryContext(ctx,
		`SELECT name, smiles, atc_codes, property_values FROM drugbank_reference ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to query reference set")
	}
	defer rows.Close()

	var out []drugbank.Molecule
	for rows.Next() {
		var (
			name, smiles, atcCodes string
			valuesJSON             []byte
		)
		if err := rows.Scan(&name, &smiles, &atcCodes, &valuesJSON); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to scan reference row")
		}

		values := map[string]float64{}
		if len(valuesJSON) > 0 {
			if err := json.Unmarshal(valuesJSON, &values); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "invalid property_values JSON").
					WithDetail("name=" + name)
			}
		}

		out = append(out, drugbank.Molecule{
			Name:     name,
			SMILES:   smiles,
			ATCCodes: splitCodes(atcCodes),
			Values:   values,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "reference row iteration failed")
	}

	r.logger.Info("loaded DrugBank reference set from postgres",
		logging.Int("molecules", len(out)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func splitCodes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
