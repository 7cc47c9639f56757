// Package predict orchestrates the prediction pipeline: SMILES validation,
// model inference, descriptor computation, DrugBank percentile annotation,
// and persistence of the finished batch in the per-user store.
package predict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/messaging/kafka"
	"github.com/openadmet/admet-server/internal/infrastructure/model"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/pkg/errors"
)

// Result is one finished batch: the annotated table plus the inputs that
// were dropped during validation.
type Result struct {
	Table         *admet.Table
	InvalidSMILES []string
	Warnings      []string
}

// Service runs the pipeline. All dependencies are injected so tests can use
// the descriptor predictor and the memory store.
type Service struct {
	cfg       config.Config
	predictor model.Predictor
	reference *drugbank.ReferenceSet
	store     store.Store
	events    kafka.EventPublisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

func NewService(
	cfg config.Config,
	predictor model.Predictor,
	reference *drugbank.ReferenceSet,
	st store.Store,
	events kafka.EventPublisher,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		predictor: predictor,
		reference: reference,
		store:     st,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// Predict validates the batch, runs the model, annotates DrugBank
// percentiles, and stores the result under the user's session.
func (s *Service) Predict(ctx context.Context, userID string, smiles []string, source string) (*Result, error) {
	start := time.Now()

	cleaned := cleanInput(smiles)
	if max := s.cfg.Predict.MaxMolecules; max > 0 && len(cleaned) > max {
		s.recordOutcome(source, len(cleaned), 0, start, fmt.Errorf("too many molecules"))
		return nil, errors.New(errors.ErrCodeTooManyMolecules, "received too many molecules").
			WithDetail(fmt.Sprintf("got=%d max=%d", len(cleaned), max))
	}

	valid, invalid := s.validate(cleaned)
	if len(valid) == 0 {
		s.recordOutcome(source, len(cleaned), len(invalid), start, fmt.Errorf("no valid molecules"))
		return nil, errors.New(errors.ErrCodeNoValidMolecules, "no valid SMILES strings given").
			WithDetail(fmt.Sprintf("invalid=%d", len(invalid)))
	}

	inferCtx := ctx
	if timeout := s.cfg.Model.InferenceTimeout; timeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	inferStart := time.Now()
	table, err := s.predictor.Predict(inferCtx, valid)
	if s.metrics != nil {
		s.metrics.ModelInferenceDuration.WithLabelValues(s.predictor.Name()).
			Observe(time.Since(inferStart).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.ModelInferenceErrors.WithLabelValues(s.predictor.Name()).Inc()
		}
		s.recordOutcome(source, len(cleaned), len(invalid), start, err)
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "model inference failed")
	}

	// Percentiles are ranked against the user's current ATC selection, and the
	// selection survives the new batch.
	prefs := s.preferences(ctx, userID)

	s.addDescriptors(table, valid)
	s.addPercentiles(table, prefs.ATCCode)

	if err := s.store.Set(ctx, userID, table, prefs); err != nil {
		s.recordOutcome(source, len(cleaned), len(invalid), start, err)
		return nil, err
	}

	s.publishEvent(ctx, userID, table.Len(), len(invalid), time.Since(start))
	s.recordOutcome(source, len(cleaned), len(invalid), start, nil)

	result := &Result{Table: table, InvalidSMILES: invalid}
	if len(invalid) > 0 {
		result.Warnings = append(result.Warnings, invalidWarning(len(invalid)))
	}
	return result, nil
}

// invalidWarning phrases the dropped-input warning with a grouped count and
// proper plural.
func invalidWarning(n int) string {
	ending := "s"
	if n == 1 {
		ending = ""
	}
	return fmt.Sprintf("Input contains %s invalid SMILES string%s.", groupDigits(n), ending)
}

// groupDigits formats n with thousands separators (1234567 -> "1,234,567").
func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// preferences returns the user's stored display preferences, falling back to
// the configured defaults for a first batch.
func (s *Service) preferences(ctx context.Context, userID string) store.Preferences {
	prefs := store.Preferences{
		ATCCode:   drugbank.ATCAll,
		XProperty: s.cfg.Predict.DefaultXProperty,
		YProperty: s.cfg.Predict.DefaultYProperty,
	}
	entry, err := s.store.Get(ctx, userID)
	if err != nil || entry == nil {
		return prefs
	}
	if entry.Preferences.ATCCode != "" {
		prefs.ATCCode = entry.Preferences.ATCCode
	}
	if entry.Preferences.XProperty != "" {
		prefs.XProperty = entry.Preferences.XProperty
	}
	if entry.Preferences.YProperty != "" {
		prefs.YProperty = entry.Preferences.YProperty
	}
	return prefs
}

// cleanInput trims whitespace and drops empty lines, preserving order.
func cleanInput(smiles []string) []string {
	out := make([]string, 0, len(smiles))
	for _, s := range smiles {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validate splits the batch into parseable and unparseable SMILES.
func (s *Service) validate(smiles []string) (valid, invalid []string) {
	for _, sm := range smiles {
		if _, err := chem.ParseSMILES(sm); err != nil {
			invalid = append(invalid, sm)
			continue
		}
		valid = append(valid, sm)
	}
	return valid, invalid
}

// addDescriptors fills the computed physicochemical columns.
func (s *Service) addDescriptors(table *admet.Table, smiles []string) {
	for i, sm := range smiles {
		m, err := chem.ParseSMILES(sm)
		if err != nil {
			continue
		}
		d := chem.ComputeDescriptors(m)
		row := &table.Rows[i]
		row.Values["molecular_weight"] = d.MolecularWeight
		row.Values["logp"] = d.LogP
		row.Values["tpsa"] = d.TPSA
		row.Values["hydrogen_bond_donors"] = float64(d.HBondDonors)
		row.Values["hydrogen_bond_acceptors"] = float64(d.HBondAcceptors)
		row.Values["rotatable_bonds"] = float64(d.RotatableBonds)
		row.Values["aromatic_rings"] = float64(d.AromaticRings)
		row.Values["heavy_atoms"] = float64(d.HeavyAtoms)
	}
}

// addPercentiles annotates every property column with its rank against the
// approved set filtered by atcCode. Properties absent from the reference data
// are skipped.
func (s *Service) addPercentiles(table *admet.Table, atcCode string) {
	if atcCode == "" {
		atcCode = drugbank.ATCAll
	}
	for _, prop := range table.Properties {
		values := table.Column(prop.ID)

		lookupStart := time.Now()
		ranks, err := s.reference.Percentiles(prop.ID, values, atcCode)
		if s.metrics != nil {
			s.metrics.PercentileLookupDuration.WithLabelValues(atcCode).
				Observe(time.Since(lookupStart).Seconds())
		}
		if err != nil {
			if !errors.IsCode(err, errors.ErrCodeInsufficientReference) {
				s.logger.Warn("percentile annotation failed",
					logging.String("property", prop.ID), logging.Err(err))
			}
			continue
		}
		if err := table.SetPercentiles(prop.ID, ranks); err != nil {
			s.logger.Warn("percentile column mismatch",
				logging.String("property", prop.ID), logging.Err(err))
		}
	}
}

func (s *Service) publishEvent(ctx context.Context, userID string, count, invalid int, took time.Duration) {
	event := kafka.PredictionCompletedEvent{
		UserID:        userID,
		MoleculeCount: count,
		InvalidCount:  invalid,
		ModelBackend:  s.predictor.Name(),
		DurationMS:    took.Milliseconds(),
		CompletedAt:   time.Now().UTC(),
	}
	// Event delivery is best-effort; the batch is already stored.
	if err := s.events.PublishPredictionCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish prediction event",
			logging.String("user_id", userID), logging.Err(err))
	}
}

func (s *Service) recordOutcome(source string, batch, invalid int, start time.Time, err error) {
	if s.metrics != nil {
		prometheus.RecordPrediction(s.metrics, source, batch, invalid, time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("prediction batch failed",
			logging.String("source", source),
			logging.Int("batch", batch),
			logging.Err(err),
		)
		return
	}
	s.logger.Info("prediction batch completed",
		logging.String("source", source),
		logging.Int("molecules", batch-invalid),
		logging.Int("invalid", invalid),
		logging.Duration("took", time.Since(start)),
	)
}
