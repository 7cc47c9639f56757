// Package plots builds the SVG figures served by the HTTP layer, combining
// the DrugBank reference set with the user's stored predictions.
package plots

import (
	"context"
	"strings"
	"time"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/internal/render"
	"github.com/openadmet/admet-server/pkg/errors"
)

// Service renders plots over the reference set and the user's stored batch.
type Service struct {
	cfg       config.PredictConfig
	reference *drugbank.ReferenceSet
	store     store.Store
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

func NewService(
	cfg config.PredictConfig,
	reference *drugbank.ReferenceSet,
	st store.Store,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		reference: reference,
		store:     st,
		metrics:   metrics,
		logger:    logger,
	}
}

// ScatterRequest selects the DrugBank scatter view. Empty fields fall back
// to the user's stored preferences, then to configured defaults.
type ScatterRequest struct {
	ATCCode   string
	XProperty string
	YProperty string
}

// ATCCodes lists the selectable reference subsets.
func (s *Service) ATCCodes() []string {
	return s.reference.ATCCodes()
}

// PropertyNames lists the selectable plot axes.
func (s *Service) PropertyNames() []string {
	return admet.PropertyNames()
}

// DrugBankScatter renders the reference cloud for the requested ATC subset
// with the user's molecules starred on top. Users without stored predictions
// get the reference layer alone. Selections are persisted as the user's plot
// preferences for subsequent page loads.
func (s *Service) DrugBankScatter(ctx context.Context, userID string, req ScatterRequest) (string, error) {
	start := time.Now()

	entry, err := s.store.Get(ctx, userID)
	if err != nil && !errors.IsCode(err, errors.ErrCodePredictionsNotFound) {
		return "", err
	}

	req = s.applyDefaults(req, entry)

	xProp, err := resolveProperty(req.XProperty)
	if err != nil {
		return "", err
	}
	yProp, err := resolveProperty(req.YProperty)
	if err != nil {
		return "", err
	}
	atc := strings.ToLower(strings.TrimSpace(req.ATCCode))

	refX, refY, err := s.reference.XY(xProp.ID, yProp.ID, atc)
	if err != nil {
		s.recordRender("scatter", start, err)
		return "", err
	}

	cfg := render.ScatterConfig{
		XLabel:  xProp.Name,
		YLabel:  yProp.Name,
		ATCCode: atc,
		RefX:    refX,
		RefY:    refY,
	}
	if entry != nil {
		cfg.UserX, cfg.UserY = userPoints(entry.Table, xProp.ID, yProp.ID, s.cfg.MaxVisibleMolecules)
	}

	svg, err := render.RenderScatter(cfg)
	s.recordRender("scatter", start, err)
	if err != nil {
		return "", err
	}

	if entry != nil {
		prefs := store.Preferences{ATCCode: atc, XProperty: xProp.ID, YProperty: yProp.ID}
		if err := s.store.SetPreferences(ctx, userID, prefs); err != nil &&
			!errors.IsCode(err, errors.ErrCodePredictionsNotFound) {
			s.logger.Warn("failed to persist plot preferences",
				logging.String("user_id", userID), logging.Err(err))
		}
	}
	return svg, nil
}

// Radial renders the percentile radar for one stored row.
func (s *Service) Radial(table *admet.Table, row int) (string, error) {
	start := time.Now()

	values := make([]float64, 0, len(admet.RadialProperties))
	labels := make([]string, 0, len(admet.RadialProperties))
	for _, name := range admet.RadialProperties {
		prop, ok := admet.PropertyByName(name)
		if !ok {
			continue
		}
		v, ok := table.Percentile(row, prop.ID)
		if !ok {
			continue
		}
		labels = append(labels, name)
		values = append(values, v)
	}

	svg, err := render.RenderRadial(render.RadialConfig{Labels: labels, Values: values})
	s.recordRender("radial", start, err)
	return svg, err
}

// Depiction renders the 2D structure for one SMILES string.
func (s *Service) Depiction(smiles string) (string, error) {
	start := time.Now()

	m, err := chem.ParseSMILES(smiles)
	if err != nil {
		s.recordRender("molecule", start, err)
		return "", err
	}
	svg, err := render.RenderMolecule(m)
	s.recordRender("molecule", start, err)
	return svg, err
}

// applyDefaults fills empty request fields from stored preferences, then
// from configured defaults.
func (s *Service) applyDefaults(req ScatterRequest, entry *store.Entry) ScatterRequest {
	if entry != nil {
		if req.ATCCode == "" {
			req.ATCCode = entry.Preferences.ATCCode
		}
		if req.XProperty == "" {
			req.XProperty = entry.Preferences.XProperty
		}
		if req.YProperty == "" {
			req.YProperty = entry.Preferences.YProperty
		}
	}
	if req.ATCCode == "" {
		req.ATCCode = drugbank.ATCAll
	}
	if req.XProperty == "" {
		req.XProperty = s.cfg.DefaultXProperty
	}
	if req.YProperty == "" {
		req.YProperty = s.cfg.DefaultYProperty
	}
	return req
}

// resolveProperty accepts either a column ID or a display name.
func resolveProperty(key string) (admet.Property, error) {
	if p, ok := admet.PropertyByID(key); ok {
		return p, nil
	}
	if p, ok := admet.PropertyByName(key); ok {
		return p, nil
	}
	return admet.Property{}, errors.New(errors.ErrCodeUnknownProperty, "unknown ADMET property").
		WithDetail("property=" + key)
}

// userPoints extracts up to limit (x, y) pairs from the stored table.
func userPoints(table *admet.Table, xID, yID string, limit int) ([]float64, []float64) {
	if table == nil {
		return nil, nil
	}
	n := table.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x, okX := table.Rows[i].Values[xID]
		y, okY := table.Rows[i].Values[yID]
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func (s *Service) recordRender(kind string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.RenderErrors.WithLabelValues(kind).Inc()
	}
}
