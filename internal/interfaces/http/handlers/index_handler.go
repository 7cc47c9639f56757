package handlers

import (
	"bufio"
	"html/template"
	"net/http"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/openadmet/admet-server/internal/application/plots"
	"github.com/openadmet/admet-server/internal/application/predict"
	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	"github.com/openadmet/admet-server/internal/interfaces/http/middleware"
	"github.com/openadmet/admet-server/pkg/errors"
)

// PropertyView is one table cell on the results page.
type PropertyView struct {
	Name       string
	Value      float64
	Units      string
	Percentile float64
	HasRank    bool
}

// MoleculeView is one rendered molecule card.
type MoleculeView struct {
	SMILES     string
	Depiction  template.HTML
	Radial     template.HTML
	Properties []PropertyView
}

// IndexView is the template context for the prediction page.
type IndexView struct {
	Errors   []string
	Warnings []string

	HasPredictions bool
	Molecules      []MoleculeView
	TotalCount     int
	HiddenCount    int

	Scatter       template.HTML
	ATCCodes      []string
	PropertyNames []string
	SelectedATC   string
	SelectedX     string
	SelectedY     string
}

// IndexHandler serves the prediction form and runs new batches.
type IndexHandler struct {
	predict *predict.Service
	plots   *plots.Service
	store   store.Store
	cfg     config.PredictConfig
	logger  logging.Logger
}

func NewIndexHandler(
	predictSvc *predict.Service,
	plotsSvc *plots.Service,
	st store.Store,
	cfg config.PredictConfig,
	logger logging.Logger,
) *IndexHandler {
	return &IndexHandler{
		predict: predictSvc,
		plots:   plotsSvc,
		store:   st,
		cfg:     cfg,
		logger:  logger,
	}
}

// Get renders the form, with the user's stored batch if one exists.
func (h *IndexHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)

	view := h.baseView()
	entry, err := h.store.Get(c.Request.Context(), userID)
	if err == nil {
		h.fillResults(c, userID, &view, entry, nil)
	} else if !errors.IsCode(err, errors.ErrCodePredictionsNotFound) {
		h.logger.Error("failed to load stored predictions",
			logging.String("user_id", userID), logging.Err(err))
	}

	c.HTML(http.StatusOK, "index.html", view)
}

// Post accepts SMILES from the textarea and/or an uploaded file, runs the
// pipeline, and renders the results.
func (h *IndexHandler) Post(c *gin.Context) {
	userID := middleware.UserID(c)

	smiles, err := h.readInput(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	result, err := h.predict.Predict(c.Request.Context(), userID, smiles, "web")
	if err != nil {
		h.renderError(c, err)
		return
	}

	view := h.baseView()
	view.Warnings = result.Warnings

	entry, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	h.fillResults(c, userID, &view, entry, result.Table)

	c.HTML(http.StatusOK, "index.html", view)
}

// readInput gathers SMILES from the "smiles" form field (one per line or
// comma-separated) and an optional uploaded text file.
func (h *IndexHandler) readInput(c *gin.Context) ([]string, error) {
	var smiles []string

	raw := c.PostForm("smiles")
	raw = strings.ReplaceAll(raw, ",", "\n")
	for _, line := range strings.Split(raw, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			smiles = append(smiles, s)
		}
	}

	file, err := c.FormFile("data")
	if err != nil {
		return smiles, nil
	}
	f, err := file.Open()
	if err != nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "could not read the uploaded file").WithCause(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			smiles = append(smiles, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "could not read the uploaded file").WithCause(err)
	}
	return smiles, nil
}

func (h *IndexHandler) baseView() IndexView {
	return IndexView{
		ATCCodes:      h.plots.ATCCodes(),
		PropertyNames: h.plots.PropertyNames(),
		SelectedATC:   "all",
		SelectedX:     h.cfg.DefaultXProperty,
		SelectedY:     h.cfg.DefaultYProperty,
	}
}

// fillResults populates the view from a stored entry. When table is non-nil
// it is the batch just predicted; otherwise the stored table is shown.
func (h *IndexHandler) fillResults(c *gin.Context, userID string, view *IndexView, entry *store.Entry, table *admet.Table) {
	if table == nil {
		table = entry.Table
	}
	view.HasPredictions = true
	view.TotalCount = table.Len()
	view.SelectedATC = entry.Preferences.ATCCode
	if p, ok := admet.PropertyByID(entry.Preferences.XProperty); ok {
		view.SelectedX = p.Name
	}
	if p, ok := admet.PropertyByID(entry.Preferences.YProperty); ok {
		view.SelectedY = p.Name
	}

	visible := table.Len()
	if max := h.cfg.MaxVisibleMolecules; max > 0 && visible > max {
		view.HiddenCount = visible - max
		visible = max
	}

	// Each card needs two SVG renders; do them concurrently.
	view.Molecules = make([]MoleculeView, visible)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < visible; i++ {
		i := i
		g.Go(func() error {
			view.Molecules[i] = h.moleculeView(table, i)
			return nil
		})
	}
	_ = g.Wait()

	scatter, err := h.plots.DrugBankScatter(c.Request.Context(), userID, plots.ScatterRequest{})
	if err != nil {
		h.logger.Error("scatter render failed", logging.Err(err))
	} else {
		view.Scatter = template.HTML(scatter)
	}
}

func (h *IndexHandler) moleculeView(table *admet.Table, row int) MoleculeView {
	mv := MoleculeView{SMILES: table.Rows[row].SMILES}

	if svg, err := h.plots.Depiction(mv.SMILES); err == nil {
		mv.Depiction = template.HTML(svg)
	}
	if svg, err := h.plots.Radial(table, row); err == nil {
		mv.Radial = template.HTML(svg)
	} else {
		h.logger.Debug("radial render skipped",
			logging.String("smiles", mv.SMILES), logging.Err(err))
	}

	for _, prop := range table.Properties {
		v, ok := table.Rows[row].Values[prop.ID]
		if !ok {
			continue
		}
		pv := PropertyView{Name: prop.Name, Value: v, Units: prop.Units}
		if rank, ok := table.Percentile(row, prop.ID); ok {
			pv.Percentile = rank
			pv.HasRank = true
		}
		mv.Properties = append(mv.Properties, pv)
	}
	return mv
}

// renderError re-renders the form with the error message for user mistakes
// and falls back to the JSON error body for everything else.
func (h *IndexHandler) renderError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		writeAppError(c, err)
		return
	}

	view := h.baseView()
	message := err.Error()
	if ae, ok := err.(*errors.AppError); ok {
		message = ae.Message
	}
	view.Errors = []string{message}
	_ = c.Error(err)
	c.HTML(status, "index.html", view)
}
