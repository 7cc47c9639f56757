package render

import (
	"fmt"
	"math"

	"github.com/openadmet/admet-server/pkg/errors"
)

// Scatter canvas geometry.
const (
	scatterWidth  = 700
	scatterHeight = 520
	marginLeft    = 70
	marginRight   = 30
	marginTop     = 64
	marginBottom  = 60
)

// ScatterConfig describes one DrugBank scatter plot: the reference cloud for
// the selected ATC subset plus the user's molecules highlighted on top. The
// user layers may be empty, in which case only the reference is drawn.
type ScatterConfig struct {
	XLabel string
	YLabel string

	// ATCCode is the filter applied to the reference layer; "all" (or empty)
	// means unfiltered and is omitted from the title.
	ATCCode string

	RefX []float64
	RefY []float64

	UserX []float64
	UserY []float64
}

// inputLabel names the user layer the way the page does.
func (c ScatterConfig) inputLabel() string {
	if len(c.UserX) > 1 {
		return "Input Molecules"
	}
	return "Input Molecule"
}

// referenceLabel names the reference layer, marking an active ATC filter.
func (c ScatterConfig) referenceLabel() string {
	if c.filtered() {
		return "DrugBank Approved (ATC filter)"
	}
	return "DrugBank Approved"
}

func (c ScatterConfig) filtered() bool {
	return c.ATCCode != "" && c.ATCCode != "all"
}

func (c ScatterConfig) validate() error {
	if len(c.RefX) != len(c.RefY) {
		return errors.New(errors.ErrCodeRenderFailed, "scatter reference series length mismatch").
			WithDetail(fmt.Sprintf("x=%d y=%d", len(c.RefX), len(c.RefY)))
	}
	if len(c.UserX) != len(c.UserY) {
		return errors.New(errors.ErrCodeRenderFailed, "scatter user series length mismatch").
			WithDetail(fmt.Sprintf("x=%d y=%d", len(c.UserX), len(c.UserY)))
	}
	if len(c.RefX) == 0 {
		return errors.New(errors.ErrCodeRenderFailed, "scatter needs a non-empty reference layer")
	}
	return nil
}

// RenderScatter draws the reference cloud as muted circles and the user's
// molecules as red stars.
func RenderScatter(cfg ScatterConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}

	xmin, xmax := dataRange(cfg.RefX, cfg.UserX)
	ymin, ymax := dataRange(cfg.RefY, cfg.UserY)
	xs := newScale(xmin, xmax, marginLeft, scatterWidth-marginRight)
	ys := newScale(ymin, ymax, scatterHeight-marginBottom, marginTop)

	c := newCanvas(scatterWidth, scatterHeight)
	drawTitle(c, cfg)
	drawAxes(c, xs, ys, cfg.XLabel, cfg.YLabel)

	// Reference layer first so user stars sit on top.
	for i := range cfg.RefX {
		c.svg.Circle(xs.apply(cfg.RefX[i]), ys.apply(cfg.RefY[i]), 3,
			"fill:"+colorReference+";fill-opacity:0.45;stroke:none")
	}
	for i := range cfg.UserX {
		drawStar(c, xs.apply(cfg.UserX[i]), ys.apply(cfg.UserY[i]), 8)
	}

	drawLegend(c, cfg)

	return c.finish(), nil
}

func drawTitle(c *canvas, cfg ScatterConfig) {
	title := cfg.inputLabel() + " vs DrugBank Approved"
	c.svg.Text(scatterWidth/2, 24, escapeText(title),
		fontFamily+";font-size:16px;font-weight:bold;fill:"+colorAxis+";text-anchor:middle")
	if cfg.filtered() {
		c.svg.Text(scatterWidth/2, 44, escapeText("ATC = "+cfg.ATCCode),
			fontFamily+";font-size:13px;fill:"+colorAxis+";text-anchor:middle")
	}
}

// drawLegend marks the two series in the top-right corner of the plot area.
func drawLegend(c *canvas, cfg ScatterConfig) {
	x := scatterWidth - marginRight - 210
	y := marginTop + 16

	c.svg.Circle(x, y-4, 3, "fill:"+colorReference+";fill-opacity:0.45;stroke:none")
	c.svg.Text(x+12, y, escapeText(cfg.referenceLabel()),
		fontFamily+";font-size:12px;fill:"+colorAxis+";text-anchor:start")

	if len(cfg.UserX) > 0 {
		drawStar(c, x, y+14, 6)
		c.svg.Text(x+12, y+18, escapeText(cfg.inputLabel()),
			fontFamily+";font-size:12px;fill:"+colorAxis+";text-anchor:start")
	}
}

func drawAxes(c *canvas, xs, ys scale, xLabel, yLabel string) {
	plotBottom := scatterHeight - marginBottom

	// Gridlines and tick labels.
	for _, tv := range xs.ticks(6) {
		px := xs.apply(tv)
		c.svg.Line(px, marginTop, px, plotBottom, "stroke:"+colorGrid+";stroke-width:1")
		c.svg.Text(px, plotBottom+18, formatTick(tv),
			fontFamily+";font-size:11px;fill:"+colorAxis+";text-anchor:middle")
	}
	for _, tv := range ys.ticks(6) {
		py := ys.apply(tv)
		c.svg.Line(marginLeft, py, scatterWidth-marginRight, py, "stroke:"+colorGrid+";stroke-width:1")
		c.svg.Text(marginLeft-8, py+4, formatTick(tv),
			fontFamily+";font-size:11px;fill:"+colorAxis+";text-anchor:end")
	}

	// Frame.
	c.svg.Line(marginLeft, plotBottom, scatterWidth-marginRight, plotBottom, "stroke:"+colorAxis+";stroke-width:1.5")
	c.svg.Line(marginLeft, marginTop, marginLeft, plotBottom, "stroke:"+colorAxis+";stroke-width:1.5")

	// Axis titles.
	c.svg.Text(scatterWidth/2, scatterHeight-15, escapeText(xLabel),
		fontFamily+";font-size:14px;fill:"+colorAxis+";text-anchor:middle")
	c.svg.TranslateRotate(18, scatterHeight/2, -90)
	c.svg.Text(0, 0, escapeText(yLabel),
		fontFamily+";font-size:14px;fill:"+colorAxis+";text-anchor:middle")
	c.svg.Gend()
}

// drawStar draws a five-pointed star centered at (cx, cy).
func drawStar(c *canvas, cx, cy, r int) {
	xs := make([]int, 10)
	ys := make([]int, 10)
	for i := 0; i < 10; i++ {
		radius := float64(r)
		if i%2 == 1 {
			radius = float64(r) * 0.45
		}
		rad := (float64(i)*36.0 - 90.0) * math.Pi / 180.0
		xs[i] = cx + int(math.Round(radius*math.Cos(rad)))
		ys[i] = cy + int(math.Round(radius*math.Sin(rad)))
	}
	c.svg.Polygon(xs, ys, "fill:"+colorUser+";stroke:#7f1d1d;stroke-width:1")
}
