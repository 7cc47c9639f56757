// Package render produces the SVG figures shown on the results page: the
// DrugBank scatter plot, the per-molecule percentile radial, and 2D molecule
// depictions. Every figure is emitted with percentage width/height over a
// fixed pixel viewBox so the browser scales it to its container.
package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const (
	colorAxis      = "#4a4a4a"
	colorGrid      = "#d9d9d9"
	colorReference = "#8fa8c8"
	colorUser      = "#d62728"
	colorRadial    = "#1f77b4"
	colorBond      = "#2b2b2b"

	fontFamily = "font-family:Helvetica,Arial,sans-serif"
)

// heteroatomColors follows the usual CPK-ish convention for atom labels.
var heteroatomColors = map[string]string{
	"N": "#3050f8", "O": "#d62728", "S": "#b8a000", "P": "#ff8000",
	"F": "#2ca02c", "Cl": "#2ca02c", "Br": "#a52a2a", "I": "#940094",
}

// canvas wraps an svgo drawing over a buffer and emits the percent-sized
// document shell every figure shares.
type canvas struct {
	buf *bytes.Buffer
	svg *svg.SVG
	w   int
	h   int
}

func newCanvas(w, h int) *canvas {
	buf := &bytes.Buffer{}
	c := &canvas{buf: buf, svg: svg.New(buf), w: w, h: h}
	c.svg.StartviewUnit(100, 100, "%", 0, 0, w, h)
	return c
}

func (c *canvas) finish() string {
	c.svg.End()
	return c.buf.String()
}

// scale maps a data interval onto a pixel interval. A degenerate domain is
// widened so a single point still lands mid-axis.
type scale struct {
	dmin, dmax float64
	pmin, pmax float64
}

func newScale(dmin, dmax, pmin, pmax float64) scale {
	if dmax == dmin {
		dmin -= 0.5
		dmax += 0.5
	}
	return scale{dmin: dmin, dmax: dmax, pmin: pmin, pmax: pmax}
}

func (s scale) apply(v float64) int {
	frac := (v - s.dmin) / (s.dmax - s.dmin)
	return int(math.Round(s.pmin + frac*(s.pmax-s.pmin)))
}

// ticks returns n evenly spaced tick values across the domain.
func (s scale) ticks(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.dmin + float64(i)*(s.dmax-s.dmin)/float64(n-1)
	}
	return out
}

// dataRange finds min/max across one or more series, padded by 5% so points
// don't sit on the frame.
func dataRange(series ...[]float64) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, vs := range series {
		for _, v := range vs {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return lo - pad, hi + pad
}

func formatTick(v float64) string {
	return fmt.Sprintf("%.3g", v)
}

// escapeText guards labels embedded in SVG text nodes.
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
