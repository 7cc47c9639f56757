package render

import (
	"fmt"
	"math"

	"github.com/openadmet/admet-server/pkg/errors"
)

const (
	radialSize   = 380
	radialRadius = 120
	radialCX     = radialSize / 2
	radialCY     = radialSize/2 + 5
)

// radialTicks are the concentric percentile rings, innermost first.
var radialTicks = []float64{0, 25, 50, 75, 100}

// RadialConfig describes one molecule's percentile summary: a value in
// [0, 100] per spoke label.
type RadialConfig struct {
	Labels []string
	Values []float64
}

func (c RadialConfig) validate() error {
	if len(c.Labels) != len(c.Values) {
		return errors.New(errors.ErrCodeRenderFailed, "radial labels/values length mismatch").
			WithDetail(fmt.Sprintf("labels=%d values=%d", len(c.Labels), len(c.Values)))
	}
	if len(c.Labels) < 3 {
		return errors.New(errors.ErrCodeRenderFailed, "radial plot needs at least three spokes")
	}
	for i, v := range c.Values {
		if v < 0 || v > 100 || math.IsNaN(v) {
			return errors.New(errors.ErrCodeRenderFailed, "radial value out of percentile range").
				WithDetail(fmt.Sprintf("spoke=%s value=%v", c.Labels[i], v))
		}
	}
	return nil
}

// RenderRadial draws the percentile radar: concentric reference rings with
// tick labels, one spoke per property, and the molecule's closed polygon.
func RenderRadial(cfg RadialConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}

	n := len(cfg.Labels)
	c := newCanvas(radialSize, radialSize)

	// Reference rings.
	for _, tick := range radialTicks {
		ringXs, ringYs := spokePolygon(n, func(int) float64 { return tick })
		c.svg.Polygon(ringXs, ringYs, "fill:none;stroke:"+colorGrid+";stroke-width:1")
	}

	// Spokes and labels.
	for i := 0; i < n; i++ {
		x, y := spokePoint(i, n, 100)
		c.svg.Line(radialCX, radialCY, x, y, "stroke:"+colorGrid+";stroke-width:1")

		lx, ly := spokePoint(i, n, 118)
		anchor := "middle"
		if lx < radialCX-5 {
			anchor = "end"
		} else if lx > radialCX+5 {
			anchor = "start"
		}
		c.svg.Text(lx, ly, escapeText(cfg.Labels[i]),
			fontFamily+";font-size:11px;fill:"+colorAxis+";text-anchor:"+anchor)
	}

	// Tick labels up the first spoke.
	for _, tick := range radialTicks {
		_, y := spokePoint(0, n, tick)
		c.svg.Text(radialCX+6, y, formatTick(tick),
			fontFamily+";font-size:9px;fill:"+colorAxis+";text-anchor:start")
	}

	// The molecule polygon.
	xs, ys := spokePolygon(n, func(i int) float64 { return cfg.Values[i] })
	c.svg.Polygon(xs, ys,
		"fill:"+colorRadial+";fill-opacity:0.35;stroke:"+colorRadial+";stroke-width:2")
	for i := 0; i < n; i++ {
		c.svg.Circle(xs[i], ys[i], 3, "fill:"+colorRadial)
	}

	return c.finish(), nil
}

// spokePoint maps spoke i of n at percentile v onto canvas coordinates,
// with spoke 0 pointing up and the rest laid out clockwise.
func spokePoint(i, n int, v float64) (int, int) {
	angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	r := radialRadius * v / 100.0
	x := float64(radialCX) + r*math.Cos(angle)
	y := float64(radialCY) + r*math.Sin(angle)
	return int(math.Round(x)), int(math.Round(y))
}

func spokePolygon(n int, value func(i int) float64) ([]int, []int) {
	xs := make([]int, n)
	ys := make([]int, n)
	for i := 0; i < n; i++ {
		xs[i], ys[i] = spokePoint(i, n, value(i))
	}
	return xs, ys
}
