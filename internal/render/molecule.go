package render

import (
	"fmt"
	"math"

	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/pkg/errors"
)

const (
	molSize    = 320
	molMargin  = 30
	labelRad   = 9
	doubleBond = 3.0

	bondStroke = "stroke:" + colorBond + ";stroke-width:2;stroke-linecap:round"
)

// RenderMolecule draws a 2D depiction of the parsed molecule: bonds with
// double/triple parallels, element labels for heteroatoms and charges, and
// bare vertices for carbon.
func RenderMolecule(m *chem.Mol) (string, error) {
	if m == nil || len(m.Atoms) == 0 {
		return "", errors.New(errors.ErrCodeRenderFailed, "cannot depict an empty molecule")
	}

	pts := chem.Layout(m)
	min, max := chem.Bounds(pts, 0.5)

	// Uniform scale so the structure fits the canvas without distortion.
	span := math.Max(max.X-min.X, max.Y-min.Y)
	if span == 0 {
		span = 1
	}
	s := float64(molSize-2*molMargin) / span
	offX := (float64(molSize) - (max.X-min.X)*s) / 2
	offY := (float64(molSize) - (max.Y-min.Y)*s) / 2

	px := make([]float64, len(pts))
	py := make([]float64, len(pts))
	for i, p := range pts {
		px[i] = (p.X-min.X)*s + offX
		py[i] = (p.Y-min.Y)*s + offY
	}

	c := newCanvas(molSize, molSize)

	for _, b := range m.Bonds {
		drawBond(c, px[b.A], py[b.A], px[b.B], py[b.B], b.Order)
	}

	for i, a := range m.Atoms {
		if a.Symbol == "C" && a.Charge == 0 {
			continue
		}
		label := atomLabel(a)
		color, ok := heteroatomColors[a.Symbol]
		if !ok {
			color = colorBond
		}
		// White backing so the label reads over bond lines.
		c.svg.Circle(round(px[i]), round(py[i]), labelRad+len(label)*2, "fill:#ffffff")
		c.svg.Text(round(px[i]), round(py[i])+4, escapeText(label),
			fontFamily+";font-size:13px;font-weight:bold;fill:"+color+";text-anchor:middle")
	}

	return c.finish(), nil
}

// atomLabel renders the element symbol plus hydrogen count and charge the way
// chemists write them ("OH", "NH3+", "N-").
func atomLabel(a chem.Atom) string {
	label := a.Symbol
	if a.Hydrogens == 1 {
		label += "H"
	} else if a.Hydrogens > 1 {
		label += fmt.Sprintf("H%d", a.Hydrogens)
	}
	switch {
	case a.Charge == 1:
		label += "+"
	case a.Charge == -1:
		label += "-"
	case a.Charge > 1:
		label += fmt.Sprintf("%d+", a.Charge)
	case a.Charge < -1:
		label += fmt.Sprintf("%d-", -a.Charge)
	}
	return label
}

// drawBond draws 1-3 parallel lines perpendicular-offset around the bond axis.
// Aromatic bonds get a full line plus a shortened inner parallel.
func drawBond(c *canvas, x1, y1, x2, y2 float64, order int) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	// Unit normal for parallel offsets.
	nx := -dy / length
	ny := dx / length

	if order == chem.BondAromatic {
		c.svg.Line(round(x1), round(y1), round(x2), round(y2), bondStroke)
		// Inner line trimmed to 70% of the bond, offset toward the ring.
		trimX := dx * 0.15
		trimY := dy * 0.15
		o := doubleBond * 1.3
		c.svg.Line(
			round(x1+trimX+nx*o), round(y1+trimY+ny*o),
			round(x2-trimX+nx*o), round(y2-trimY+ny*o),
			bondStroke,
		)
		return
	}

	if order < 1 {
		order = 1
	}
	if order > 3 {
		order = 3
	}
	offsets := map[int][]float64{
		1: {0},
		2: {-doubleBond / 2, doubleBond / 2},
		3: {-doubleBond, 0, doubleBond},
	}[order]

	for _, o := range offsets {
		c.svg.Line(
			round(x1+nx*o), round(y1+ny*o),
			round(x2+nx*o), round(y2+ny*o),
			bondStroke,
		)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
