package chem

import "math"

// Point is a 2D coordinate in bond-length units.
type Point struct {
	X, Y float64
}

// layout tuning constants. Bond rest length is 1.0; the relaxation pass pulls
// ring-closure bonds shut and pushes overlapping atoms apart.
const (
	layoutIterations  = 300
	springConstant    = 0.25
	repulsionRadius   = 1.6
	repulsionConstant = 0.08
)

// Layout computes deterministic 2D coordinates for every atom, one point per
// atom in input order. A spanning-tree walk places atoms along alternating
// 120-degree zigzag directions, then a fixed number of spring-relaxation
// iterations closes rings and resolves overlaps. The same SMILES always
// yields the same coordinates.
func Layout(m *Mol) []Point {
	n := len(m.Atoms)
	pos := make([]Point, n)
	placed := make([]bool, n)

	componentOffset := 0.0
	for root := 0; root < n; root++ {
		if placed[root] {
			continue
		}
		pos[root] = Point{X: componentOffset, Y: 0}
		placed[root] = true
		placeTree(m, root, 0, 0, pos, placed)

		// Next fragment starts to the right of this one.
		maxX := componentOffset
		for i := 0; i < n; i++ {
			if placed[i] && pos[i].X > maxX {
				maxX = pos[i].X
			}
		}
		componentOffset = maxX + 3.0
	}

	relax(m, pos)
	return pos
}

// placeTree walks the spanning tree from atom cur, placing each unplaced
// neighbor at unit distance. The first child continues the chain with the
// usual ±30-degree zigzag; further children fan out at wider angles.
func placeTree(m *Mol, cur int, inAngle float64, depth int, pos []Point, placed []bool) {
	// Zigzag: even depths bend up, odd depths bend down.
	base := math.Pi / 6
	if depth%2 == 1 {
		base = -base
	}
	offsets := []float64{base, -base, math.Pi / 2, -math.Pi / 2, 5 * math.Pi / 6, -5 * math.Pi / 6}

	childIdx := 0
	for _, next := range m.Neighbors(cur) {
		if placed[next] {
			continue
		}
		off := offsets[childIdx%len(offsets)]
		angle := inAngle + off
		pos[next] = Point{
			X: pos[cur].X + math.Cos(angle),
			Y: pos[cur].Y + math.Sin(angle),
		}
		placed[next] = true
		placeTree(m, next, angle, depth+1, pos, placed)
		childIdx++
	}
}

// relax runs a fixed number of force iterations: bonds act as unit-length
// springs and nearby non-bonded atoms repel.
func relax(m *Mol, pos []Point) {
	n := len(pos)
	if n < 2 {
		return
	}
	bonded := make(map[[2]int]bool, len(m.Bonds))
	for _, b := range m.Bonds {
		a, c := b.A, b.B
		if a > c {
			a, c = c, a
		}
		bonded[[2]int{a, c}] = true
	}

	force := make([]Point, n)
	for it := 0; it < layoutIterations; it++ {
		for i := range force {
			force[i] = Point{}
		}

		for _, b := range m.Bonds {
			dx := pos[b.B].X - pos[b.A].X
			dy := pos[b.B].Y - pos[b.A].Y
			d := math.Hypot(dx, dy)
			if d < 1e-9 {
				// Coincident endpoints: split them apart deterministically.
				dx, dy, d = 1e-3*float64(b.A+1), 1e-3*float64(b.B+1), 1e-3
			}
			f := springConstant * (d - 1.0)
			fx, fy := f*dx/d, f*dy/d
			force[b.A].X += fx
			force[b.A].Y += fy
			force[b.B].X -= fx
			force[b.B].Y -= fy
		}

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if bonded[[2]int{i, j}] {
					continue
				}
				dx := pos[j].X - pos[i].X
				dy := pos[j].Y - pos[i].Y
				d := math.Hypot(dx, dy)
				if d >= repulsionRadius {
					continue
				}
				if d < 1e-9 {
					dx, dy, d = 1e-3*float64(i+1), 1e-3*float64(j+1), 1e-3
				}
				f := repulsionConstant * (repulsionRadius - d)
				fx, fy := f*dx/d, f*dy/d
				force[i].X -= fx
				force[i].Y -= fy
				force[j].X += fx
				force[j].Y += fy
			}
		}

		for i := 0; i < n; i++ {
			pos[i].X += force[i].X
			pos[i].Y += force[i].Y
		}
	}
}

// Bounds returns the min and max corners of the coordinate set, expanded by
// pad on all sides.
func Bounds(pts []Point, pad float64) (min, max Point) {
	if len(pts) == 0 {
		return Point{}, Point{}
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	min.X -= pad
	min.Y -= pad
	max.X += pad
	max.Y += pad
	return min, max
}
