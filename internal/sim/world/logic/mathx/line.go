package mathx

// Line is a directed segment from Start to End.
type Line struct {
	Start Vector
	End   Vector
}

func Ln(x1, y1, x2, y2 float32) Line {
	return Line{Start: Vector{X: x1, Y: y1}, End: Vector{X: x2, Y: y2}}
}

const intersectEps = 1e-5

func (l Line) Dir() Vector { return l.End.Sub(l.Start) }

// PointAt returns Start + t*(End-Start).
func (l Line) PointAt(t float32) Vector { return l.Start.Add(l.Dir().Scale(t)) }

// YAt interpolates the line's y at x. Vertical lines return Start.Y.
func (l Line) YAt(x float32) float32 {
	dx := l.End.X - l.Start.X
	if dx == 0 {
		return l.Start.Y
	}
	return l.Start.Y + (x-l.Start.X)*(l.End.Y-l.Start.Y)/dx
}

// Intersect finds where l crosses o. t is the parameter along l (0 at Start,
// 1 at End). Parallel and collinear segments never intersect.
func (l Line) Intersect(o Line) (pt Vector, t float32, ok bool) {
	r := l.Dir()
	s := o.Dir()
	denom := r.Cross(s)
	if denom == 0 {
		return Vector{}, 0, false
	}
	qp := o.Start.Sub(l.Start)
	t = qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < -intersectEps || t > 1+intersectEps || u < -intersectEps || u > 1+intersectEps {
		return Vector{}, 0, false
	}
	t = Clamp(t, 0, 1)
	return l.PointAt(t), t, true
}
