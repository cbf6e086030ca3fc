// Package geom holds the rectangle arithmetic used by interactive move and
// resize.
package geom

// Point is a position in root window coordinates.
type Point struct {
	X, Y int
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is a window geometry as reported by the server: the position of the
// outer edge, the interior size, and the border width drawn around it.
type Rect struct {
	X, Y          int
	Width, Height int
	Border        int
}

// FullWidth is the width including both borders.
func (r Rect) FullWidth() int { return r.Width + 2*r.Border }

// FullHeight is the height including both borders.
func (r Rect) FullHeight() int { return r.Height + 2*r.Border }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Contains reports whether p lies on or inside the outer edge.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.FullWidth() &&
		p.Y >= r.Y && p.Y <= r.Y+r.FullHeight()
}

// Quadrant names one quarter of a rectangle.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// Quadrant classifies p against the midpoints of r. A coordinate exactly on a
// midpoint belongs to the left/top side. ok is false when p is outside r.
func (r Rect) Quadrant(p Point) (q Quadrant, ok bool) {
	if !r.Contains(p) {
		return 0, false
	}
	right := p.X > r.X+r.FullWidth()/2
	bottom := p.Y > r.Y+r.FullHeight()/2
	switch {
	case right && bottom:
		return BottomRight, true
	case right:
		return TopRight, true
	case bottom:
		return BottomLeft, true
	default:
		return TopLeft, true
	}
}

// Moved returns r translated by delta.
func (r Rect) Moved(delta Point) Rect {
	r.X += delta.X
	r.Y += delta.Y
	return r
}

// Resized grows or shrinks r by delta from the corner in quadrant q. The
// opposite corner stays where it was and neither dimension drops below 1.
func (r Rect) Resized(q Quadrant, delta Point) Rect {
	out := r
	left := q == TopLeft || q == BottomLeft
	top := q == TopLeft || q == TopRight

	if left {
		out.Width = r.Width - delta.X
	} else {
		out.Width = r.Width + delta.X
	}
	if top {
		out.Height = r.Height - delta.Y
	} else {
		out.Height = r.Height + delta.Y
	}
	out.Width = max(out.Width, 1)
	out.Height = max(out.Height, 1)

	// Pin the far edge when the moving edge is on the left or top.
	if left {
		out.X = r.X + r.Width - out.Width
	}
	if top {
		out.Y = r.Y + r.Height - out.Height
	}
	return out
}
