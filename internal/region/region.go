// Package region defines the screen-space rectangle type that confinement
// operates on.
//
// A Rect is an axis-aligned rectangle in virtual-screen coordinates using
// the Win32 convention: Left/Top inclusive, Right/Bottom exclusive. A Rect
// with Right <= Left or Bottom <= Top is degenerate and must never be handed
// to the clip primitive; callers gate on Valid before applying.
package region

// Point is a position in virtual-screen coordinates.
type Point struct {
	X int32
	Y int32
}

// Rect is an axis-aligned screen-space rectangle.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Valid reports whether the rectangle has positive width and height.
func (r Rect) Valid() bool {
	return r.Right > r.Left && r.Bottom > r.Top
}

// Width returns the rectangle width. Negative for degenerate rectangles.
func (r Rect) Width() int32 {
	return r.Right - r.Left
}

// Height returns the rectangle height. Negative for degenerate rectangles.
func (r Rect) Height() int32 {
	return r.Bottom - r.Top
}

// Area returns the rectangle area, or 0 when the rectangle is degenerate.
func (r Rect) Area() int64 {
	if !r.Valid() {
		return 0
	}
	return int64(r.Width()) * int64(r.Height())
}

// Center returns the geometric center of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: r.Left + r.Width()/2,
		Y: r.Top + r.Height()/2,
	}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// ApproxEqual reports whether every edge of r is within tol units of the
// corresponding edge of o. Used both for fullscreen detection and for
// deciding whether a confinement region changed enough to re-apply.
func (r Rect) ApproxEqual(o Rect, tol int32) bool {
	return absDiff(r.Left, o.Left) <= tol &&
		absDiff(r.Top, o.Top) <= tol &&
		absDiff(r.Right, o.Right) <= tol &&
		absDiff(r.Bottom, o.Bottom) <= tol
}

// Inflate returns a copy of r grown by n units on every side.
func (r Rect) Inflate(n int32) Rect {
	return Rect{
		Left:   r.Left - n,
		Top:    r.Top - n,
		Right:  r.Right + n,
		Bottom: r.Bottom + n,
	}
}

// Coverage returns the fraction of outer's area that r's area represents.
// Returns 0 when either rectangle is degenerate. The rectangles are not
// intersected first; this matches how fullscreen coverage is judged, where
// the window is assumed to sit on its containing monitor.
func (r Rect) Coverage(outer Rect) float64 {
	oa := outer.Area()
	if oa == 0 || !r.Valid() {
		return 0
	}
	return float64(r.Area()) / float64(oa)
}

// IsZero reports whether the rectangle is the zero value.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

func absDiff(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}
