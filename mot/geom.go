package mot

import (
	"image"
)

// Rectangle is an axis-aligned bounding box in pixel coordinates.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

func NewRect(x, y, width, height int) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      rect.Min.X,
		Y:      rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
	}
}

// ToImage converts rectangle to image.Rectangle (Min is top-left corner, Max is bottom-right one)
func (r Rectangle) ToImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// AreAlmostSimilar reports whether two boxes are considered the same physical object.
// Every one of x, y, width and height must differ by strictly less than tolerance.
func AreAlmostSimilar(r1, r2 Rectangle, tolerance int) bool {
	return absInt(r1.X-r2.X) < tolerance &&
		absInt(r1.Y-r2.Y) < tolerance &&
		absInt(r1.Width-r2.Width) < tolerance &&
		absInt(r1.Height-r2.Height) < tolerance
}

// manhattanDistance sums absolute differences of all four box fields
func manhattanDistance(r1, r2 Rectangle) int {
	return absInt(r1.X-r2.X) + absInt(r1.Y-r2.Y) + absInt(r1.Width-r2.Width) + absInt(r1.Height-r2.Height)
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
