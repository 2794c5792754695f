// Package crop prepares face crops for the parameter regressor.
//
// Every input shape (raw corners, a detector rectangle, a landmark set) is
// converted once into a Box; Crop then expands the box by a rescale Profile and
// cuts the window out of the source image, padding with black where the window
// leaves the image.
package crop

import (
	"errors"
	"image"
	"math"
)

// Crop errors.
var (
	ErrDegenerateCrop = errors.New("degenerate crop window")
	ErrNoLandmarks    = errors.New("no landmarks")
)

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	Left, Top, Right, Bottom float64
}

// Width returns Right - Left.
func (b Box) Width() float64 {
	return b.Right - b.Left
}

// Height returns Bottom - Top.
func (b Box) Height() float64 {
	return b.Bottom - b.Top
}

// Rectangle returns the box with coordinates truncated to integers.
func (b Box) Rectangle() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: int(b.Left), Y: int(b.Top)},
		Max: image.Point{X: int(b.Right), Y: int(b.Bottom)},
	}
}

// FromCorners builds a box from its top-left and bottom-right corners.
func FromCorners(tlx, tly, brx, bry float64) Box {
	return Box{Left: tlx, Top: tly, Right: brx, Bottom: bry}
}

// Rectangler is a face detector result exposing its edges, such as a dlib rectangle.
type Rectangler interface {
	Left() int
	Top() int
	Right() int
	Bottom() int
}

// FromDetection builds a box from a detector result.
func FromDetection(d Rectangler) Box {
	return Box{
		Left:   float64(d.Left()),
		Top:    float64(d.Top()),
		Right:  float64(d.Right()),
		Bottom: float64(d.Bottom()),
	}
}

// FromRectangle builds a box from an image.Rectangle, the form most Go face
// detectors return.
func FromRectangle(r image.Rectangle) Box {
	return Box{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Right:  float64(r.Max.X),
		Bottom: float64(r.Max.Y),
	}
}

// Shape is a landmark predictor result exposing indexed 2D points.
type Shape interface {
	NumParts() int
	Part(i int) image.Point
}

// FromShape returns the envelope of a landmark predictor result.
func FromShape(s Shape) (Box, error) {
	n := s.NumParts()
	if n == 0 {
		return Box{}, ErrNoLandmarks
	}

	points := make([][2]float64, n)
	for i := range points {
		p := s.Part(i)
		points[i] = [2]float64{float64(p.X), float64(p.Y)}
	}
	return FromLandmarks(points)
}

// FromLandmarks returns the min/max envelope of a set of 2D points.
func FromLandmarks(points [][2]float64) (Box, error) {
	if len(points) == 0 {
		return Box{}, ErrNoLandmarks
	}

	b := Box{
		Left:   math.Inf(1),
		Top:    math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(-1),
	}
	for _, p := range points {
		b.Left = math.Min(b.Left, p[0])
		b.Top = math.Min(b.Top, p[1])
		b.Right = math.Max(b.Right, p[0])
		b.Bottom = math.Max(b.Bottom, p[1])
	}
	return b, nil
}

// Points is a Shape over a plain point slice.
type Points []image.Point

// NumParts returns the number of points.
func (p Points) NumParts() int { return len(p) }

// Part returns point i.
func (p Points) Part(i int) image.Point { return p[i] }
