package crop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// OverlayColor is the stroke color used to mark the input box.
var OverlayColor = color.RGBA{R: 255, G: 255, A: 255}

// DefaultOverlayThickness is the stroke width Crop uses.
const DefaultOverlayThickness = 2

// DefaultInputSize is the side of the square image the regressor consumes.
const DefaultInputSize = 224

// Window returns the expanded crop window for box, in the coordinate space of
// the box.
//
// The window is centred on the box, sized from half the longer box side
// (tsize) and expanded per side by the profile factors. Coordinates are rounded
// half to even.
func Window(box Box, profile Profile) (image.Rectangle, error) {
	w, h := box.Width(), box.Height()

	cx := box.Left + math.Trunc(w/2)
	cy := box.Top + math.Trunc(h/2)
	tsize := math.Trunc(math.Max(w, h) / 2)

	win := image.Rectangle{
		Min: image.Point{
			X: int(math.RoundToEven(cx - profile[0]*tsize)),
			Y: int(math.RoundToEven(cy - profile[1]*tsize)),
		},
		Max: image.Point{
			X: int(math.RoundToEven(cx + profile[2]*tsize)),
			Y: int(math.RoundToEven(cy + profile[3]*tsize)),
		},
	}

	if win.Dx() <= 0 || win.Dy() <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d window for box %v", ErrDegenerateCrop, win.Dx(), win.Dy(), box)
	}
	return win, nil
}

// Options controls CropWith.
type Options struct {
	Profile Profile
	// Overlay receives the unexpanded box outline. Nil skips drawing.
	Overlay draw.Image
	// OverlayThickness is the stroke width in pixels; 0 draws nothing.
	OverlayThickness int
}

// Crop cuts the expanded window around box out of src. Parts of the window
// outside src are black. When overlay is non-nil the unexpanded box is drawn
// onto it with the default stroke.
func Crop(src image.Image, box Box, overlay draw.Image, profile Profile) (*image.RGBA, error) {
	return CropWith(src, box, Options{
		Profile:          profile,
		Overlay:          overlay,
		OverlayThickness: DefaultOverlayThickness,
	})
}

// CropWith is Crop with an explicit overlay stroke.
func CropWith(src image.Image, box Box, opts Options) (*image.RGBA, error) {
	if opts.Overlay != nil {
		DrawBox(opts.Overlay, box.Rectangle(), OverlayColor, opts.OverlayThickness)
	}

	win, err := Window(box, opts.Profile)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, win.Dx(), win.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	visible := win.Intersect(src.Bounds())
	if !visible.Empty() {
		draw.Draw(dst, visible.Sub(win.Min), src, visible.Min, draw.Src)
	}

	return dst, nil
}

// CropByFaceDet crops around a face detector result.
func CropByFaceDet(src image.Image, det Rectangler, overlay draw.Image) (*image.RGBA, error) {
	return Crop(src, FromDetection(det), overlay, DetectorProfile)
}

// CropByLM crops around the landmarks of a shape predictor result.
func CropByLM(src image.Image, shape Shape, overlay draw.Image) (*image.RGBA, error) {
	box, err := FromShape(shape)
	if err != nil {
		return nil, err
	}
	return Crop(src, box, overlay, LandmarkProfile)
}

// CropByInputLM crops around landmarks supplied as plain coordinates.
func CropByInputLM(src image.Image, points [][2]float64, overlay draw.Image) (*image.RGBA, error) {
	box, err := FromLandmarks(points)
	if err != nil {
		return nil, err
	}
	return Crop(src, box, overlay, LandmarkProfile)
}

// DrawBox strokes the outline of r onto dst. The stroke is centred on the
// rectangle edges and clipped to dst.
func DrawBox(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness <= 0 {
		return
	}
	lo := thickness / 2
	hi := thickness - lo - 1

	outer := image.Rectangle{
		Min: image.Point{X: r.Min.X - lo, Y: r.Min.Y - lo},
		Max: image.Point{X: r.Max.X + hi + 1, Y: r.Max.Y + hi + 1},
	}
	inner := image.Rectangle{
		Min: image.Point{X: r.Min.X + hi + 1, Y: r.Min.Y + hi + 1},
		Max: image.Point{X: r.Max.X - lo, Y: r.Max.Y - lo},
	}

	fill := image.NewUniform(c)
	if inner.Empty() {
		draw.Draw(dst, outer, fill, image.Point{}, draw.Src)
		return
	}

	bands := []image.Rectangle{
		{Min: outer.Min, Max: image.Point{X: outer.Max.X, Y: inner.Min.Y}},
		{Min: image.Point{X: outer.Min.X, Y: inner.Max.Y}, Max: outer.Max},
		{Min: image.Point{X: outer.Min.X, Y: inner.Min.Y}, Max: image.Point{X: inner.Min.X, Y: inner.Max.Y}},
		{Min: image.Point{X: inner.Max.X, Y: inner.Min.Y}, Max: image.Point{X: outer.Max.X, Y: inner.Max.Y}},
	}
	for _, b := range bands {
		draw.Draw(dst, b, fill, image.Point{}, draw.Src)
	}
}

// Resize scales img to a size x size square with Catmull-Rom interpolation.
func Resize(img image.Image, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid resize target %d", size)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}
