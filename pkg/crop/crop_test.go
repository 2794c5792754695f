package crop

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

// createTestImage returns a w x h image whose pixel (x, y) is (x, y, 7).
func createTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

var black = color.RGBA{A: 255}

func TestCrop_UnitProfileSize(t *testing.T) {
	src := createTestImage(100, 100)

	out, err := Crop(src, FromCorners(10, 10, 30, 50), nil, UnitProfile)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	// tsize = max(20, 40)/2 = 20, window is 2*tsize on each axis.
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 40 {
		t.Fatalf("expected 40x40 crop, got %v", out.Bounds())
	}

	// Window is (0,10)-(40,50), fully inside the source.
	for _, p := range []image.Point{{0, 0}, {39, 39}, {12, 31}} {
		want := src.RGBAAt(p.X, p.Y+10)
		if got := out.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v: got %v, want %v", p, got, want)
		}
	}
}

func TestCrop_PadsOutsideSource(t *testing.T) {
	src := createTestImage(100, 100)

	// Window (90,-10)-(110,10) hangs over the top-right corner.
	out, err := Crop(src, FromCorners(90, -10, 110, 10), nil, UnitProfile)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 20 {
		t.Fatalf("expected 20x20 crop, got %v", out.Bounds())
	}

	tests := []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Point{0, 10}, src.RGBAAt(90, 0)},
		{image.Point{9, 19}, src.RGBAAt(99, 9)},
		{image.Point{5, 5}, black},   // above the image
		{image.Point{15, 15}, black}, // right of the image
		{image.Point{19, 0}, black},  // both
	}
	for _, tt := range tests {
		if got := out.RGBAAt(tt.p.X, tt.p.Y); got != tt.want {
			t.Errorf("pixel %v: got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCrop_WindowOutsideSource(t *testing.T) {
	src := createTestImage(50, 50)

	out, err := Crop(src, FromCorners(200, 200, 220, 220), nil, DetectorProfile)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := out.RGBAAt(x, y); got != black {
				t.Fatalf("pixel (%d,%d): got %v, want black", x, y, got)
			}
		}
	}
}

func TestCrop_SubImageCoordinates(t *testing.T) {
	src := createTestImage(100, 100).SubImage(image.Rect(50, 50, 100, 100))

	out, err := Crop(src, FromCorners(60, 60, 70, 70), nil, UnitProfile)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	want := color.RGBA{R: 60, G: 60, B: 7, A: 255}
	if got := out.RGBAAt(0, 0); got != want {
		t.Errorf("pixel (0,0): got %v, want %v", got, want)
	}
}

func TestCrop_Degenerate(t *testing.T) {
	src := createTestImage(20, 20)

	tests := []struct {
		name string
		box  Box
	}{
		{"point", FromCorners(10, 10, 10, 10)},
		{"one pixel", FromCorners(10, 10, 11, 11)},
		{"inverted", FromCorners(30, 50, 10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(src, tt.box, nil, UnitProfile)
			if !errors.Is(err, ErrDegenerateCrop) {
				t.Errorf("expected ErrDegenerateCrop, got %v", err)
			}
		})
	}
}

func TestWindow_RoundsHalfToEven(t *testing.T) {
	// cx = 10, tsize = 5; 10 - 0.5*5 = 7.5 -> 8, 10 + 0.5*5 = 12.5 -> 12.
	win, err := Window(FromCorners(5, 5, 15, 15), Profile{0.5, 0.5, 0.5, 0.5})
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	want := image.Rect(8, 8, 12, 12)
	if win != want {
		t.Errorf("got %v, want %v", win, want)
	}
}

func TestWindow_DetectorProfile(t *testing.T) {
	// cx = cy = 95, tsize = 5.
	win, err := Window(FromCorners(90, 90, 100, 100), DetectorProfile)
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	want := image.Rect(86, 85, 104, 103)
	if win != want {
		t.Errorf("got %v, want %v", win, want)
	}
}

func TestCrop_DrawsOriginalBoxOnOverlay(t *testing.T) {
	src := createTestImage(100, 100)
	overlay := image.NewRGBA(image.Rect(0, 0, 100, 100))

	if _, err := Crop(src, FromCorners(10, 10, 30, 50), overlay, DetectorProfile); err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	stroked := []image.Point{{9, 20}, {10, 20}, {29, 20}, {30, 20}, {20, 9}, {20, 10}, {20, 49}, {20, 50}, {9, 9}, {30, 50}}
	for _, p := range stroked {
		if got := overlay.RGBAAt(p.X, p.Y); got != OverlayColor {
			t.Errorf("pixel %v: got %v, want overlay color", p, got)
		}
	}

	clear := []image.Point{{8, 20}, {11, 20}, {28, 20}, {31, 20}, {20, 30}, {0, 0}}
	for _, p := range clear {
		if got := overlay.RGBAAt(p.X, p.Y); got == OverlayColor {
			t.Errorf("pixel %v should not be stroked", p)
		}
	}
}

func TestCropWith_OverlayThickness(t *testing.T) {
	src := createTestImage(100, 100)
	box := FromCorners(30, 30, 60, 70)

	tests := []struct {
		name      string
		thickness int
		stroked   []image.Point
		clear     []image.Point
	}{
		{"none", 0, nil, []image.Point{{30, 50}, {29, 50}}},
		{"one", 1, []image.Point{{30, 50}}, []image.Point{{29, 50}, {31, 50}}},
		{"four", 4, []image.Point{{28, 50}, {31, 50}}, []image.Point{{27, 50}, {32, 50}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlay := image.NewRGBA(src.Bounds())
			out, err := CropWith(src, box, Options{Profile: UnitProfile, Overlay: overlay, OverlayThickness: tt.thickness})
			if err != nil {
				t.Fatalf("CropWith failed: %v", err)
			}
			if win, _ := Window(box, UnitProfile); out.Bounds().Size() != win.Size() {
				t.Errorf("crop size %v, want %v", out.Bounds().Size(), win.Size())
			}
			for _, p := range tt.stroked {
				if got := overlay.RGBAAt(p.X, p.Y); got != OverlayColor {
					t.Errorf("pixel %v: got %v, want overlay color", p, got)
				}
			}
			for _, p := range tt.clear {
				if got := overlay.RGBAAt(p.X, p.Y); got == OverlayColor {
					t.Errorf("pixel %v should not be stroked", p)
				}
			}
		})
	}
}

func TestToRGBA_Copies(t *testing.T) {
	src := createTestImage(20, 20)
	cp := ToRGBA(src)
	if cp == src {
		t.Fatal("ToRGBA returned its input")
	}
	if cp.Bounds() != src.Bounds() || cp.RGBAAt(3, 4) != src.RGBAAt(3, 4) {
		t.Fatal("copy does not match source")
	}

	before := src.RGBAAt(5, 5)
	DrawBox(cp, image.Rect(5, 5, 10, 10), OverlayColor, DefaultOverlayThickness)
	if src.RGBAAt(5, 5) != before {
		t.Error("drawing on the copy modified the source")
	}

	sub := src.SubImage(image.Rect(10, 10, 20, 20))
	if got := ToRGBA(sub); got.Bounds() != sub.Bounds() || got.RGBAAt(12, 12) != src.RGBAAt(12, 12) {
		t.Errorf("sub-image copy mismatch: bounds %v", got.Bounds())
	}
}

func TestCrop_DoesNotModifySource(t *testing.T) {
	src := createTestImage(40, 40)
	before := src.RGBAAt(10, 10)

	if _, err := Crop(src, FromCorners(5, 5, 20, 20), nil, LandmarkProfile); err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if src.RGBAAt(10, 10) != before {
		t.Error("source image was modified")
	}
}

func TestDrawBox_ClipsToImage(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	DrawBox(dst, image.Rect(-5, -5, 50, 50), OverlayColor, 2)
	DrawBox(dst, image.Rect(2, 2, 3, 3), OverlayColor, 4)

	if dst.RGBAAt(2, 2) != OverlayColor {
		t.Error("small box should be filled")
	}
	if dst.RGBAAt(8, 8) == OverlayColor {
		t.Error("pixel outside both boxes should be untouched")
	}
}

func TestResize(t *testing.T) {
	src := createTestImage(40, 40)

	out, err := Resize(src, DefaultInputSize)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, DefaultInputSize, DefaultInputSize) {
		t.Errorf("got bounds %v", out.Bounds())
	}

	if _, err := Resize(src, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	src := createTestImage(16, 8)
	dir := t.TempDir()

	for _, name := range []string{"crop.png", "crop.bmp"} {
		path := filepath.Join(dir, name)
		if err := SaveImage(path, src); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", name, err)
		}

		img, err := LoadRGBA(path)
		if err != nil {
			t.Fatalf("LoadRGBA(%s) failed: %v", name, err)
		}
		if img.Bounds() != src.Bounds() {
			t.Errorf("%s: bounds %v, want %v", name, img.Bounds(), src.Bounds())
		}
		if got, want := img.RGBAAt(5, 3), src.RGBAAt(5, 3); got != want {
			t.Errorf("%s: pixel (5,3) = %v, want %v", name, got, want)
		}
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
