package imaging

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// whitePage returns a w x h all-white grayscale image.
func whitePage(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

func setDark(g *image.Gray, x, y int) {
	g.Pix[y*g.Stride+x] = 0
}

func TestOtsuThreshold_SeparatesBimodal(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 30
		} else {
			g.Pix[i] = 220
		}
	}
	th := OtsuThreshold(g)
	if th < 30 || th >= 220 {
		t.Errorf("threshold %d does not separate the modes", th)
	}
}

func TestBinarize(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 1))
	g.Pix[0], g.Pix[1], g.Pix[2] = 10, 128, 200
	out := Binarize(g, 128)
	if out.Pix[0] != 0 || out.Pix[1] != 0 || out.Pix[2] != 255 {
		t.Errorf("got %v", out.Pix[:3])
	}
}

func TestDenoise_RemovesLoneSpeck(t *testing.T) {
	g := whitePage(9, 9)
	setDark(g, 4, 4)
	out := Denoise(g)
	if out.Pix[4*out.Stride+4] != 255 {
		t.Error("expected lone dark pixel to be removed")
	}
}

func TestDenoise_KeepsSolidStroke(t *testing.T) {
	g := whitePage(9, 9)
	for y := 2; y <= 6; y++ {
		for x := 2; x <= 6; x++ {
			setDark(g, x, y)
		}
	}
	out := Denoise(g)
	if out.Pix[4*out.Stride+4] != 0 {
		t.Error("expected stroke interior to survive")
	}
}

func TestDetectSkew_StraightPageIsZero(t *testing.T) {
	g := whitePage(200, 200)
	// Horizontal text-like rows of dark pixels.
	for _, y := range []int{50, 100, 150} {
		for x := 20; x < 180; x++ {
			setDark(g, x, y)
		}
	}
	angle := DetectSkew(g, DefaultOptions())
	if angle < -0.01 || angle > 0.01 {
		t.Errorf("expected ~0 skew, got %v", angle)
	}
}

func TestDetectSkew_TooFewPixels(t *testing.T) {
	g := whitePage(100, 100)
	setDark(g, 10, 10)
	if angle := DetectSkew(g, DefaultOptions()); angle != 0 {
		t.Errorf("expected 0 for near-blank page, got %v", angle)
	}
}

func TestRotate_KeepsBounds(t *testing.T) {
	g := whitePage(50, 30)
	out := Rotate(g, 3)
	if out.Bounds() != g.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestDetectRules_FindsGridLines(t *testing.T) {
	g := whitePage(100, 100)
	for x := 0; x < 100; x++ {
		setDark(g, x, 20)
		setDark(g, x, 60)
	}
	for y := 0; y < 100; y++ {
		setDark(g, 30, y)
		setDark(g, 70, y)
	}
	rules := DetectRules(g, DefaultOptions())

	var hs, vs int
	for _, r := range rules {
		if r.Horizontal {
			hs++
		} else {
			vs++
		}
	}
	if hs != 2 || vs != 2 {
		t.Errorf("expected 2 horizontal and 2 vertical rules, got %d and %d", hs, vs)
	}
}

func TestDetectRules_MergesThickLines(t *testing.T) {
	g := whitePage(100, 50)
	// A 3px thick horizontal line counts once.
	for y := 20; y <= 22; y++ {
		for x := 0; x < 100; x++ {
			setDark(g, x, y)
		}
	}
	rules := DetectRules(g, DefaultOptions())
	hs := 0
	for _, r := range rules {
		if r.Horizontal {
			hs++
		}
	}
	if hs != 1 {
		t.Errorf("expected 1 merged horizontal rule, got %d", hs)
	}
}

func TestClean_WritesPNGAndReportsRules(t *testing.T) {
	dir := t.TempDir()

	// Lines are 2px thick so the denoise pass keeps them.
	src := whitePage(120, 120)
	for x := 0; x < 120; x++ {
		for _, y := range []int{30, 31, 90, 91} {
			setDark(src, x, y)
		}
	}
	for y := 0; y < 120; y++ {
		for _, x := range []int{40, 41, 80, 81} {
			setDark(src, x, y)
		}
	}
	in := filepath.Join(dir, "page.png")
	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, rules, err := Clean(in, dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if filepath.Base(out) != "page_png_clean.png" {
		t.Errorf("unexpected output name %s", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("cleaned image missing: %v", err)
	}
	if len(rules) != 4 {
		t.Errorf("expected 4 rules, got %d", len(rules))
	}

	img, err := Decode(out)
	if err != nil {
		t.Fatalf("decode cleaned image: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 120 {
		t.Errorf("unexpected cleaned bounds %v", img.Bounds())
	}
}

// Same-stem inputs share the work directory, so their cleaned images must
// not land on the same path.
func TestClean_SameStemDifferentExtension(t *testing.T) {
	dir := t.TempDir()

	src := whitePage(40, 40)
	pngPath := filepath.Join(dir, "a.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	jpgPath := filepath.Join(dir, "a.jpg")
	f, err = os.Create(jpgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, src, nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	outPNG, _, err := Clean(pngPath, dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean png: %v", err)
	}
	outJPG, _, err := Clean(jpgPath, dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean jpg: %v", err)
	}
	if outPNG == outJPG {
		t.Fatalf("same-stem documents cleaned to the same path %s", outPNG)
	}
}
