// Package imaging prepares scanned page images for OCR: grayscale
// conversion, Otsu binarization, median denoising, and deskewing. It also
// detects ruling lines, which feed lattice table detection downstream.
package imaging

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	// Register decoders for every supported input format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// Options tunes the preprocessing pipeline.
type Options struct {
	// MaxSkewDegrees bounds the deskew search. Pages rotated further than
	// this are left alone rather than guessed at.
	MaxSkewDegrees float64
	// SkewStepDegrees is the angle sweep resolution.
	SkewStepDegrees float64
	// MinSkewDegrees is the smallest angle worth correcting.
	MinSkewDegrees float64
	// HRuleFraction is the minimum dark-run width, as a fraction of page
	// width, for a horizontal ruling line. VRuleFraction likewise for height.
	HRuleFraction float64
	VRuleFraction float64
}

// DefaultOptions returns the preprocessing defaults.
func DefaultOptions() Options {
	return Options{
		MaxSkewDegrees:  5.0,
		SkewStepDegrees: 0.5,
		MinSkewDegrees:  1.0,
		HRuleFraction:   0.4,
		VRuleFraction:   0.3,
	}
}

// Decode reads and decodes an image file.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Clean runs the full preprocessing pipeline on the image at path and writes
// the result as a PNG into workDir. It returns the cleaned image path and
// the ruling lines detected on the cleaned page.
func Clean(path, workDir string, opts Options) (string, []docmodel.Rule, error) {
	img, err := Decode(path)
	if err != nil {
		return "", nil, err
	}

	gray := Grayscale(img)
	bin := Binarize(gray, OtsuThreshold(gray))
	bin = Denoise(bin)

	if angle := DetectSkew(bin, opts); math.Abs(angle) >= opts.MinSkewDegrees {
		bin = Rotate(bin, angle)
	}

	rules := DetectRules(bin, opts)

	// The extension stays in the output stem: workDir is shared across
	// documents, and same-stem inputs (a.png, a.jpg) must not clean to the
	// same file.
	base := strings.ReplaceAll(filepath.Base(path), ".", "_")
	outPath := filepath.Join(workDir, base+"_clean.png")
	out, err := os.Create(outPath)
	if err != nil {
		return "", nil, fmt.Errorf("create cleaned image: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, bin); err != nil {
		return "", nil, fmt.Errorf("encode cleaned image: %w", err)
	}
	return outPath, rules, nil
}

// Grayscale converts any image to 8-bit grayscale.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// OtsuThreshold computes the binarization threshold that minimizes
// intra-class variance over the grayscale histogram.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	threshold := uint8(128)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize maps pixels at or below the threshold to black and the rest to white.
func Binarize(g *image.Gray, threshold uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v <= threshold {
				dst[x] = 0
			} else {
				dst[x] = 255
			}
		}
	}
	return out
}

// Denoise applies a 3x3 median filter, which knocks out salt-and-pepper
// speckle without eroding glyph strokes on binary images.
func Denoise(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)

	var window [9]uint8
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				row := g.Pix[(y+dy)*g.Stride:]
				window[i] = row[x-1]
				window[i+1] = row[x]
				window[i+2] = row[x+1]
				i += 3
			}
			// Median of a binary window is whichever value holds the majority.
			dark := 0
			for _, v := range window {
				if v == 0 {
					dark++
				}
			}
			if dark >= 5 {
				out.Pix[y*out.Stride+x] = 0
			} else {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// DetectSkew estimates the page rotation in degrees using a projection
// profile: the angle whose horizontal projection has the highest variance is
// the one that lines the text rows up.
func DetectSkew(bin *image.Gray, opts Options) float64 {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	// Sample dark pixels with a stride so large pages stay cheap.
	stride := 1
	if w*h > 1<<21 {
		stride = 2
	}
	type pt struct{ x, y int }
	var pts []pt
	for y := 0; y < h; y += stride {
		row := bin.Pix[y*bin.Stride : y*bin.Stride+w]
		for x := 0; x < w; x += stride {
			if row[x] == 0 {
				pts = append(pts, pt{x, y})
			}
		}
	}
	if len(pts) < 64 {
		return 0
	}

	bestAngle, bestScore := 0.0, -1.0
	for a := -opts.MaxSkewDegrees; a <= opts.MaxSkewDegrees+1e-9; a += opts.SkewStepDegrees {
		rad := a * math.Pi / 180
		sin, cos := math.Sin(rad), math.Cos(rad)

		counts := make([]int, h+w)
		for _, p := range pts {
			r := int(float64(p.y)*cos - float64(p.x)*sin)
			r += w // offset keeps indices non-negative for any sweep angle
			if r >= 0 && r < len(counts) {
				counts[r]++
			}
		}

		var score float64
		for _, c := range counts {
			score += float64(c) * float64(c)
		}
		if score > bestScore {
			bestScore = score
			bestAngle = a
		}
	}
	return bestAngle
}

// Rotate rotates a grayscale image around its center by angle degrees,
// filling the uncovered corners with white.
func Rotate(g *image.Gray, angle float64) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for i := range out.Pix {
		out.Pix[i] = 255
	}

	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2

	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(out, m, g, b, draw.Src, nil)

	// Re-binarize: interpolation introduces gray edges.
	return Binarize(out, 128)
}

// DetectRules finds long horizontal and vertical runs of dark pixels, which
// are the ruling lines of boxed (lattice) tables.
func DetectRules(bin *image.Gray, opts Options) []docmodel.Rule {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	var rules []docmodel.Rule

	minH := int(opts.HRuleFraction * float64(w))
	prevRow := -10
	for y := 0; y < h; y++ {
		row := bin.Pix[y*bin.Stride : y*bin.Stride+w]
		start, best, bestStart, run := -1, 0, 0, 0
		for x := 0; x <= w; x++ {
			if x < w && row[x] == 0 {
				if run == 0 {
					start = x
				}
				run++
			} else {
				if run > best {
					best, bestStart = run, start
				}
				run = 0
			}
		}
		if best >= minH && minH > 0 {
			if y-prevRow > 2 { // adjacent rows belong to the same thick line
				rules = append(rules, docmodel.Rule{
					Horizontal: true,
					X1:         float64(bestStart), Y1: float64(y),
					X2: float64(bestStart + best), Y2: float64(y),
				})
			}
			prevRow = y
		}
	}

	minV := int(opts.VRuleFraction * float64(h))
	prevCol := -10
	for x := 0; x < w; x++ {
		start, best, bestStart, run := -1, 0, 0, 0
		for y := 0; y <= h; y++ {
			if y < h && bin.Pix[y*bin.Stride+x] == 0 {
				if run == 0 {
					start = y
				}
				run++
			} else {
				if run > best {
					best, bestStart = run, start
				}
				run = 0
			}
		}
		if best >= minV && minV > 0 {
			if x-prevCol > 2 {
				rules = append(rules, docmodel.Rule{
					Horizontal: false,
					X1:         float64(x), Y1: float64(bestStart),
					X2: float64(x), Y2: float64(bestStart + best),
				})
			}
			prevCol = x
		}
	}
	return rules
}
