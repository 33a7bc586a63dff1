// Package preprocess scores raw receipt image quality and generates
// preprocessed variants optimized for OCR.
//
// Preprocessing here is orchestration only: the pixel math is delegated to
// github.com/disintegration/imaging. The package never fails hard; any
// processing error degrades to returning the original buffer so a decode
// problem can never block downstream OCR.
package preprocess

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"receiptscan/internal/logger"
)

const (
	// minWidth below which the image is flagged as low resolution.
	minWidth = 800

	// minBrightness is the mean channel brightness (0-255) below which the
	// image is flagged as too dark.
	minBrightness = 100

	// targetWidth is the resolution variants are normalized to.
	targetWidth = 1600
)

// Report is the outcome of analyzing a raw image.
type Report struct {
	NeedsEnhancement bool
	Issues           []string
	SuggestedOps     []string
}

// Variant is one preprocessed rendition of the source image. Ops lists the
// operations applied, used later for result provenance.
type Variant struct {
	Name string
	Data []byte
	Ops  []string
}

// Preprocessor analyzes images and generates OCR variants.
type Preprocessor struct {
	log zerolog.Logger
}

// New creates a Preprocessor.
func New() *Preprocessor {
	return &Preprocessor{log: logger.WithComponent("preprocess")}
}

// Analyze scores the raw image. Undecodable input reports no issues; the
// variant generator degrades on its own.
func (p *Preprocessor) Analyze(data []byte) Report {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		p.log.Warn().Err(err).Msg("image decode failed during analysis")
		return Report{}
	}

	var report Report
	width := img.Bounds().Dx()
	if width < minWidth {
		report.Issues = append(report.Issues, "low_resolution")
		report.SuggestedOps = append(report.SuggestedOps, "resize")
	}
	if meanBrightness(img) < minBrightness {
		report.Issues = append(report.Issues, "too_dark")
		report.SuggestedOps = append(report.SuggestedOps, "contrast", "brightness")
	}
	report.NeedsEnhancement = len(report.Issues) > 0

	p.log.Debug().
		Int("width", width).
		Strs("issues", report.Issues).
		Msg("image quality analyzed")

	return report
}

// Variants produces the OCR candidate set: the original buffer, an enhanced
// rendition and a high-contrast grayscale rendition that recovers faded
// thermal paper. On any failure only the original is returned.
func (p *Preprocessor) Variants(data []byte) []Variant {
	original := Variant{Name: "original", Data: data, Ops: nil}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		p.log.Warn().Err(err).Msg("image decode failed, using original only")
		return []Variant{original}
	}

	variants := []Variant{original}

	if v, ok := p.encode("enhanced", p.enhance(img),
		[]string{"resize", "contrast", "sharpen", "grayscale"}); ok {
		variants = append(variants, v)
	}
	if v, ok := p.encode("high-contrast", p.highContrast(img),
		[]string{"grayscale", "linear-contrast", "sharpen"}); ok {
		variants = append(variants, v)
	}

	p.log.Debug().Int("variants", len(variants)).Msg("image variants generated")
	return variants
}

// enhance normalizes resolution and boosts legibility for general OCR.
func (p *Preprocessor) enhance(img image.Image) image.Image {
	out := img
	if out.Bounds().Dx() < targetWidth {
		out = imaging.Resize(out, targetWidth, 0, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 15)
	out = imaging.Sharpen(out, 1.0)
	return imaging.Grayscale(out)
}

// highContrast recovers faded thermal-paper receipts.
func (p *Preprocessor) highContrast(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 45)
	return imaging.Sharpen(out, 1.5)
}

func (p *Preprocessor) encode(name string, img image.Image, ops []string) (Variant, bool) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		p.log.Warn().Err(err).Str("variant", name).Msg("variant encode failed, skipping")
		return Variant{}, false
	}
	return Variant{Name: name, Data: buf.Bytes(), Ops: ops}, true
}

// meanBrightness samples the image on a coarse grid and returns the mean
// channel brightness on a 0-255 scale.
func meanBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	step := bounds.Dx() / 64
	if step < 1 {
		step = 1
	}

	var sum, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += float64(r>>8+g>>8+b>>8) / 3
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
