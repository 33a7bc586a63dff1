package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAnalyzeFlagsLowResolution(t *testing.T) {
	p := New()
	data := encodeTestImage(t, 400, 600, color.White)

	report := p.Analyze(data)
	assert.True(t, report.NeedsEnhancement)
	assert.Contains(t, report.Issues, "low_resolution")
	assert.NotContains(t, report.Issues, "too_dark")
}

func TestAnalyzeFlagsDarkImage(t *testing.T) {
	p := New()
	data := encodeTestImage(t, 1000, 1200, color.RGBA{R: 30, G: 30, B: 30, A: 255})

	report := p.Analyze(data)
	assert.True(t, report.NeedsEnhancement)
	assert.Contains(t, report.Issues, "too_dark")
}

func TestAnalyzeCleanImage(t *testing.T) {
	p := New()
	data := encodeTestImage(t, 1200, 1600, color.White)

	report := p.Analyze(data)
	assert.False(t, report.NeedsEnhancement)
	assert.Empty(t, report.Issues)
}

func TestVariantsProducesThreeRenditions(t *testing.T) {
	p := New()
	data := encodeTestImage(t, 600, 900, color.White)

	variants := p.Variants(data)
	require.Len(t, variants, 3)

	assert.Equal(t, "original", variants[0].Name)
	assert.Equal(t, data, variants[0].Data)
	assert.Empty(t, variants[0].Ops)

	assert.Equal(t, "enhanced", variants[1].Name)
	assert.Contains(t, variants[1].Ops, "grayscale")
	assert.Contains(t, variants[1].Ops, "sharpen")
	assert.NotEmpty(t, variants[1].Data)

	assert.Equal(t, "high-contrast", variants[2].Name)
	assert.Contains(t, variants[2].Ops, "linear-contrast")
}

func TestVariantsDegradesToOriginalOnJunk(t *testing.T) {
	p := New()
	junk := []byte("this is not an image")

	variants := p.Variants(junk)
	require.Len(t, variants, 1)
	assert.Equal(t, "original", variants[0].Name)
	assert.Equal(t, junk, variants[0].Data)
}
