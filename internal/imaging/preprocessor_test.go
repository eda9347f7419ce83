package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodePNG renders a solid-color test image of the given size.
func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocess_ValidImage(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	raw := encodePNG(t, 320, 240, color.RGBA{R: 120, G: 180, B: 60, A: 255})

	tensor, report, err := p.Preprocess(raw)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.True(t, tensor.ShapeEquals([]int{1, InputHeight, InputWidth, InputChannels}))
	require.False(t, report.Flagged())

	// Every value in [0, 1].
	for _, v := range tensor.Data {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocess_NormalizationRoundTrip(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	src := color.RGBA{R: 120, G: 180, B: 60, A: 255}
	raw := encodePNG(t, 320, 240, src)

	tensor, _, err := p.Preprocess(raw)
	require.NoError(t, err)

	// A solid image resizes to itself; re-derived intensities must match
	// the source within 1 unit of rounding.
	want := []float64{float64(src.R), float64(src.G), float64(src.B)}
	for i := 0; i < len(tensor.Data); i++ {
		got := math.Round(float64(tensor.Data[i]) * 255)
		require.LessOrEqual(t, math.Abs(got-want[i%3]), 1.0, "channel value at %d", i)
	}
}

func TestPreprocess_EmptyBuffer(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)

	_, _, err := p.Preprocess(nil)
	require.ErrorIs(t, err, ErrInvalidImage)

	_, _, err = p.Preprocess([]byte{})
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestPreprocess_GarbageBytes(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)

	_, _, err := p.Preprocess([]byte("definitely not an image"))
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestPreprocess_TruncatedImage(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	raw := encodePNG(t, 320, 240, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	_, _, err := p.Preprocess(raw[:20])
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestPreprocess_TooSmall(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	raw := encodePNG(t, 99, 240, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	_, _, err := p.Preprocess(raw)
	require.ErrorIs(t, err, ErrImageTooSmall)
}

func TestPreprocess_DarkImageFlagged(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	raw := encodePNG(t, 200, 200, color.RGBA{R: 5, G: 5, B: 5, A: 255})

	tensor, report, err := p.Preprocess(raw)
	require.NoError(t, err, "quality gate is advisory, not fatal")
	require.NotNil(t, tensor)
	require.True(t, report.TooDark)
	require.False(t, report.TooBright)
	require.True(t, report.Flagged())
}

func TestPreprocess_BrightImageFlagged(t *testing.T) {
	p := NewPreprocessor(100, 30, 225)
	raw := encodePNG(t, 200, 200, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	_, report, err := p.Preprocess(raw)
	require.NoError(t, err)
	require.True(t, report.TooBright)
	require.True(t, report.Flagged())
}

func TestPreprocess_CustomThresholds(t *testing.T) {
	// Loosened bounds accept the same dark photo.
	p := NewPreprocessor(100, 0, 255)
	raw := encodePNG(t, 200, 200, color.RGBA{R: 5, G: 5, B: 5, A: 255})

	_, report, err := p.Preprocess(raw)
	require.NoError(t, err)
	require.False(t, report.Flagged())
}
