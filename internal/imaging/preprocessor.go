package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"leafscan/internal/models"
)

// Model input geometry. The classifier was trained on fixed 224x224 RGB
// crops with values normalized to [0, 1]; the resize deliberately discards
// aspect ratio to match that regime.
const (
	InputHeight   = 224
	InputWidth    = 224
	InputChannels = 3
)

// luminanceStride controls quality-gate sampling: every Nth pixel in both
// axes, to bound cost on large photos.
const luminanceStride = 10

var (
	// ErrInvalidImage means the byte stream could not be decoded at all.
	ErrInvalidImage = errors.New("invalid or truncated image data")
	// ErrImageTooSmall means the photo's smaller edge is below the minimum.
	ErrImageTooSmall = errors.New("image dimensions too small")
)

// QualityReport carries the advisory outcome of the luminance gate. It is
// returned alongside the tensor and never aborts preprocessing; callers
// decide whether to warn or proceed.
type QualityReport struct {
	TooDark   bool    `json:"tooDark"`
	TooBright bool    `json:"tooBright"`
	Luminance float64 `json:"luminance"`
}

// Flagged reports whether the photo fell outside the luminance bounds.
func (q *QualityReport) Flagged() bool {
	return q.TooDark || q.TooBright
}

// Preprocessor converts raw photo bytes into the model's input tensor.
type Preprocessor struct {
	minDimension int
	luminanceMin float64
	luminanceMax float64
}

// NewPreprocessor creates a preprocessor with the given quality-gate
// thresholds. The thresholds are product constants, not pipeline
// invariants, which is why they are parameters here.
func NewPreprocessor(minDimension, luminanceMin, luminanceMax int) *Preprocessor {
	return &Preprocessor{
		minDimension: minDimension,
		luminanceMin: float64(luminanceMin),
		luminanceMax: float64(luminanceMax),
	}
}

// Preprocess decodes, gates, resizes and normalizes a photo into a
// [1, 224, 224, 3] tensor of RGB values in [0, 1]. The quality report is
// advisory; it is non-nil whenever the returned error is nil.
func (p *Preprocessor) Preprocess(raw []byte) (*models.Tensor, *QualityReport, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < p.minDimension || height < p.minDimension {
		return nil, nil, fmt.Errorf("%w: %dx%d, minimum edge %d", ErrImageTooSmall, width, height, p.minDimension)
	}

	report := p.gateQuality(img)

	resized := resize.Resize(InputWidth, InputHeight, img, resize.Bilinear)

	tensor := models.NewTensor(1, InputHeight, InputWidth, InputChannels)
	i := 0
	for y := 0; y < InputHeight; y++ {
		for x := 0; x < InputWidth; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// RGBA returns 16-bit channels.
			tensor.Data[i] = float32(r>>8) / 255.0
			tensor.Data[i+1] = float32(g>>8) / 255.0
			tensor.Data[i+2] = float32(b>>8) / 255.0
			i += InputChannels
		}
	}

	return tensor, report, nil
}

// gateQuality samples a coarse average luminance (ITU-R BT.601 weights)
// over the original image and flags photos outside the configured bounds.
func (p *Preprocessor) gateQuality(img image.Image) *QualityReport {
	bounds := img.Bounds()

	var sum float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += luminanceStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += luminanceStride {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			count++
		}
	}

	report := &QualityReport{}
	if count == 0 {
		return report
	}

	report.Luminance = sum / float64(count)
	report.TooDark = report.Luminance < p.luminanceMin
	report.TooBright = report.Luminance > p.luminanceMax
	return report
}
