package inference

// QuantParams describe how integer tensor values map back to floats:
// value = (raw - ZeroPoint) * Scale. Quantized is false for float tensors,
// in which case raw values pass through unchanged.
type QuantParams struct {
	Scale     float64
	ZeroPoint int
	Quantized bool
}

// Dequantize converts one raw tensor value to its float representation.
func (q QuantParams) Dequantize(raw float64) float64 {
	if !q.Quantized {
		return raw
	}
	return (raw - float64(q.ZeroPoint)) * q.Scale
}

// ModelRuntime abstracts the loaded classifier. The production
// implementation wraps a TFLite interpreter; tests substitute fakes.
//
// Invoke takes the normalized [0, 1] input as float32 values in the
// model's declared input layout and returns the raw output vector. For
// quantized models the returned values are the integer tensor contents
// cast to float64, still in the quantized domain; OutputParams tells the
// caller how to recover probabilities.
type ModelRuntime interface {
	InputShape() []int
	OutputWidth() int
	OutputParams() QuantParams
	Invoke(input []float32) ([]float64, error)
	Close()
}
