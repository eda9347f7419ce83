package models

// Tensor is a fixed-shape numeric container in row-major order. The image
// pipeline produces input tensors of shape [1, H, W, C] with channel-last
// RGB values normalized to [0, 1].
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return &Tensor{Shape: shape, Data: make([]float32, size)}
}

// ShapeEquals reports whether the tensor has exactly the given dimensions.
func (t *Tensor) ShapeEquals(shape []int) bool {
	if len(t.Shape) != len(shape) {
		return false
	}
	for i, d := range shape {
		if t.Shape[i] != d {
			return false
		}
	}
	return true
}
