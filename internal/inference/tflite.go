package inference

import (
	"fmt"
	"math"
	"runtime"

	"github.com/mattn/go-tflite"
)

// tfliteRuntime implements ModelRuntime on top of a TFLite interpreter.
// Interpreters are not thread safe; the Engine serializes access.
type tfliteRuntime struct {
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter

	inputShape  []int
	outputWidth int
	inputQuant  QuantParams
	outputQuant QuantParams
	inputIsByte bool
}

// OpenTFLite loads a TFLite flatbuffer from disk and allocates its
// tensors. numThreads <= 0 uses all CPUs.
func OpenTFLite(modelPath string, numThreads int) (ModelRuntime, error) {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("failed to load model from %s", modelPath)
	}

	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	options := tflite.NewInterpreterOptions()
	if options == nil {
		model.Delete()
		return nil, fmt.Errorf("failed to create interpreter options")
	}
	options.SetNumThread(numThreads)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("failed to create interpreter")
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("failed to allocate tensors")
	}

	rt := &tfliteRuntime{
		model:       model,
		options:     options,
		interpreter: interpreter,
	}
	if err := rt.readTensorInfo(); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// readTensorInfo captures the declared shapes and quantization metadata so
// shape checks never have to touch the interpreter again.
func (rt *tfliteRuntime) readTensorInfo() error {
	if rt.interpreter.GetInputTensorCount() < 1 || rt.interpreter.GetOutputTensorCount() < 1 {
		return fmt.Errorf("model must declare at least one input and one output tensor")
	}

	input := rt.interpreter.GetInputTensor(0)
	rt.inputShape = make([]int, input.NumDims())
	for i := range rt.inputShape {
		rt.inputShape[i] = input.Dim(i)
	}

	switch input.Type() {
	case tflite.UInt8:
		rt.inputIsByte = true
		qp := input.QuantizationParams()
		rt.inputQuant = QuantParams{Scale: qp.Scale, ZeroPoint: qp.ZeroPoint, Quantized: true}
	case tflite.Float32:
		rt.inputIsByte = false
	default:
		return fmt.Errorf("unsupported input tensor type %v", input.Type())
	}

	output := rt.interpreter.GetOutputTensor(0)
	width := 1
	for i := 0; i < output.NumDims(); i++ {
		width *= output.Dim(i)
	}
	rt.outputWidth = width

	switch output.Type() {
	case tflite.UInt8:
		qp := output.QuantizationParams()
		rt.outputQuant = QuantParams{Scale: qp.Scale, ZeroPoint: qp.ZeroPoint, Quantized: true}
	case tflite.Float32:
		rt.outputQuant = QuantParams{}
	default:
		return fmt.Errorf("unsupported output tensor type %v", output.Type())
	}

	return nil
}

func (rt *tfliteRuntime) InputShape() []int         { return rt.inputShape }
func (rt *tfliteRuntime) OutputWidth() int          { return rt.outputWidth }
func (rt *tfliteRuntime) OutputParams() QuantParams { return rt.outputQuant }

func (rt *tfliteRuntime) Invoke(input []float32) ([]float64, error) {
	tensor := rt.interpreter.GetInputTensor(0)

	if rt.inputIsByte {
		// Quantize [0, 1] floats into the model's uint8 input domain.
		quantized := make([]uint8, len(input))
		for i, v := range input {
			q := int(math.Round(float64(v)/rt.inputQuant.Scale)) + rt.inputQuant.ZeroPoint
			if q < 0 {
				q = 0
			} else if q > 255 {
				q = 255
			}
			quantized[i] = uint8(q)
		}
		if status := tensor.CopyFromBuffer(quantized); status != tflite.OK {
			return nil, fmt.Errorf("copying input to tensor buffer failed")
		}
	} else {
		if status := tensor.CopyFromBuffer(input); status != tflite.OK {
			return nil, fmt.Errorf("copying input to tensor buffer failed")
		}
	}

	if status := rt.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("interpreter invoke failed")
	}

	output := rt.interpreter.GetOutputTensor(0)
	raw := make([]float64, rt.outputWidth)
	if rt.outputQuant.Quantized {
		for i, v := range output.UInt8s() {
			raw[i] = float64(v)
		}
	} else {
		for i, v := range output.Float32s() {
			raw[i] = float64(v)
		}
	}
	return raw, nil
}

func (rt *tfliteRuntime) Close() {
	if rt.interpreter != nil {
		rt.interpreter.Delete()
	}
	if rt.options != nil {
		rt.options.Delete()
	}
	if rt.model != nil {
		rt.model.Delete()
	}
}
