package inference

import (
	"errors"
	"fmt"
	"sync"

	"leafscan/internal/models"
)

var (
	// ErrModelLoad wraps any failure to bring up the model artifact or its
	// label set.
	ErrModelLoad = errors.New("failed to load model")
	// ErrNotLoaded means Run was called before Load or after Dispose.
	ErrNotLoaded = errors.New("model not loaded")
	// ErrShapeMismatch means the input tensor does not match the model's
	// declared input shape.
	ErrShapeMismatch = errors.New("input tensor shape mismatch")
	// ErrBusy means a Run overlapped another in-flight Run. The pipeline
	// queues calls, so this only fires on direct concurrent engine use.
	ErrBusy = errors.New("inference already in flight")
)

// RuntimeFactory opens the model artifact. Injected so tests can swap in a
// fake runtime without touching the TFLite bindings.
type RuntimeFactory func() (ModelRuntime, error)

// Engine owns the single loaded model instance and its label set for the
// process lifetime. It is the numeric boundary of the pipeline: it
// validates shapes, runs the interpreter, dequantizes the output and pairs
// scores with labels. It never sorts; ranking happens downstream.
type Engine struct {
	open   RuntimeFactory
	labels models.LabelSet

	mu       sync.Mutex // guards runtime lifecycle and serializes Run
	runtime  ModelRuntime
	loaded   bool
	disposed bool
}

// NewEngine creates an engine that lazily loads the model on first use.
func NewEngine(open RuntimeFactory, labels models.LabelSet) *Engine {
	return &Engine{open: open, labels: labels}
}

// Load brings up the model if it is not already loaded. Idempotent.
// Load after Dispose re-arms the engine.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = false
	return e.ensureLoaded()
}

// ensureLoaded must be called with e.mu held. A disposed engine stays down
// until an explicit Load; lazy loading only covers the never-loaded state.
func (e *Engine) ensureLoaded() error {
	if e.loaded {
		return nil
	}
	if e.disposed {
		return ErrNotLoaded
	}

	rt, err := e.open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	if rt.OutputWidth() != len(e.labels) {
		rt.Close()
		return fmt.Errorf("%w: model emits %d classes but label set has %d entries",
			ErrModelLoad, rt.OutputWidth(), len(e.labels))
	}

	e.runtime = rt
	e.loaded = true
	return nil
}

// InputShape returns the model's declared input shape, loading the model
// if needed.
func (e *Engine) InputShape() ([]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}
	return e.runtime.InputShape(), nil
}

// Run executes one inference over the given input tensor and returns one
// prediction per output index, unsorted, with confidences dequantized to
// floats. The interpreter is not reentrant: overlapping calls are rejected
// with ErrBusy rather than executed in parallel.
func (e *Engine) Run(t *models.Tensor) ([]models.Prediction, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()

	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}

	if !t.ShapeEquals(e.runtime.InputShape()) {
		return nil, fmt.Errorf("%w: got %v, model expects %v",
			ErrShapeMismatch, t.Shape, e.runtime.InputShape())
	}

	raw, err := e.runtime.Invoke(t.Data)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(raw) != len(e.labels) {
		return nil, fmt.Errorf("model returned %d scores for %d labels", len(raw), len(e.labels))
	}

	params := e.runtime.OutputParams()
	predictions := make([]models.Prediction, len(raw))
	for i, v := range raw {
		predictions[i] = models.Prediction{
			Label:      e.labels[i],
			Confidence: params.Dequantize(v),
		}
	}
	return predictions, nil
}

// Labels returns the engine's label set in model output order.
func (e *Engine) Labels() models.LabelSet {
	return e.labels
}

// Dispose releases the model. Subsequent Run calls fail with ErrNotLoaded
// until Load is called again.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runtime != nil {
		e.runtime.Close()
		e.runtime = nil
	}
	e.loaded = false
	e.disposed = true
}
