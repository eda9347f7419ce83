package services

import (
	"context"
	"errors"
	"fmt"

	"leafscan/internal/imaging"
	"leafscan/internal/inference"
	"leafscan/internal/repository"
)

// Stage names the pipeline step a classification was in when it failed.
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageInferring     Stage = "inferring"
	StageRanking       Stage = "ranking"
	StagePersisting    Stage = "persisting"
)

// ErrorKind is the coordinator-level failure taxonomy.
type ErrorKind string

const (
	KindInvalidImage  ErrorKind = "invalid_image"
	KindImageTooSmall ErrorKind = "image_too_small"
	KindModelLoad     ErrorKind = "model_load_error"
	KindNotLoaded     ErrorKind = "not_loaded"
	KindShapeMismatch ErrorKind = "shape_mismatch"
	KindBusy          ErrorKind = "busy"
	KindPersistence   ErrorKind = "persistence_error"
	KindCancelled     ErrorKind = "cancelled"
	KindInternal      ErrorKind = "internal"
)

// Category tells a caller what to do about a failure: retake the photo,
// retry later, or treat the history as unrecoverable.
type Category string

const (
	CategoryRetake Category = "retake"
	CategoryRetry  Category = "retry"
	CategoryFatal  Category = "fatal"
)

// Category maps each error kind to its user-visible failure class.
func (k ErrorKind) Category() Category {
	switch k {
	case KindInvalidImage, KindImageTooSmall:
		return CategoryRetake
	case KindModelLoad, KindNotLoaded, KindShapeMismatch, KindBusy, KindCancelled:
		return CategoryRetry
	default:
		return CategoryFatal
	}
}

// PipelineError wraps a stage failure with its taxonomy kind. No partial
// scan record exists when one of these is returned.
type PipelineError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("classify failed while %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// errEmptyRanking fires when the model produced no predictions to rank,
// which means the artifact or label set is unusable.
var errEmptyRanking = errors.New("ranking produced no predictions")

// wrapStageError classifies an underlying error into the taxonomy.
func wrapStageError(stage Stage, err error) *PipelineError {
	kind := KindInternal
	switch {
	case errors.Is(err, imaging.ErrInvalidImage):
		kind = KindInvalidImage
	case errors.Is(err, imaging.ErrImageTooSmall):
		kind = KindImageTooSmall
	case errors.Is(err, inference.ErrModelLoad):
		kind = KindModelLoad
	case errors.Is(err, inference.ErrNotLoaded):
		kind = KindNotLoaded
	case errors.Is(err, inference.ErrShapeMismatch):
		kind = KindShapeMismatch
	case errors.Is(err, inference.ErrBusy):
		kind = KindBusy
	case errors.Is(err, repository.ErrPersistence):
		kind = KindPersistence
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCancelled
	}
	return &PipelineError{Stage: stage, Kind: kind, Err: err}
}
