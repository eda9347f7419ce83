package services

import (
	"context"
	"sync"
	"time"

	"leafscan/internal/imaging"
	"leafscan/internal/inference"
	"leafscan/internal/logger"
	"leafscan/internal/models"
	"leafscan/internal/ranking"
	"leafscan/internal/repository"
)

// ScanNotifier receives every persisted scan record, e.g. for fan-out to
// connected websocket viewers.
type ScanNotifier interface {
	NotifyScan(record *models.ScanRecord)
}

// Pipeline drives one classification end to end:
// Preprocess -> Infer -> Rank -> Persist. It is the serialization point
// for the shared inference engine: concurrent Classify calls queue behind
// an in-flight one instead of being rejected.
type Pipeline struct {
	preprocessor *imaging.Preprocessor
	engine       *inference.Engine
	store        repository.ScanRepository
	notifier     ScanNotifier
	logger       *logger.Logger

	topK int
	now  func() time.Time

	mu sync.Mutex // one classification in flight at a time
}

// NewPipeline wires the pipeline components. notifier may be nil.
func NewPipeline(
	preprocessor *imaging.Preprocessor,
	engine *inference.Engine,
	store repository.ScanRepository,
	notifier ScanNotifier,
	topK int,
	logger *logger.Logger,
) *Pipeline {
	return &Pipeline{
		preprocessor: preprocessor,
		engine:       engine,
		store:        store,
		notifier:     notifier,
		logger:       logger,
		topK:         topK,
		now:          time.Now,
	}
}

// Classify runs the full pipeline over one photo. The quality report is
// advisory: it accompanies a successful result and never aborts the run.
// On any error no record has been persisted. Cancellation is honored at
// stage boundaries only; a model call already in flight runs to completion
// and its result is discarded.
func (p *Pipeline) Classify(ctx context.Context, raw []byte, imageRef string) (*models.ScanRecord, *imaging.QualityReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Preprocessing
	if err := ctx.Err(); err != nil {
		return nil, nil, wrapStageError(StagePreprocessing, err)
	}
	tensor, quality, err := p.preprocessor.Preprocess(raw)
	if err != nil {
		p.logger.Warning("Preprocessing rejected %s: %v", imageRef, err)
		return nil, nil, wrapStageError(StagePreprocessing, err)
	}
	if quality.Flagged() {
		p.logger.Warning("Quality gate flagged %s (avg luminance %.1f)", imageRef, quality.Luminance)
	}

	// Inferring
	if err := ctx.Err(); err != nil {
		return nil, nil, wrapStageError(StageInferring, err)
	}
	predictions, err := p.engine.Run(tensor)
	if err != nil {
		p.logger.Error("Inference failed for %s: %v", imageRef, err)
		return nil, nil, wrapStageError(StageInferring, err)
	}
	if err := ctx.Err(); err != nil {
		// Caller disengaged mid-inference; discard the result.
		return nil, nil, wrapStageError(StageInferring, err)
	}

	// Ranking
	top := ranking.Rank(predictions, p.topK)
	if len(top) == 0 {
		return nil, nil, wrapStageError(StageRanking, errEmptyRanking)
	}

	// Persisting
	record, err := p.store.Append(top, imageRef, top[0].Crop(), p.now())
	if err != nil {
		p.logger.Error("Failed to persist scan for %s: %v", imageRef, err)
		return nil, nil, wrapStageError(StagePersisting, err)
	}

	p.logger.Info("Scan %d: %s (%.2f) for %s", record.ID, record.TopLabel(), top[0].Confidence, imageRef)

	if p.notifier != nil {
		p.notifier.NotifyScan(record)
	}

	return record, quality, nil
}
