// Package detection scores an uploaded crop image against the reference
// signatures of its crop type and lays the outcome out on a synthetic field.
package detection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/features"
	"github.com/kdimtricp/leafscan/internal/logging"
	"github.com/mdobak/go-xerrors"
)

type Service struct {
	extractor *features.Extractor
	provider  catalog.Provider
	ranker    *Ranker
	fields    *FieldMapGenerator
	pool      *Pool
	timeout   time.Duration
	logger    *slog.Logger
}

type Config struct {
	MaxImagePixels int
	PoolSize       int
	AcquireTimeout time.Duration
	// Timeout bounds a whole Detect call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

func NewService(provider catalog.Provider, history HistoryLog, rng Rand, config Config) *Service {
	if rng == nil {
		rng = globalRand{}
	}
	logger := logging.Component("detection")

	return &Service{
		extractor: features.NewExtractor(config.MaxImagePixels),
		provider:  provider,
		ranker:    NewRanker(rng, history, logger),
		fields:    NewFieldMapGenerator(rng),
		pool:      NewPool(config.PoolSize, config.AcquireTimeout),
		timeout:   config.Timeout,
		logger:    logger,
	}
}

// Pool exposes the extraction pool for metrics.
func (s *Service) Pool() *Pool {
	return s.pool
}

// Detect runs the whole pipeline for one upload. It never fails: every
// problem, including a panic inside the pipeline, comes back as the single
// error result.
func (s *Service) Detect(ctx context.Context, image []byte, cropType string) (res Result) {
	cropType = strings.ToLower(strings.TrimSpace(cropType))

	defer func() {
		if r := recover(); r != nil {
			res = s.errorResult(ctx, cropType, res.ImageHash, fmt.Errorf("panic during detection: %v", r))
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()

	sigs, err := s.provider.Signatures(ctx, cropType)
	if err != nil {
		return s.errorResult(ctx, cropType, "", fmt.Errorf("loading signatures: %w", err))
	}

	fv, hash, err := s.extract(ctx, image)
	res.ImageHash = hash
	if err != nil {
		return s.errorResult(ctx, cropType, hash, fmt.Errorf("extracting features: %w", err))
	}

	scored := ScoreAll(fv, sigs)
	results := s.ranker.Rank(ctx, fv, cropType, hash, scored)

	res = Result{
		CropType:  cropType,
		Results:   results,
		ImageHash: hash,
	}
	res.FieldMap = s.fields.Generate(res.Labels(), cropType)

	s.logger.InfoContext(ctx, "detection complete",
		slog.String("crop_type", cropType),
		slog.String("image_hash", hash),
		slog.Any("labels", res.Labels()),
		slog.Duration("elapsed", time.Since(start)))

	return res
}

func (s *Service) extract(ctx context.Context, image []byte) (features.FeatureVector, string, error) {
	if err := s.pool.Acquire(ctx); err != nil {
		return features.FeatureVector{}, features.Hash(image), fmt.Errorf("acquiring worker: %w", err)
	}
	defer s.pool.Release()

	return s.extractor.Extract(ctx, image)
}

func (s *Service) errorResult(ctx context.Context, cropType, hash string, err error) Result {
	s.logger.ErrorContext(ctx, "detection failed",
		slog.String("crop_type", cropType),
		slog.String("image_hash", hash),
		slog.Any("error", xerrors.New(err)))

	res := Result{
		CropType:  cropType,
		Results:   []ScoredCandidate{newCandidate(LabelError, "Detection Error", 1.0)},
		ImageHash: hash,
		Err:       err,
	}
	res.FieldMap = s.fields.Generate(res.Labels(), cropType)
	return res
}
