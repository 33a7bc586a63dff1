// Package pipeline orchestrates the full receipt run: image analysis,
// variant generation, concurrent OCR across backends, parsing, and the final
// cross-engine reconciliation.
//
// The pipeline is resilient by construction. Individual backend or variant
// failures are logged and skipped; the run fails only when every backend
// failed on every variant.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"receiptscan/internal/config"
	"receiptscan/internal/engine"
	"receiptscan/internal/logger"
	"receiptscan/internal/parser"
	"receiptscan/internal/preprocess"
	"receiptscan/internal/products"
	"receiptscan/internal/reconcile"
	"receiptscan/internal/store"
	"receiptscan/pkg/models"
)

// ErrNoEngines is returned when the pipeline is constructed without any
// usable OCR backend.
var ErrNoEngines = errors.New("pipeline: no OCR engines configured")

// Pipeline runs receipt images end to end.
type Pipeline struct {
	engines    []engine.Engine
	pre        *preprocess.Preprocessor
	parser     *parser.Parser
	reconciler *reconcile.Reconciler
	cfg        *config.Config
	log        zerolog.Logger
}

// New assembles a Pipeline from configuration and the available engines.
func New(cfg *config.Config, engines []engine.Engine) (*Pipeline, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}
	registry := store.NewRegistry()
	catalog := products.NewCatalog()
	return &Pipeline{
		engines:    engines,
		pre:        preprocess.New(),
		parser:     parser.New(registry, catalog, cfg.Thresholds),
		reconciler: reconcile.New(cfg.Thresholds),
		cfg:        cfg,
		log:        logger.WithComponent("pipeline"),
	}, nil
}

// candidate is one (engine, variant) extraction attempt with its ranking
// score.
type candidate struct {
	extraction *models.ReceiptExtraction
	engineName string
	score      float64
}

// engineOutcome is one engine's best candidate, or its last error when every
// variant failed.
type engineOutcome struct {
	idx  int
	best *candidate
	err  error
}

// ProcessImage runs one receipt image through every configured engine and
// merges the two strongest results. It returns an error only when no engine
// produced any text at all.
func (p *Pipeline) ProcessImage(ctx context.Context, image []byte) (*models.PipelineResult, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(runID)
	started := time.Now()

	report := p.pre.Analyze(image)
	variants := p.pre.Variants(image)
	log.Info().
		Int("engines", len(p.engines)).
		Int("variants", len(variants)).
		Strs("image_issues", report.Issues).
		Msg("pipeline run started")

	outcomes := make([]engineOutcome, len(p.engines))
	var wg sync.WaitGroup
	for i, eng := range p.engines {
		wg.Add(1)
		go func(i int, eng engine.Engine) {
			defer wg.Done()
			best, err := p.runEngine(ctx, eng, variants, runID)
			outcomes[i] = engineOutcome{idx: i, best: best, err: err}
		}(i, eng)
	}
	wg.Wait()

	var ranked []*candidate
	var failures []string
	for _, out := range outcomes {
		if out.best != nil {
			ranked = append(ranked, out.best)
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %v", p.engines[out.idx].Name(), out.err))
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("pipeline: all engines failed: %s", strings.Join(failures, "; "))
	}

	// Stable ranking: score desc, engine name as tie-break.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].engineName < ranked[j].engineName
	})

	var rec *models.ReconciliationResult
	if len(ranked) >= 2 {
		rec = p.reconciler.Reconcile(ranked[0].extraction, ranked[1].extraction)
	} else {
		rec = p.reconciler.Single(ranked[0].extraction)
	}

	best := ranked[0].extraction
	result := &models.PipelineResult{
		Success:        best.Success,
		Receipt:        best,
		Confidence:     rec.ReconciliationConfidence,
		Reconciliation: rec,
		QualityReport: models.QualityReport{
			ImageIssues: report.Issues,
			Issues:      best.QualityIssues,
			Suggestions: best.Suggestions,
		},
	}

	log.Info().
		Str("engine", best.Metadata.Engine).
		Float64("confidence", result.Confidence).
		Float64("total", rec.FinalTotal).
		Int("items", len(rec.FinalItems)).
		Dur("duration", time.Since(started)).
		Bool("manual_review", rec.NeedsManualReview).
		Msg("pipeline run finished")

	return result, nil
}

// runEngine extracts every variant with one engine, fan-out bounded by the
// configured worker count, and returns the highest-scoring candidate. All
// variants failing yields the last error.
func (p *Pipeline) runEngine(ctx context.Context, eng engine.Engine, variants []preprocess.Variant, runID string) (*candidate, error) {
	workers := p.cfg.VariantWorkers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var mu sync.Mutex
	var best *candidate
	bestIdx := -1
	var lastErr error

	var wg sync.WaitGroup
	for vi, v := range variants {
		wg.Add(1)
		go func(vi int, v preprocess.Variant) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cand, err := p.attempt(ctx, eng, v, runID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return
			}
			// Earlier variants win ties so reruns pick the same result.
			if best == nil || cand.score > best.score ||
				(cand.score == best.score && vi < bestIdx) {
				best = cand
				bestIdx = vi
			}
		}(vi, v)
	}
	wg.Wait()

	if best == nil {
		if lastErr == nil {
			lastErr = engine.ErrEmptyText
		}
		return nil, lastErr
	}
	return best, nil
}

// attempt runs one engine over one variant under the per-call timeout and
// parses the text it returns.
func (p *Pipeline) attempt(ctx context.Context, eng engine.Engine, v preprocess.Variant, runID string) (*candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.EngineTimeout)
	defer cancel()

	started := time.Now()
	res, err := eng.Extract(callCtx, v.Data)
	if err != nil {
		p.log.Warn().
			Str("engine", eng.Name()).
			Str("variant", v.Name).
			Err(err).
			Msg("extraction attempt failed")
		return nil, err
	}

	ext := p.parser.Parse(res.Text)
	ext.Metadata = models.ExtractionMetadata{
		RunID:       runID,
		Engine:      eng.Name(),
		EngineConf:  res.Confidence,
		VariantName: v.Name,
		VariantOps:  v.Ops,
		Duration:    time.Since(started),
		ProcessedAt: time.Now().UTC(),
	}

	return &candidate{
		extraction: ext,
		engineName: eng.Name(),
		score:      score(ext),
	}, nil
}

// score ranks an extraction for best-variant and best-engine selection:
// parser confidence, a bonus for a validated total, and a small capped bonus
// per extracted item.
func score(ext *models.ReceiptExtraction) float64 {
	s := ext.Confidence
	if ext.Validation != nil && ext.Validation.Valid {
		s += 0.2
	}
	bonus := float64(len(ext.Items)) * 0.02
	if bonus > 0.1 {
		bonus = 0.1
	}
	return s + bonus
}
