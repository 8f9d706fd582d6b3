// Package app wires configuration into the analysis services shared by the
// API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/spendscan/internal/config"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/gcsuploader"
	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/narrative"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// Options adjusts service construction.
type Options struct {
	// Offline skips the Gemini clients: statements are read with the local
	// text parser and the narrative is always the fallback insight.
	Offline bool
}

// Services are the collaborators built from a Config.
type Services struct {
	Config    *config.Config
	Analyzer  *pipeline.Analyzer
	Extractor extraction.Extractor
	Storage   *gcsuploader.GCSStorageService
	Results   *gcsuploader.GCSResultStore
}

// NewServices builds the analyzer and its collaborators. A Gemini client that
// cannot be created downgrades to the offline behavior with a warning.
func NewServices(ctx context.Context, cfg *config.Config, opts Options) (*Services, error) {
	log := logger.FromContext(ctx)

	set, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("NewServices: %w", err)
	}

	var extractor extraction.Extractor = extraction.NewTextExtractor()
	var narrator narrative.Generator
	if !opts.Offline {
		gemini, err := extraction.NewGeminiExtractor(ctx, cfg.GenAIModel)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini extraction unavailable, using local text parser")
		} else {
			extractor = &extraction.FallbackExtractor{Primary: gemini, Secondary: extractor}
		}

		gen, err := narrative.NewGeminiGenerator(ctx, cfg.GenAIModel)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini narrative unavailable, insights will use the fallback")
		} else {
			narrator = gen
		}
	}

	storage := gcsuploader.NewGCSStorageService()
	var results *gcsuploader.GCSResultStore
	pcfg := pipeline.Config{
		Rules:     set,
		Strategy:  cfg.RecurrenceStrategy,
		Narrator:  narrator,
		Extractor: extractor,
		Storage:   storage,
	}
	if cfg.GCSBucket != "" {
		results = gcsuploader.NewGCSResultStore(cfg.GCSBucket, storage)
		pcfg.Results = results
	}

	analyzer, err := pipeline.NewAnalyzer(pcfg)
	if err != nil {
		return nil, fmt.Errorf("NewServices: %w", err)
	}

	log.Info().
		Str("strategy", analyzer.Strategy()).
		Bool("offline", opts.Offline || narrator == nil).
		Bool("store_results", results != nil).
		Msg("Analysis services ready")

	return &Services{
		Config:    cfg,
		Analyzer:  analyzer,
		Extractor: extractor,
		Storage:   storage,
		Results:   results,
	}, nil
}
