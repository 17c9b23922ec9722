package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/aggregator"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/metrics"
	"go.uber.org/zap"
)

var ErrSynthesisFailed = errors.New("document synthesis failed")

// SynthesizerConfig represents the configuration for a Synthesizer.
type SynthesizerConfig struct {
	ProviderConfig
	// Temperature defaults to 0.4 when nil.
	Temperature *float64
	MaxTokens   int
	// MaxContextChars caps the aggregated context. Zero disables the cap.
	MaxContextChars int
	Logger          *zap.Logger
}

// Synthesizer sends the aggregated context and the user's instruction to
// the generative service in a single request.
type Synthesizer struct {
	config SynthesizerConfig
	llm    llms.Model
	logger *zap.Logger
}

// NewWithConfig builds the provider model and returns a Synthesizer using it.
func NewWithConfig(ctx context.Context, config SynthesizerConfig) (*Synthesizer, error) {
	provider, err := NormalizeProvider(config.Provider)
	if err != nil {
		return nil, err
	}
	config.Provider = provider

	model, err := NewModel(ctx, config.ProviderConfig)
	if err != nil {
		return nil, err
	}
	return NewWithModel(config, model)
}

// NewWithModel returns a Synthesizer around an existing model.
func NewWithModel(config SynthesizerConfig, model llms.Model) (*Synthesizer, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if config.Temperature == nil {
		temperature := 0.4
		config.Temperature = &temperature
	} else if *config.Temperature < 0 || *config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	}
	if config.MaxContextChars < 0 {
		return nil, fmt.Errorf("max context chars cannot be negative")
	}
	if config.Provider == "" {
		config.Provider = ProviderGoogleAI
	}

	return &Synthesizer{
		config: config,
		llm:    model,
		logger: logger.OrNop(config.Logger),
	}, nil
}

// Synthesize issues exactly one generation request and returns the model's
// text. The size check runs before any call is made.
func (s *Synthesizer) Synthesize(ctx context.Context, aggregatedContext, instruction string) (string, error) {
	if err := aggregator.CheckSize(aggregatedContext, s.config.MaxContextChars); err != nil {
		return "", err
	}
	metrics.ContextChars.Observe(float64(utf8.RuneCountInString(aggregatedContext)))

	prompt := BuildPrompt(instruction, aggregatedContext)

	opts := []llms.CallOption{llms.WithTemperature(*s.config.Temperature)}
	if s.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.config.MaxTokens))
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, opts...)
	metrics.SynthesisDuration.WithLabelValues(s.config.Provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SynthesisTotal.WithLabelValues(s.config.Provider, "error").Inc()
		s.logger.Error("generation request failed",
			zap.String("provider", s.config.Provider),
			zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		metrics.SynthesisTotal.WithLabelValues(s.config.Provider, "empty").Inc()
		return "", fmt.Errorf("%w: empty response", ErrSynthesisFailed)
	}

	metrics.SynthesisTotal.WithLabelValues(s.config.Provider, "ok").Inc()
	s.logger.Info("document synthesized",
		zap.String("provider", s.config.Provider),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

// SynthesizeDocument aggregates the request's sources, synthesizes, and
// audits citations. Uncited sources are logged, not rejected.
func (s *Synthesizer) SynthesizeDocument(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if len(req.Sources) == 0 {
		return nil, models.ErrNoSources
	}

	text, err := s.Synthesize(ctx, aggregator.Aggregate(req.Sources), req.Instruction)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(req.Sources))
	for i, src := range req.Sources {
		labels[i] = src.Label
	}
	if missing := MissingCitations(text, labels); len(missing) > 0 {
		metrics.UncitedSourcesTotal.Add(float64(len(missing)))
		s.logger.Warn("document does not cite every source", zap.Strings("uncited", missing))
	}

	return &models.GenerationResult{Text: text, Format: req.Format}, nil
}

func (s *Synthesizer) Provider() string {
	return s.config.Provider
}
