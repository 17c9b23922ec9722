// Package service runs the extraction, synthesis and packaging pipeline in
// process. It is the collaborator behind the HTTP endpoints and the
// websocket session, and it backs the CLI's --local mode.
package service

import (
	"context"
	"fmt"

	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/internal/types"
	"github.com/xhad/citedoc/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LinkSource fetches link text strictly (ExtractLink) or leniently (Extract).
type LinkSource interface {
	types.LinkExtractor
	Extract(ctx context.Context, rawURL string) models.ExtractedText
}

// DocumentSynthesizer turns a generation request into text.
type DocumentSynthesizer interface {
	SynthesizeDocument(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

type ServiceConfig struct {
	Extractor   types.Extractor
	Links       LinkSource
	Synthesizer DocumentSynthesizer
	Packager    types.Packager
	// Parallelism bounds concurrent extractions in Process. Defaults to 1.
	Parallelism int
	Logger      *zap.Logger
}

type Service struct {
	config ServiceConfig
	logger *zap.Logger
}

func NewWithConfig(config ServiceConfig) (*Service, error) {
	if config.Extractor == nil || config.Links == nil || config.Synthesizer == nil || config.Packager == nil {
		return nil, fmt.Errorf("extractor, links, synthesizer and packager are required")
	}
	if config.Parallelism < 0 {
		return nil, fmt.Errorf("parallelism cannot be negative")
	} else if config.Parallelism == 0 {
		config.Parallelism = 1
	}

	return &Service{
		config: config,
		logger: logger.OrNop(config.Logger),
	}, nil
}

// ExtractFile never fails: undecodable files come back as placeholder text.
func (s *Service) ExtractFile(ctx context.Context, src models.Source) (string, error) {
	return s.config.Extractor.Extract(ctx, src).Text, nil
}

func (s *Service) ExtractLink(ctx context.Context, rawURL string) (string, error) {
	return s.config.Links.ExtractLink(ctx, rawURL)
}

// Generate synthesizes a document from already-extracted sources and
// packages it in the requested format.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (*models.Artifact, error) {
	if len(req.Sources) == 0 {
		return nil, models.ErrNoSources
	}
	format, err := models.ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	req.Format = format

	result, err := s.config.Synthesizer.SynthesizeDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	artifact, err := s.config.Packager.Package(result.Text, result.Format)
	if err != nil {
		return nil, err
	}

	s.logger.Info("document generated",
		zap.Int("sources", len(req.Sources)),
		zap.String("format", string(result.Format)),
		zap.Int("bytes", len(artifact.Data)))
	return artifact, nil
}

// ProcessRequest is the one-shot form: raw files and links in, document out.
type ProcessRequest struct {
	Instruction string
	Files       []models.Source
	Links       []string
}

// Process extracts every file and link leniently, then synthesizes one
// Markdown document. Chunks keep submission order, files before links.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (string, error) {
	if len(req.Files) == 0 && len(req.Links) == 0 {
		return "", models.ErrNoSources
	}

	chunks, err := s.ExtractAll(ctx, req.Files, req.Links)
	if err != nil {
		return "", err
	}

	result, err := s.config.Synthesizer.SynthesizeDocument(ctx, models.GenerationRequest{
		Sources:     chunks,
		Instruction: req.Instruction,
		Format:      models.FormatMarkdown,
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ExtractAll runs up to Parallelism extractions at once. Each result lands
// in its own slot so the output order matches the input order.
func (s *Service) ExtractAll(ctx context.Context, files []models.Source, links []string) ([]models.ExtractedText, error) {
	chunks := make([]models.ExtractedText, len(files)+len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallelism)

	for i, f := range files {
		g.Go(func() error {
			chunks[i] = s.config.Extractor.Extract(gctx, f)
			return nil
		})
	}
	for i, link := range links {
		slot := len(files) + i
		g.Go(func() error {
			chunks[slot] = s.config.Links.Extract(gctx, link)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}
