package types

import (
	"context"

	"github.com/xhad/citedoc/internal/models"
)

// Core interfaces

type Extractor interface {
	Extract(ctx context.Context, src models.Source) models.ExtractedText
}

type LinkExtractor interface {
	ExtractLink(ctx context.Context, rawURL string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, aggregatedContext, instruction string) (string, error)
}

type Packager interface {
	Package(text string, format models.OutputFormat) (*models.Artifact, error)
}

// Collaborator is the request/response surface the client orchestrator
// drives: one call per file, one per link, one for generation.
type Collaborator interface {
	ExtractFile(ctx context.Context, src models.Source) (string, error)
	ExtractLink(ctx context.Context, rawURL string) (string, error)
	Generate(ctx context.Context, req models.GenerationRequest) (*models.Artifact, error)
}
