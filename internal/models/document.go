package models

import (
	"fmt"
	"strings"
)

// SourceKind tells the aggregator which marker to put around a chunk.
type SourceKind string

const (
	KindFile    SourceKind = "file"
	KindLink    SourceKind = "link"
	KindUnknown SourceKind = ""
)

// Source is one uploaded file as received from a client.
type Source struct {
	Name      string
	MediaType string
	Content   []byte
	// Text already extracted upstream (OCR, client-side read). Optional.
	Text string
}

type ExtractedText struct {
	Label string     `json:"source"`
	Kind  SourceKind `json:"kind,omitempty"`
	Text  string     `json:"content"`
}

// OutputFormat is the artifact format a generation request asks for.
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
	FormatDocx     OutputFormat = "docx"
)

// ParseFormat accepts the canonical names plus the short aliases older
// clients send. An empty string means markdown.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "docx", "word":
		return FormatDocx, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Extension is the file extension used when naming an artifact of this format.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatDocx:
		return "docx"
	default:
		return "md"
	}
}

// ArtifactName is deterministic so clients can predict the download name.
func (f OutputFormat) ArtifactName() string {
	return "ai_document." + f.Extension()
}

type GenerationRequest struct {
	Sources     []ExtractedText
	Instruction string
	Format      OutputFormat
}

type GenerationResult struct {
	Text   string
	Format OutputFormat
}

// Artifact is the downloadable output of one generation.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}
