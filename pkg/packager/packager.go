// Package packager turns synthesized text into a downloadable artifact.
package packager

import (
	"fmt"

	"github.com/xhad/citedoc/internal/models"
)

const (
	ContentTypeMarkdown = "text/markdown"
	ContentTypeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrUnknownFormat = models.ErrUnknownFormat

type Packager struct{}

func New() *Packager {
	return &Packager{}
}

// Package returns text unchanged for text and markdown, and a minimal Word
// document for docx. The artifact name depends only on the format.
func (p *Packager) Package(text string, format models.OutputFormat) (*models.Artifact, error) {
	var (
		data        []byte
		contentType string
	)

	switch format {
	case models.FormatText, models.FormatMarkdown:
		data = []byte(text)
		contentType = ContentTypeMarkdown
	case models.FormatDocx:
		doc, err := WriteDocx(text)
		if err != nil {
			return nil, fmt.Errorf("build docx: %w", err)
		}
		data = doc
		contentType = ContentTypeDocx
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &models.Artifact{
		Filename:    format.ArtifactName(),
		ContentType: contentType,
		Data:        data,
	}, nil
}
