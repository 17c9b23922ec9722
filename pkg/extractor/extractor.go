// Package extractor turns uploaded files into plain text. Every media type
// maps to one Decoder; anything unknown goes to the unsupported decoder.
// Extraction never fails: decoder errors become placeholder text naming the
// file so a batch always carries on.
package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/metrics"
	"github.com/xhad/citedoc/pkg/processor"
	"go.uber.org/zap"
)

const (
	MediaPDF      = "application/pdf"
	MediaDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaPNG      = "image/png"
	MediaJPEG     = "image/jpeg"
	MediaText     = "text/plain"
	MediaMarkdown = "text/markdown"
	MediaCSV      = "text/csv"
)

var extensionTypes = map[string]string{
	".pdf":  MediaPDF,
	".docx": MediaDOCX,
	".xlsx": MediaXLSX,
	".png":  MediaPNG,
	".jpg":  MediaJPEG,
	".jpeg": MediaJPEG,
	".txt":  MediaText,
	".md":   MediaMarkdown,
	".csv":  MediaCSV,
}

// Decoder extracts text from one family of media types.
type Decoder interface {
	// Kind is a short label used in logs and metrics.
	Kind() string
	Decode(ctx context.Context, src models.Source) (string, error)
}

type ExtractorConfig struct {
	Logger *zap.Logger
	// Decoders overrides or adds decoders by media type.
	Decoders map[string]Decoder
}

type Extractor struct {
	decoders    map[string]Decoder
	unsupported Decoder
	logger      *zap.Logger
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	text := passthroughDecoder{}
	decoders := map[string]Decoder{
		MediaPDF:      pdfDecoder{},
		MediaDOCX:     docxDecoder{},
		MediaXLSX:     xlsxDecoder{},
		MediaPNG:      text,
		MediaJPEG:     text,
		MediaText:     text,
		MediaMarkdown: text,
		MediaCSV:      text,
	}
	for mt, d := range config.Decoders {
		decoders[mt] = d
	}

	return &Extractor{
		decoders:    decoders,
		unsupported: unsupportedDecoder{},
		logger:      logger.OrNop(config.Logger),
	}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// Extract returns the text of src labelled with its file name. It always
// returns text, possibly a placeholder.
func (e *Extractor) Extract(ctx context.Context, src models.Source) models.ExtractedText {
	mediaType := ResolveMediaType(src.MediaType, src.Name)
	d := e.decoderFor(mediaType)

	text, err := decodeSafely(ctx, d, src)
	outcome := "ok"
	switch {
	case err != nil:
		e.logger.Warn("file extraction failed",
			zap.String("file", src.Name),
			zap.String("media_type", mediaType),
			zap.Error(err))
		text = FailedPlaceholder(src.Name)
		outcome = "placeholder"
	case d == e.unsupported:
		e.logger.Warn("unsupported file type",
			zap.String("file", src.Name),
			zap.String("media_type", mediaType))
		outcome = "placeholder"
	}
	metrics.ExtractionsTotal.WithLabelValues(d.Kind(), outcome).Inc()

	return models.ExtractedText{
		Label: src.Name,
		Kind:  models.KindFile,
		Text:  processor.Normalize(text),
	}
}

func (e *Extractor) decoderFor(mediaType string) Decoder {
	if d, ok := e.decoders[mediaType]; ok {
		return d
	}
	return e.unsupported
}

// decodeSafely turns decoder panics into errors; the PDF parser in
// particular panics on malformed input.
func decodeSafely(ctx context.Context, d Decoder, src models.Source) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s decoder panic: %v", d.Kind(), r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.Decode(ctx, src)
}

// ResolveMediaType strips parameters from the declared type and falls back
// to the file extension when the declared type says nothing useful.
func ResolveMediaType(declared, filename string) string {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		return MediaTypeFor(filename)
	}
	return mediaType
}

// MediaTypeFor guesses a media type from a file name.
func MediaTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}

func FailedPlaceholder(name string) string {
	return fmt.Sprintf("Failed to process file %s.", name)
}

func UnsupportedPlaceholder(name, mediaType string) string {
	return fmt.Sprintf("Content of file %s could not be processed (unsupported type %s).", name, mediaType)
}

func NoImageTextPlaceholder(name string) string {
	return fmt.Sprintf("No text was extracted from image %s.", name)
}

type unsupportedDecoder struct{}

func (unsupportedDecoder) Kind() string { return "unsupported" }

func (unsupportedDecoder) Decode(_ context.Context, src models.Source) (string, error) {
	return UnsupportedPlaceholder(src.Name, ResolveMediaType(src.MediaType, src.Name)), nil
}
