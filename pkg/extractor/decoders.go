package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xuri/excelize/v2"
)

type pdfDecoder struct{}

func (pdfDecoder) Kind() string { return "pdf" }

func (pdfDecoder) Decode(_ context.Context, src models.Source) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(src.Content), int64(len(src.Content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

type docxDecoder struct{}

func (docxDecoder) Kind() string { return "docx" }

func (docxDecoder) Decode(_ context.Context, src models.Source) (string, error) {
	return ReadDocxText(src.Content)
}

type xlsxDecoder struct{}

func (xlsxDecoder) Kind() string { return "xlsx" }

// Decode renders each sheet as a "Sheet: <name>" header followed by its rows,
// cells separated by tabs.
func (xlsxDecoder) Decode(_ context.Context, src models.Source) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src.Content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", name, err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		sheets = append(sheets, "Sheet: "+name+"\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sheets, "\n\n"), nil
}

// passthroughDecoder serves images and text: their text was extracted
// upstream (OCR in the browser, a plain read in the CLI).
type passthroughDecoder struct{}

func (passthroughDecoder) Kind() string { return "passthrough" }

func (passthroughDecoder) Decode(_ context.Context, src models.Source) (string, error) {
	if src.Text != "" {
		return src.Text, nil
	}

	mediaType := ResolveMediaType(src.MediaType, src.Name)
	if strings.HasPrefix(mediaType, "image/") {
		return NoImageTextPlaceholder(src.Name), nil
	}
	if !utf8.Valid(src.Content) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(src.Content), nil
}
