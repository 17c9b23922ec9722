package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/citedoc/pkg/extractor"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Revenue grew 10%."), 0644))
	src, err := readSource(txt)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", src.Name)
	assert.Equal(t, extractor.MediaText, src.MediaType)
	assert.Equal(t, "Revenue grew 10%.", src.Text)

	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0644))
	src, err = readSource(pdf)
	require.NoError(t, err)
	assert.Equal(t, extractor.MediaPDF, src.MediaType)
	assert.Empty(t, src.Text)

	_, err = readSource(filepath.Join(dir, "missing.docx"))
	assert.Error(t, err)
}
