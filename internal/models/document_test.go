package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
		name string
	}{
		{"", FormatMarkdown, "ai_document.md"},
		{"md", FormatMarkdown, "ai_document.md"},
		{"Markdown", FormatMarkdown, "ai_document.md"},
		{"txt", FormatText, "ai_document.txt"},
		{"text", FormatText, "ai_document.txt"},
		{"word", FormatDocx, "ai_document.docx"},
		{"docx", FormatDocx, "ai_document.docx"},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.name, got.ArtifactName())
	}

	_, err := ParseFormat("pdf")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
