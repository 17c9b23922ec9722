package aggregator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/citedoc/internal/models"
)

func TestAggregate_Format(t *testing.T) {
	got := Aggregate([]models.ExtractedText{
		{Label: "notes.txt", Kind: models.KindFile, Text: "Revenue grew 10%."},
		{Label: "https://example.com", Kind: models.KindLink, Text: "Costs stayed flat."},
	})

	want := "=== BEGIN SOURCE DATA ===\n\n" +
		"--- BEGIN DOCUMENT: notes.txt ---\nRevenue grew 10%.\n--- END DOCUMENT: notes.txt ---\n\n" +
		"--- BEGIN LINK: https://example.com ---\nCosts stayed flat.\n--- END LINK: https://example.com ---\n\n" +
		"=== END SOURCE DATA ===\n"
	assert.Equal(t, want, got)
}

func TestAggregate_PreservesOrder(t *testing.T) {
	chunks := []models.ExtractedText{
		{Label: "A", Kind: models.KindFile, Text: "alpha"},
		{Label: "B", Kind: models.KindLink, Text: "beta"},
		{Label: "C", Text: "gamma"},
	}
	got := Aggregate(chunks)

	last := -1
	for _, c := range chunks {
		begin := strings.Index(got, BeginMarker(c))
		end := strings.Index(got, EndMarker(c))
		require.NotEqual(t, -1, begin, c.Label)
		require.Greater(t, end, begin, c.Label)
		assert.Greater(t, begin, last, "chunk %s out of order", c.Label)
		assert.Contains(t, got[begin:end], c.Text)
		last = end
	}
}

func TestAggregate_NoDedup(t *testing.T) {
	c := models.ExtractedText{Label: "same.txt", Kind: models.KindFile, Text: "same"}
	got := Aggregate([]models.ExtractedText{c, c})
	assert.Equal(t, 2, strings.Count(got, BeginMarker(c)))
}

func TestAggregate_UnknownKindUsesSource(t *testing.T) {
	got := Aggregate([]models.ExtractedText{{Label: "File: a.pdf", Text: "x"}})
	assert.Contains(t, got, "--- BEGIN SOURCE: File: a.pdf ---")
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize("héllo", 5))
	assert.NoError(t, CheckSize(strings.Repeat("x", 100), 0))

	err := CheckSize("héllo!", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContextTooLarge))
}
