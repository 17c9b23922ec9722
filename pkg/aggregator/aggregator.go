// Package aggregator concatenates extracted texts into the single context
// blob handed to the synthesizer. Every chunk is wrapped in begin/end markers
// naming its provenance so the model can cite it, and submission order is
// kept. Nothing is deduplicated or truncated: the full text of every source
// goes in, so the blob grows without bound. Callers that need a ceiling use
// CheckSize, which reports an error instead of cutting text.
package aggregator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xhad/citedoc/internal/models"
)

const (
	ContextHeader = "=== BEGIN SOURCE DATA ==="
	ContextFooter = "=== END SOURCE DATA ==="
)

var ErrContextTooLarge = errors.New("aggregated context exceeds limit")

// Aggregate wraps each chunk in provenance markers, in the given order.
func Aggregate(chunks []models.ExtractedText) string {
	var b strings.Builder
	b.WriteString(ContextHeader)
	b.WriteString("\n\n")

	for _, c := range chunks {
		word := markerWord(c.Kind)
		fmt.Fprintf(&b, "--- BEGIN %s: %s ---\n", word, c.Label)
		b.WriteString(c.Text)
		fmt.Fprintf(&b, "\n--- END %s: %s ---\n\n", word, c.Label)
	}

	b.WriteString(ContextFooter)
	b.WriteString("\n")
	return b.String()
}

// BeginMarker is the line that opens a chunk, exported for tests and for
// clients that want to locate a source inside the context.
func BeginMarker(c models.ExtractedText) string {
	return fmt.Sprintf("--- BEGIN %s: %s ---", markerWord(c.Kind), c.Label)
}

func EndMarker(c models.ExtractedText) string {
	return fmt.Sprintf("--- END %s: %s ---", markerWord(c.Kind), c.Label)
}

// CheckSize returns ErrContextTooLarge when the context has more than
// maxChars characters. A limit of zero or less disables the check.
func CheckSize(context string, maxChars int) error {
	if maxChars <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(context); n > maxChars {
		return fmt.Errorf("%w: %d characters, limit %d", ErrContextTooLarge, n, maxChars)
	}
	return nil
}

func markerWord(kind models.SourceKind) string {
	switch kind {
	case models.KindFile:
		return "DOCUMENT"
	case models.KindLink:
		return "LINK"
	default:
		return "SOURCE"
	}
}
