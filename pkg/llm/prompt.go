package llm

import (
	"fmt"
	"strings"
)

// DefaultInstruction is used when the caller gives no instruction of their own.
const DefaultInstruction = "Compose a systematic and coherent summary document from the source data."

// CitationPrefix starts every citation the model is told to write.
const CitationPrefix = "Source: "

// Citation renders the fixed citation pattern for a provenance label.
func Citation(label string) string {
	return "(" + CitationPrefix + label + ")"
}

// BuildPrompt embeds the user's instruction verbatim and the aggregated
// context into the fixed document-writing template.
func BuildPrompt(instruction, aggregatedContext string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}

	var parts []string
	parts = append(parts, "You are a professional AI assistant who composes documents systematically. "+
		"Using ONLY the SOURCE DATA provided, write the document the following instruction asks for.")
	parts = append(parts, "\nUser instruction: \""+instruction+"\"")

	parts = append(parts, "\nYour tasks:")
	parts = append(parts, "1. Write the requested document in clean Markdown.")
	parts = append(parts, "2. Every piece of information you write must come from the SOURCE DATA provided. Do not add anything that is not in it.")
	parts = append(parts, fmt.Sprintf("3. VERY IMPORTANT: every time you state a fact or a figure you MUST follow it with a citation in the form %s or %s, using the name shown in the source markers.",
		Citation("file_name"), Citation("link_URL")))
	parts = append(parts, "4. If information the instruction asks for is not found in the sources, say explicitly that it is not available in the documents provided.")
	parts = append(parts, "5. Structure the answer clearly with headings, lists and paragraphs.")

	parts = append(parts, "\nNow write the document based on the instruction above and the following source data:\n")
	parts = append(parts, aggregatedContext)

	return strings.Join(parts, "\n")
}

// MissingCitations returns the labels the text never cites with the fixed
// pattern. Labels carrying a "File: " or "URL: " prefix also count as cited
// when the bare name is cited.
func MissingCitations(text string, labels []string) []string {
	var missing []string
	for _, label := range labels {
		if !cited(text, label) {
			missing = append(missing, label)
		}
	}
	return missing
}

func cited(text, label string) bool {
	if strings.Contains(text, CitationPrefix+label) {
		return true
	}
	for _, prefix := range []string{"File: ", "URL: "} {
		if bare, ok := strings.CutPrefix(label, prefix); ok && strings.Contains(text, CitationPrefix+bare) {
			return true
		}
	}
	return false
}
