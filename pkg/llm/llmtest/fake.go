// Package llmtest provides an in-memory llms.Model for tests.
package llmtest

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// FakeModel records every prompt and answers with Respond, or with
// CitingResponse when Respond is nil.
type FakeModel struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	options []llms.CallOptions
}

func (f *FakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, m := range messages {
		for _, part := range m.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				b.WriteString(tc.Text)
			}
		}
	}
	prompt := b.String()

	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	f.mu.Unlock()

	respond := f.Respond
	if respond == nil {
		respond = CitingResponse
	}
	text, err := respond(prompt)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *FakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// Prompts returns a copy of the prompts seen so far.
func (f *FakeModel) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Options returns the resolved call options of each request so far.
func (f *FakeModel) Options() []llms.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llms.CallOptions(nil), f.options...)
}

var beginMarker = regexp.MustCompile(`(?m)^--- BEGIN [A-Z]+: (.+) ---$`)

// CitingResponse writes one Markdown bullet per source marker in the
// prompt, each followed by a citation of that source.
func CitingResponse(prompt string) (string, error) {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	for _, m := range beginMarker.FindAllStringSubmatch(prompt, -1) {
		b.WriteString("- Content taken from the source (Source: " + m[1] + ")\n")
	}
	return b.String(), nil
}
