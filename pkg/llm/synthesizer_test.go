package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/aggregator"
	"github.com/xhad/citedoc/pkg/llm"
	"github.com/xhad/citedoc/pkg/llm/llmtest"
)

func newSynthesizer(t *testing.T, model *llmtest.FakeModel, maxChars int) *llm.Synthesizer {
	t.Helper()
	s, err := llm.NewWithModel(llm.SynthesizerConfig{MaxContextChars: maxChars}, model)
	require.NoError(t, err)
	return s
}

func TestNewWithModel_Validation(t *testing.T) {
	model := &llmtest.FakeModel{}

	tooHot := 3.0
	_, err := llm.NewWithModel(llm.SynthesizerConfig{Temperature: &tooHot}, model)
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.SynthesizerConfig{MaxTokens: -1}, model)
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.SynthesizerConfig{}, nil)
	assert.Error(t, err)

	s, err := llm.NewWithModel(llm.SynthesizerConfig{}, model)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGoogleAI, s.Provider())
}

func TestSynthesize_SingleRequestWithInstructionAndContext(t *testing.T) {
	model := &llmtest.FakeModel{Respond: func(string) (string, error) { return "# Report", nil }}
	s := newSynthesizer(t, model, 0)

	ctxBlob := aggregator.Aggregate([]models.ExtractedText{
		{Label: "File: a.txt", Text: "Revenue grew 10%."},
	})
	text, err := s.Synthesize(context.Background(), ctxBlob, "Summarize the revenue")
	require.NoError(t, err)
	assert.Equal(t, "# Report", text)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"Summarize the revenue"`)
	assert.Contains(t, prompts[0], "Revenue grew 10%.")
	assert.Contains(t, prompts[0], "(Source: ")
}

func TestSynthesize_ZeroTemperature(t *testing.T) {
	var zero float64
	model := &llmtest.FakeModel{}
	s, err := llm.NewWithModel(llm.SynthesizerConfig{Temperature: &zero}, model)
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "ctx", "x")
	require.NoError(t, err)
	require.Len(t, model.Options(), 1)
	assert.Equal(t, 0.0, model.Options()[0].Temperature)
}

func TestBuildPrompt_InstructionVerbatim(t *testing.T) {
	instruction := "Summarize \"Q3\" results\nthen list risks\tby owner"
	prompt := llm.BuildPrompt(instruction, "ctx")

	assert.Contains(t, prompt, instruction)
	assert.Contains(t, prompt, `User instruction: "Summarize "Q3" results`)
	assert.NotContains(t, prompt, `\"Q3\"`)
}

func TestSynthesize_DefaultInstruction(t *testing.T) {
	model := &llmtest.FakeModel{}
	s := newSynthesizer(t, model, 0)

	_, err := s.Synthesize(context.Background(), aggregator.Aggregate(nil), "  ")
	require.NoError(t, err)
	assert.Contains(t, model.Prompts()[0], llm.DefaultInstruction)
}

func TestSynthesize_Errors(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		model := &llmtest.FakeModel{Respond: func(string) (string, error) { return "", boom }}

		_, err := newSynthesizer(t, model, 0).Synthesize(context.Background(), "ctx", "x")
		assert.True(t, errors.Is(err, llm.ErrSynthesisFailed))
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("empty response", func(t *testing.T) {
		model := &llmtest.FakeModel{Respond: func(string) (string, error) { return " \n", nil }}

		_, err := newSynthesizer(t, model, 0).Synthesize(context.Background(), "ctx", "x")
		assert.True(t, errors.Is(err, llm.ErrSynthesisFailed))
	})

	t.Run("context too large", func(t *testing.T) {
		model := &llmtest.FakeModel{}

		_, err := newSynthesizer(t, model, 10).Synthesize(context.Background(), strings.Repeat("x", 11), "x")
		assert.True(t, errors.Is(err, aggregator.ErrContextTooLarge))
		assert.Empty(t, model.Prompts(), "no request should be made")
	})
}

func TestSynthesizeDocument_CitesEverySource(t *testing.T) {
	model := &llmtest.FakeModel{}
	s := newSynthesizer(t, model, 0)

	req := models.GenerationRequest{
		Sources: []models.ExtractedText{
			{Label: "File: a.txt", Text: "Revenue grew 10%."},
			{Label: "URL: https://example.com/page", Text: "Costs stayed flat."},
		},
		Instruction: "Summarize",
		Format:      models.FormatMarkdown,
	}
	result, err := s.SynthesizeDocument(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.FormatMarkdown, result.Format)
	assert.Contains(t, result.Text, "(Source: File: a.txt)")
	assert.Contains(t, result.Text, "(Source: URL: https://example.com/page)")
}

func TestSynthesizeDocument_NoSources(t *testing.T) {
	model := &llmtest.FakeModel{}
	_, err := newSynthesizer(t, model, 0).SynthesizeDocument(context.Background(), models.GenerationRequest{})
	assert.True(t, errors.Is(err, models.ErrNoSources))
	assert.Empty(t, model.Prompts())
}

func TestMissingCitations(t *testing.T) {
	text := "Growth was 10% (Source: a.txt). Costs were flat (Source: URL: https://x.test)."
	missing := llm.MissingCitations(text, []string{"File: a.txt", "URL: https://x.test", "File: b.pdf"})
	assert.Equal(t, []string{"File: b.pdf"}, missing)
}

func TestNormalizeProvider(t *testing.T) {
	tests := map[string]string{
		"":         llm.ProviderGoogleAI,
		"gemini":   llm.ProviderGoogleAI,
		"GoogleAI": llm.ProviderGoogleAI,
		"ollama":   llm.ProviderOllama,
	}
	for in, want := range tests {
		got, err := llm.NormalizeProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := llm.NormalizeProvider("openai-ish")
	assert.Error(t, err)
}

func TestNewModel_GoogleAIRequiresKey(t *testing.T) {
	_, err := llm.NewModel(context.Background(), llm.ProviderConfig{Provider: "googleai"})
	assert.True(t, errors.Is(err, llm.ErrMissingAPIKey))
}

func TestNewModel_Ollama(t *testing.T) {
	model, err := llm.NewModel(context.Background(), llm.ProviderConfig{
		Provider: "ollama",
		BaseURL:  "http://localhost:1234",
	})
	require.NoError(t, err)
	assert.NotNil(t, model)
}
