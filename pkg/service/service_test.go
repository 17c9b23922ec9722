package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/extractor"
	"github.com/xhad/citedoc/pkg/llm"
	"github.com/xhad/citedoc/pkg/llm/llmtest"
	"github.com/xhad/citedoc/pkg/packager"
	"github.com/xhad/citedoc/pkg/scraper"
	"github.com/xhad/citedoc/pkg/service"
)

func newService(t *testing.T, model *llmtest.FakeModel, parallelism int) *service.Service {
	t.Helper()
	synth, err := llm.NewWithModel(llm.SynthesizerConfig{}, model)
	require.NoError(t, err)

	svc, err := service.NewWithConfig(service.ServiceConfig{
		Extractor:   extractor.New(),
		Links:       scraper.NewWithConfig(scraper.ScraperConfig{RateLimit: 100}),
		Synthesizer: synth,
		Packager:    packager.New(),
		Parallelism: parallelism,
	})
	require.NoError(t, err)
	return svc
}

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>Page %s</p></body></html>", strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewWithConfig_RequiresCollaborators(t *testing.T) {
	_, err := service.NewWithConfig(service.ServiceConfig{})
	assert.Error(t, err)
}

func TestExtractFile(t *testing.T) {
	svc := newService(t, &llmtest.FakeModel{}, 1)

	text, err := svc.ExtractFile(context.Background(), models.Source{
		Name:    "notes.txt",
		Content: []byte("Revenue grew 10%.\r\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 10%.", text)

	text, err = svc.ExtractFile(context.Background(), models.Source{
		Name:      "broken.pdf",
		MediaType: extractor.MediaPDF,
		Content:   []byte("not a pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, extractor.FailedPlaceholder("broken.pdf"), text)
}

func TestGenerate(t *testing.T) {
	model := &llmtest.FakeModel{}
	svc := newService(t, model, 1)

	artifact, err := svc.Generate(context.Background(), models.GenerationRequest{
		Sources: []models.ExtractedText{
			{Label: "File: a.txt", Text: "Revenue grew 10%."},
		},
		Format: models.FormatDocx,
	})
	require.NoError(t, err)
	assert.Equal(t, "ai_document.docx", artifact.Filename)
	assert.Equal(t, packager.ContentTypeDocx, artifact.ContentType)

	text, err := extractor.ReadDocxText(artifact.Data)
	require.NoError(t, err)
	assert.Contains(t, text, "(Source: File: a.txt)")
	assert.Len(t, model.Prompts(), 1)
}

func TestGenerate_NoSources(t *testing.T) {
	model := &llmtest.FakeModel{}
	_, err := newService(t, model, 1).Generate(context.Background(), models.GenerationRequest{})
	assert.True(t, errors.Is(err, models.ErrNoSources))
	assert.Empty(t, model.Prompts())
}

func TestProcess_PreservesOrderUnderParallelism(t *testing.T) {
	server := pageServer(t)
	model := &llmtest.FakeModel{}
	svc := newService(t, model, 4)

	files := []models.Source{
		{Name: "a.txt", Content: []byte("alpha")},
		{Name: "b.md", Content: []byte("beta")},
	}
	links := []string{server.URL + "/one", server.URL + "/two"}

	chunks, err := svc.ExtractAll(context.Background(), files, links)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "a.txt", chunks[0].Label)
	assert.Equal(t, "b.md", chunks[1].Label)
	assert.Equal(t, links[0], chunks[2].Label)
	assert.Equal(t, "Page one", chunks[2].Text)
	assert.Equal(t, links[1], chunks[3].Label)
	assert.Equal(t, models.KindLink, chunks[3].Kind)

	text, err := svc.Process(context.Background(), service.ProcessRequest{
		Instruction: "Summarize",
		Files:       files,
		Links:       links,
	})
	require.NoError(t, err)
	for _, label := range []string{"a.txt", "b.md", links[0], links[1]} {
		assert.Contains(t, text, "(Source: "+label+")")
	}
}

func TestProcess_LinkFailureBecomesPlaceholder(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	model := &llmtest.FakeModel{}
	svc := newService(t, model, 1)

	_, err := svc.Process(context.Background(), service.ProcessRequest{Links: []string{downURL}})
	require.NoError(t, err)
	assert.Contains(t, model.Prompts()[0], scraper.FailedPlaceholder(downURL))
}

func TestProcess_SynthesisFailure(t *testing.T) {
	model := &llmtest.FakeModel{Respond: func(string) (string, error) { return "", errors.New("down") }}
	_, err := newService(t, model, 1).Process(context.Background(), service.ProcessRequest{
		Files: []models.Source{{Name: "a.txt", Content: []byte("x")}},
	})
	assert.True(t, errors.Is(err, llm.ErrSynthesisFailed))
}
