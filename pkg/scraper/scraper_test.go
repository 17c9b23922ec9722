package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/citedoc/internal/models"
)

const testPage = `
<html>
	<head><title>Test Page</title></head>
	<body>
		<nav><a href="/">Home</a></nav>
		<main>
			<h1>Quarterly  Report</h1>
			<p>Revenue grew 10%.</p>
			<div>Ignored div text</div>
			<ul><li>North</li><li>South</li></ul>
			<h4>Notes</h4>
		</main>
	</body>
</html>`

func newTestScraper(t *testing.T) *Scraper {
	t.Helper()
	return NewWithConfig(ScraperConfig{RateLimit: 100, Timeout: 5 * time.Second})
}

func TestExtractLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	text, err := newTestScraper(t).ExtractLink(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report\nRevenue grew 10%.\nNorth\nSouth\nNotes", text)
}

func TestExtractLink_NoTextElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>only divs</div></body></html>`))
	}))
	defer server.Close()

	text, err := newTestScraper(t).ExtractLink(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, NoContentPlaceholder, text)
}

func TestExtractLink_Errors(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	s := newTestScraper(t)

	t.Run("status", func(t *testing.T) {
		_, err := s.ExtractLink(context.Background(), notFound.URL)
		assert.True(t, errors.Is(err, ErrFetchFailed))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := s.ExtractLink(context.Background(), downURL)
		assert.True(t, errors.Is(err, ErrFetchFailed))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := s.ExtractLink(context.Background(), "not a url")
		assert.True(t, errors.Is(err, ErrInvalidURL))
	})
}

func TestExtract_LenientPlaceholder(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	got := newTestScraper(t).Extract(context.Background(), downURL)
	assert.Equal(t, downURL, got.Label)
	assert.Equal(t, models.KindLink, got.Kind)
	assert.Equal(t, FailedPlaceholder(downURL), got.Text)
}

const articlePage = `
<html>
	<head><title>Annual results</title></head>
	<body>
		<nav><ul><li>Home</li><li>About</li></ul></nav>
		<article>
			<h1>Annual results</h1>
			<p>Revenue grew 10%. The company reported that growth was driven by strong demand in
			its northern region, where new distribution partnerships opened several markets.</p>
			<p>Operating costs stayed flat over the same period, which the board attributed to
			the consolidation of two warehouses and a renegotiated logistics contract.</p>
			<p>Management expects similar growth next year, although it cautioned that currency
			movements could reduce reported figures in the second half.</p>
		</article>
		<footer><p>Copyright</p></footer>
	</body>
</html>`

func TestExtractLink_Readability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	s := NewWithConfig(ScraperConfig{RateLimit: 100, Readability: true})
	text, err := s.ExtractLink(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Revenue grew 10%.")
}

func TestExtractLink_OnProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	var seen []string
	s := NewWithConfig(ScraperConfig{
		RateLimit:  100,
		OnProgress: func(url string) { seen = append(seen, url) },
	})

	_, err := s.ExtractLink(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL}, seen)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/docs/", true},
		{"http://localhost:8080/page.html", true},
		{"not a url", false},
		{"example.com", false},
		{"ftp://example.com/file", false},
		{"https://", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := ValidateURL(tt.url)
			assert.Equal(t, tt.valid, err == nil)
		})
	}
}
