package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/metrics"
	"github.com/xhad/citedoc/pkg/processor"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TextSelector lists the elements whose text makes up a page, in document order.
const TextSelector = "p, h1, h2, h3, h4, li"

var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrFetchFailed = errors.New("failed to fetch link")
)

type ScraperConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
	UserAgent string
	// MaxBodyBytes caps how much of a page is read.
	MaxBodyBytes int64
	// Readability distills the main article before collecting text.
	Readability bool
	Client      *http.Client
	Logger      *zap.Logger
	OnProgress  func(url string)
}

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.UserAgent == "" {
		config.UserAgent = "citedoc/1.0"
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 10 << 20
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Scraper{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  logger.OrNop(config.Logger),
	}
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

// ExtractLink fetches the page and returns the text of its headings,
// paragraphs and list items, one per line. A page without such elements
// yields a placeholder; transport and status failures are errors.
func (s *Scraper) ExtractLink(ctx context.Context, rawURL string) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}

	if s.config.OnProgress != nil {
		s.config.OnProgress(u.String())
	}

	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, contentType, err := s.fetch(ctx, u)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("link", "error").Inc()
		s.logger.Warn("link fetch failed", zap.String("url", u.String()), zap.Error(err))
		return "", fmt.Errorf("%w %s: %v", ErrFetchFailed, u, err)
	}

	html := string(body)
	if s.config.Readability {
		html = s.distill(html, u)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", u, err)
	}

	text := processor.Normalize(extractElementText(doc))
	if text == "" {
		metrics.ExtractionsTotal.WithLabelValues("link", "placeholder").Inc()
		s.logger.Info("no text elements found",
			zap.String("url", u.String()),
			zap.String("content_type", contentType))
		return NoContentPlaceholder, nil
	}

	metrics.ExtractionsTotal.WithLabelValues("link", "ok").Inc()
	return text, nil
}

// Extract is the lenient form used for batches: fetch failures become a
// placeholder instead of an error.
func (s *Scraper) Extract(ctx context.Context, rawURL string) models.ExtractedText {
	text, err := s.ExtractLink(ctx, rawURL)
	if err != nil {
		text = FailedPlaceholder(rawURL)
	}
	return models.ExtractedText{
		Label: rawURL,
		Kind:  models.KindLink,
		Text:  text,
	}
}

func (s *Scraper) fetch(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("received status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// distill returns readability's cleaned article HTML, or the original page
// when readability cannot find an article.
func (s *Scraper) distill(html string, u *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		s.logger.Debug("readability found no article", zap.String("url", u.String()), zap.Error(err))
		return html
	}
	return article.Content
}

func extractElementText(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find(TextSelector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteByte('\n')
	})
	return b.String()
}

const NoContentPlaceholder = "Could not extract main text content from this link."

func FailedPlaceholder(rawURL string) string {
	return fmt.Sprintf("Failed to fetch content from link %s.", rawURL)
}
