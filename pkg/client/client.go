// Package client talks to a citedoc server over its HTTP endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/xhad/citedoc/internal/api"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/logger"
	"go.uber.org/zap"
)

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		http:    config.HTTPClient,
		logger:  logger.OrNop(config.Logger),
	}, nil
}

// ExtractFile uploads one file and returns its text. Text already read on
// the client side travels in the text field and wins over the payload.
func (c *Client) ExtractFile(ctx context.Context, src models.Source) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, api.FieldFile, src.Name))
	contentType := src.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(src.Content); err != nil {
		return "", err
	}
	if src.Text != "" {
		if err := mw.WriteField(api.FieldText, src.Text); err != nil {
			return "", err
		}
	}
	if src.MediaType != "" {
		if err := mw.WriteField(api.FieldType, src.MediaType); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out api.TextResponse
	if err := c.do(ctx, api.PathExtractFile, mw.FormDataContentType(), &body, &out); err != nil {
		return "", fmt.Errorf("extract file %s: %w", src.Name, err)
	}
	return out.Text, nil
}

func (c *Client) ExtractLink(ctx context.Context, rawURL string) (string, error) {
	var out api.TextResponse
	if err := c.postJSON(ctx, api.PathExtractLink, api.LinkRequest{URL: rawURL}, &out); err != nil {
		return "", fmt.Errorf("extract link %s: %w", rawURL, err)
	}
	return out.Text, nil
}

// Generate returns the artifact the server produced. The file name comes
// from Content-Disposition, falling back to the one implied by the format.
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) (*models.Artifact, error) {
	payload, err := json.Marshal(api.GenerateRequest{
		Sources:     req.Sources,
		Format:      string(req.Format),
		Instruction: req.Instruction,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, api.PathGenerate, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generate: read body: %w", err)
	}

	filename := req.Format.ArtifactName()
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}

	return &models.Artifact{
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Process calls the one-shot endpoint and returns the Markdown document.
func (c *Client) Process(ctx context.Context, req api.ProcessRequest) (string, error) {
	var out api.ProcessResponse
	if err := c.postJSON(ctx, api.PathProcess, req, &out); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("process: %s", out.Error)
	}
	return out.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	resp, err := c.send(ctx, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send posts the body and turns non-2xx answers into *APIError.
func (c *Client) send(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("request finished",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return nil, apiErr
	}
	return resp, nil
}
