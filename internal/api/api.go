// Package api holds the JSON bodies shared by the HTTP server and client.
package api

import (
	"encoding/json"

	"github.com/xhad/citedoc/internal/models"
)

const (
	PathExtractFile = "/api/extract/file"
	PathExtractLink = "/api/extract/link"
	PathGenerate    = "/api/generate"
	PathProcess     = "/api/process"
	PathWebSocket   = "/ws"
)

// Multipart field names for PathExtractFile.
const (
	FieldFile = "file"
	FieldText = "text"
	FieldType = "type"
)

type TextResponse struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type LinkRequest struct {
	URL string `json:"url"`
}

type GenerateRequest struct {
	Sources     []models.ExtractedText `json:"sources"`
	Format      string                 `json:"format"`
	Instruction string                 `json:"instruction,omitempty"`
}

// File is an uploaded file inside a JSON body. Content is base64 on the wire.
type File struct {
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	Content       []byte `json:"content,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

func (f File) Source() models.Source {
	return models.Source{
		Name:      f.Name,
		MediaType: f.Type,
		Content:   f.Content,
		Text:      f.ExtractedText,
	}
}

type ProcessRequest struct {
	Prompt string   `json:"prompt"`
	Files  []File   `json:"files"`
	Links  []string `json:"links"`
}

type ProcessResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Websocket message types.
const (
	MessageGenerate = "generate"
	MessageStatus   = "status"
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type GenerateSession struct {
	Files       []File   `json:"files"`
	Links       []string `json:"links"`
	Format      string   `json:"format"`
	Instruction string   `json:"instruction,omitempty"`
}

type Status struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

type Progress struct {
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
}

type Result struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}
