package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xhad/citedoc/internal/api"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/service"
	"go.uber.org/zap"
)

func (s *Server) handleExtractFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	header, err := c.FormFile(api.FieldFile)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	mediaType := c.PostForm(api.FieldType)
	if mediaType == "" {
		mediaType = header.Header.Get("Content-Type")
	}

	text, err := s.pipeline.ExtractFile(c.Request.Context(), models.Source{
		Name:      header.Filename,
		MediaType: mediaType,
		Content:   data,
		Text:      c.PostForm(api.FieldText),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TextResponse{Text: text})
}

func (s *Server) handleExtractLink(c *gin.Context) {
	var req api.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	text, err := s.pipeline.ExtractLink(c.Request.Context(), req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TextResponse{Text: text})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	format, err := models.ParseFormat(req.Format)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	artifact, err := s.pipeline.Generate(c.Request.Context(), models.GenerationRequest{
		Sources:     req.Sources,
		Instruction: req.Instruction,
		Format:      format,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (s *Server) handleProcess(c *gin.Context) {
	var req api.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status, msg := statusFor(fmt.Errorf("%w: %v", errBadRequest, err))
		c.JSON(status, api.ProcessResponse{Error: msg})
		return
	}

	files := make([]models.Source, len(req.Files))
	for i, f := range req.Files {
		files[i] = f.Source()
	}

	text, err := s.pipeline.Process(c.Request.Context(), service.ProcessRequest{
		Instruction: req.Prompt,
		Files:       files,
		Links:       req.Links,
	})
	if err != nil {
		status, msg := statusFor(err)
		s.logError(c, status, err)
		c.JSON(status, api.ProcessResponse{Error: msg})
		return
	}
	c.JSON(http.StatusOK, api.ProcessResponse{Success: true, Data: text})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	s.logError(c, status, err)
	c.JSON(status, api.ErrorResponse{Error: msg})
}

func (s *Server) logError(c *gin.Context, status int, err error) {
	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
		return
	}
	s.logger.Warn("request rejected", fields...)
}
