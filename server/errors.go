package server

import (
	"errors"
	"net/http"

	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/aggregator"
	"github.com/xhad/citedoc/pkg/llm"
	"github.com/xhad/citedoc/pkg/packager"
	"github.com/xhad/citedoc/pkg/scraper"
)

// AIErrorMessage is all a caller learns about a failed synthesis; the cause
// is only logged.
const AIErrorMessage = "An error occurred while communicating with the AI service."

var errBadRequest = errors.New("bad request")

// statusFor maps pipeline errors to an HTTP status and the message shown to
// the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, scraper.ErrInvalidURL),
		errors.Is(err, models.ErrNoSources),
		errors.Is(err, packager.ErrUnknownFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, aggregator.ErrContextTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, scraper.ErrFetchFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, llm.ErrSynthesisFailed):
		return http.StatusInternalServerError, AIErrorMessage
	default:
		return http.StatusInternalServerError, "Failed to generate document."
	}
}
