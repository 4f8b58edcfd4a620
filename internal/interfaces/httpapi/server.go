package httpapi

import (
	"net/http"

	"github.com/frc-sh/scores-api/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /scores/year/{year}", handler.ListYearHighScores)
	mux.HandleFunc("GET /scores/year/{year}/event/{event}", handler.ListEventHighScores)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}
