package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/frc-sh/scores-api/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	highScores *usecase.HighScoreService
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(highScores *usecase.HighScoreService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		highScores: highScores,
		logger:     logger,
		validator:  validator.New(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Health")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type highScoresRequest struct {
	Year  int    `validate:"required,min=1992"`
	Event string `validate:"omitempty,min=1,max=64,printascii"`
}

func (h *Handler) ListYearHighScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListYearHighScores")
	defer span.End()

	req, err := h.parseRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.highScores.ListByYear(ctx, req.Year)
	if err != nil {
		h.logger.WarnContext(ctx, "list year high scores failed", "year", req.Year, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toHighScoresDTO(entries))
}

func (h *Handler) ListEventHighScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEventHighScores")
	defer span.End()

	req, err := h.parseRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.highScores.ListByEvent(ctx, req.Year, req.Event)
	if err != nil {
		h.logger.WarnContext(ctx, "list event high scores failed",
			"year", req.Year, "event", req.Event, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toHighScoresDTO(entries))
}

func (h *Handler) parseRequest(r *http.Request) (highScoresRequest, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return highScoresRequest{}, fmt.Errorf("%w: year must be a number", usecase.ErrInvalidInput)
	}

	req := highScoresRequest{Year: year, Event: r.PathValue("event")}
	if err := h.validator.Struct(req); err != nil {
		return highScoresRequest{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}
