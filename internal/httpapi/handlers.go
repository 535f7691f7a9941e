package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/flashcards"
	"github.com/vaibhavp4/kompow/internal/knowledge"
	"github.com/vaibhavp4/kompow/internal/pipeline"
	"github.com/vaibhavp4/kompow/internal/sanitize"
)

// GenerateRequest is the request body for POST /api/v1/flashcards/generate.
type GenerateRequest struct {
	Topic string `json:"topic"`

	// UserID is optional; the configured default user owns the set when
	// absent.
	UserID string `json:"user_id,omitempty"`
}

// GenerateResponse is the response body for POST /api/v1/flashcards/generate.
type GenerateResponse struct {
	Flashcards      []flashcards.Card `json:"flashcards"`
	Message         string            `json:"message"`
	ResearchSnippet string            `json:"research_snippet,omitempty"`
	Stored          bool              `json:"stored"`
}

// handleGenerate researches a topic, generates flashcards, and stores them
// under the requesting user.
func (s *Server) handleGenerate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid generate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic field is required")
	}
	userID := req.UserID
	if userID == "" {
		userID = s.config.DefaultUser
	}
	if err := sanitize.ValidateUserID(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	col, err := s.opener.Open(userID)
	if err != nil {
		s.logger.Warn("opening collection failed",
			zap.String("user_id", userID), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge store unavailable")
	}

	result, err := s.pipeline.GenerateForTopic(c.Request().Context(), col, userID, req.Topic)
	if err != nil {
		return s.mapGenerateError(err)
	}

	message := "Flashcards generated successfully"
	if !result.Stored {
		message = "Flashcards generated but could not be stored"
	}
	return c.JSON(http.StatusOK, GenerateResponse{
		Flashcards:      result.Cards,
		Message:         message,
		ResearchSnippet: snippet(result.Research, 200),
		Stored:          result.Stored,
	})
}

// mapGenerateError converts pipeline failures to HTTP status codes:
// missing capability is 503, caller mistakes are 400, everything else 500.
func (s *Server) mapGenerateError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, pipeline.ErrNoProducer):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "flashcard generation is not configured")
	case errors.Is(err, pipeline.ErrEmptyTopic):
		return echo.NewHTTPError(http.StatusBadRequest, "topic field is required")
	case errors.Is(err, knowledge.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge store unavailable")
	case errors.Is(err, pipeline.ErrInsufficientResearch):
		s.logger.Warn("generation failed on research gate", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not research enough content for this topic")
	case errors.Is(err, pipeline.ErrNoCards):
		s.logger.Warn("generation produced no flashcards", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "generation produced no flashcards")
	default:
		s.logger.Error("generate request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// SetsResponse is the response body for GET /api/v1/flashcards.
type SetsResponse struct {
	Sets []flashcards.Set `json:"sets"`
}

// handleListSets returns stored flashcard sets for a user, newest first.
func (s *Server) handleListSets(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if err := sanitize.ValidateUserID(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id query parameter is required")
	}

	limit := flashcards.DefaultRetrieveLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	col, err := s.opener.Open(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge store unavailable")
	}
	if col.Degraded() {
		// Stored sets exist but cannot be retrieved without an embedder;
		// empty results would be misleading here.
		return echo.NewHTTPError(http.StatusServiceUnavailable, "retrieval unavailable: no embedding service configured")
	}

	sets := s.repo.RetrieveSets(c.Request().Context(), col, userID, c.QueryParam("topic"), limit)
	if sets == nil {
		sets = []flashcards.Set{}
	}
	return c.JSON(http.StatusOK, SetsResponse{Sets: sets})
}

// TopicsResponse is the response body for GET /api/v1/flashcards/topics.
type TopicsResponse struct {
	Topics []string `json:"topics"`
}

// handleListTopics returns the distinct topics a user has flashcards for.
func (s *Server) handleListTopics(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if err := sanitize.ValidateUserID(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id query parameter is required")
	}

	col, err := s.opener.Open(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge store unavailable")
	}
	if col.Degraded() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "retrieval unavailable: no embedding service configured")
	}

	topics := s.repo.ListTopics(c.Request().Context(), col, userID)
	if topics == nil {
		topics = []string{}
	}
	return c.JSON(http.StatusOK, TopicsResponse{Topics: topics})
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
