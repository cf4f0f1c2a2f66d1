package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lenterailmu/ujian-backend/internal/middleware"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
	"github.com/lenterailmu/ujian-backend/internal/response"
	"github.com/lenterailmu/ujian-backend/internal/service"
	"github.com/lenterailmu/ujian-backend/internal/validator"
)

// StudentPortalHandler handles student-facing endpoints (lobby, exam taking).
type StudentPortalHandler struct {
	sessionService *service.SessionService
	scoringService *service.ScoringService
	questions      *repository.QuestionRepository
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.SessionService,
	scoringService *service.ScoringService,
	questions *repository.QuestionRepository,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService: sessionService,
		scoringService: scoringService,
		questions:      questions,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns the exams visible to the student, overlaid with session state.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if lobby == nil {
		lobby = []service.LobbyExam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": lobby})
}

// Enter godoc
// POST /api/v1/student/exams/:exam_id/enter
// Creates or resumes the student's session for the exam. Idempotent for the
// same device; a different device is rejected while the session is ACTIVE.
func (h *StudentPortalHandler) Enter(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.EnterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Enter(
		c.Request.Context(), examID, claims.UserID,
		req.DeviceID, c.ClientIP(), req.ClientInfo,
	)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":           session,
		"remaining_seconds": int64(session.Remaining(time.Now()).Seconds()),
	})
}

// GetSession godoc
// GET /api/v1/student/sessions/:session_id
// Returns the caller's session with its effective status. Covers page reload:
// the frontend re-learns status and the authoritative remaining time.
func (h *StudentPortalHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetQuestions godoc
// GET /api/v1/student/sessions/:session_id/questions
// Returns the structured-mode paper with answers stripped. Gated on owning a
// non-expired session so papers cannot be pulled without entering.
func (h *StudentPortalHandler) GetQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	if session.Status == model.SessionStatusExpired {
		response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		return
	}

	questions, err := h.questions.ListByExam(c.Request.Context(), session.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	paper := make([]model.QuestionForStudent, 0, len(questions))
	for i := range questions {
		paper = append(paper, questions[i].ForStudent())
	}

	response.Success(c, http.StatusOK, gin.H{"questions": paper})
}

// SubmitAnswers godoc
// POST /api/v1/student/sessions/:session_id/answers
// Applies a batch of answers all-or-nothing. Rejected after end_time or for
// completed sessions; a rejection leaves no partial writes.
func (h *StudentPortalHandler) SubmitAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inputs := req.Inputs()
	if len(inputs) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.sessionService.SubmitAnswers(c.Request.Context(), sessionID, claims.UserID, inputs); err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": len(inputs)})
}

// GetAnswers godoc
// GET /api/v1/student/sessions/:session_id/answers
// Returns the latest value per slot. Every submitted answer is visible here
// immediately; a completed session stays readable for results review.
func (h *StudentPortalHandler) GetAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.sessionService.GetAnswers(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// Exit godoc
// POST /api/v1/student/exit
// Gracefully pauses the caller's ACTIVE session on the given device. The
// end-time clock keeps running while paused.
func (h *StudentPortalHandler) Exit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ExitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Exit(c.Request.Context(), claims.UserID, req.DeviceID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Finish godoc
// POST /api/v1/student/sessions/:session_id/finish
// Completes the session and returns the score. Retrying a finish is a no-op
// success with the same score.
func (h *StudentPortalHandler) Finish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Finish(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	score, err := h.scoringService.ScoreSession(c.Request.Context(), session)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": session,
		"score":   score,
	})
}

// FinishExam godoc
// POST /api/v1/student/exams/:exam_id/finish
// Finish addressed by exam instead of session, for clients that only hold
// the exam ID. Resolves the caller's session for the exam and completes it
// with the same idempotent semantics as the session-keyed finish.
func (h *StudentPortalHandler) FinishExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.FinishByExam(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	score, err := h.scoringService.ScoreSession(c.Request.Context(), session)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": session,
		"score":   score,
	})
}

// Score godoc
// GET /api/v1/student/sessions/:session_id/score
// Recomputes the score from the current ledger. Works for running sessions
// too; the result is derived, never stored.
func (h *StudentPortalHandler) Score(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	score, err := h.scoringService.ScoreSession(c.Request.Context(), session)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"score": score})
}

// failSessionError maps session domain errors onto API error codes. The
// conflict-family errors carry a remediation hint so the exam client can
// route the student without string matching.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAccessDenied):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotInWindow):
		response.Fail(c, http.StatusForbidden, response.ErrNotInWindow)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.FailWithDetail(c, http.StatusConflict, response.ErrAlreadyCompleted, map[string]interface{}{
			"redirect": "results",
		})
	case errors.Is(err, service.ErrDeviceConflict):
		response.FailWithDetail(c, http.StatusConflict, response.ErrDeviceConflict, map[string]interface{}{
			"hint": "exit the session on the other device first",
		})
	case errors.Is(err, service.ErrTimeUp):
		response.Fail(c, http.StatusConflict, response.ErrTimeUp)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
	case errors.Is(err, service.ErrInvalidSlot):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSlot)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
