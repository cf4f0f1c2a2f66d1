package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lenterailmu/ujian-backend/internal/middleware"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
	"github.com/lenterailmu/ujian-backend/internal/response"
	"github.com/lenterailmu/ujian-backend/internal/service"
)

// ReportHandler handles teacher-facing review endpoints.
type ReportHandler struct {
	reportService *service.ReportService
	exams         *repository.ExamRepository
	sessions      *repository.SessionRepository
	audit         *repository.AuditRepository
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	reportService *service.ReportService,
	exams *repository.ExamRepository,
	sessions *repository.SessionRepository,
	audit *repository.AuditRepository,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exams:         exams,
		sessions:      sessions,
		audit:         audit,
	}
}

// ExamReport godoc
// GET /api/v1/teacher/exams/:exam_id/report
// Per-student score breakdown for one of the caller's exams. Scores are
// computed from the ledger at read time, including for running sessions.
func (h *ReportHandler) ExamReport(c *gin.Context) {
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

	if !h.ownsExam(c, examID, claims.UserID) {
		return
	}

	entries, err := h.reportService.ExamReport(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []service.ReportEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"report": entries})
}

// SessionAuditTrail godoc
// GET /api/v1/teacher/sessions/:session_id/audit
// Full login/logout history for one session, in recorded order. The trail is
// append-only; what the worker managed to persist is what shows here.
func (h *ReportHandler) SessionAuditTrail(c *gin.Context) {
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

	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if !h.ownsExam(c, sess.ExamID, claims.UserID) {
		return
	}

	entries, err := h.audit.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.SessionAuditEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"audit": entries})
}

// ownsExam rejects the request unless the caller authored the exam. Writes
// the failure response itself and returns false.
func (h *ReportHandler) ownsExam(c *gin.Context, examID uuid.UUID, teacherID int) bool {
	exam, err := h.exams.GetByID(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return false
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return false
	}
	if exam.AuthorID != teacherID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return false
	}
	return true
}
