package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lenterailmu/ujian-backend/internal/middleware"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
	"github.com/lenterailmu/ujian-backend/internal/response"
	"github.com/lenterailmu/ujian-backend/internal/validator"
)

// TeacherExamHandler handles exam authoring endpoints.
type TeacherExamHandler struct {
	exams     *repository.ExamRepository
	questions *repository.QuestionRepository
	cohorts   *repository.CohortRepository
}

// NewTeacherExamHandler creates a new TeacherExamHandler.
func NewTeacherExamHandler(
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	cohorts *repository.CohortRepository,
) *TeacherExamHandler {
	return &TeacherExamHandler{
		exams:     exams,
		questions: questions,
		cohorts:   cohorts,
	}
}

// ListExams godoc
// GET /api/v1/teacher/exams
// Lists the caller's own exams with pagination.
func (h *TeacherExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := h.exams.ListByAuthorPaginated(
		c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// CreateExam godoc
// POST /api/v1/teacher/exams
// Defines a new exam. Windowed exams need a cohort and a window; the schema
// enforces the window ordering.
func (h *TeacherExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if req.AccessMode == model.AccessModeWindowed &&
		(req.CohortID == nil || req.WindowStart == nil || req.WindowEnd == nil) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	exam := &model.Exam{
		Title:           req.Title,
		AuthorID:        claims.UserID,
		AccessMode:      req.AccessMode,
		CohortID:        req.CohortID,
		Topic:           req.Topic,
		WindowStart:     req.WindowStart,
		WindowEnd:       req.WindowEnd,
		DurationMinutes: req.DurationMinutes,
		ContentMode:     req.ContentMode,
		DocumentRef:     req.DocumentRef,
		AnswerKey:       req.AnswerKey,
	}
	if err := h.exams.Create(c.Request.Context(), exam); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// AddQuestion godoc
// POST /api/v1/teacher/exams/:exam_id/questions
// Appends a question to one of the caller's structured-mode exams.
func (h *TeacherExamHandler) AddQuestion(c *gin.Context) {
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

	exam, err := h.exams.GetByID(c.Request.Context(), examID)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exam.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}
	if exam.ContentMode != model.ContentModeStructured {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		OrderNum:      req.OrderNum,
	}
	if err := h.questions.Add(c.Request.Context(), q); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// CreateCohort godoc
// POST /api/v1/teacher/cohorts
func (h *TeacherExamHandler) CreateCohort(c *gin.Context) {
	var req model.CreateCohortRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cohort := &model.Cohort{Name: req.Name}
	if err := h.cohorts.Create(c.Request.Context(), cohort); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"cohort": cohort})
}

// AddCohortMember godoc
// POST /api/v1/teacher/cohorts/:cohort_id/members
// Enrolls a student. Re-enrolling is a no-op.
func (h *TeacherExamHandler) AddCohortMember(c *gin.Context) {
	cohortID, err := parseIntParam(c, "cohort_id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddCohortMemberRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.cohorts.AddMember(c.Request.Context(), cohortID, req.StudentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
