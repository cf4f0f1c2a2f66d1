package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/handler"
	"github.com/lenterailmu/ujian-backend/internal/middleware"
	"github.com/lenterailmu/ujian-backend/internal/response"
	"github.com/lenterailmu/ujian-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	TeacherExam   *handler.TeacherExamHandler
	Report        *handler.ReportHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Login) ─────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleLogin(authService),
	)
	{
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/exams/:exam_id/enter", handlers.StudentPortal.Enter)
		studentAPI.POST("/exams/:exam_id/finish", handlers.StudentPortal.FinishExam)
		studentAPI.POST("/exit", handlers.StudentPortal.Exit)
		studentAPI.GET("/sessions/:session_id", handlers.StudentPortal.GetSession)
		studentAPI.GET("/sessions/:session_id/questions", handlers.StudentPortal.GetQuestions)
		studentAPI.POST("/sessions/:session_id/answers", handlers.StudentPortal.SubmitAnswers)
		studentAPI.GET("/sessions/:session_id/answers", handlers.StudentPortal.GetAnswers)
		studentAPI.POST("/sessions/:session_id/finish", handlers.StudentPortal.Finish)
		studentAPI.GET("/sessions/:session_id/score", handlers.StudentPortal.Score)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.GET("/exams", handlers.TeacherExam.ListExams)
		teacherAPI.POST("/exams", handlers.TeacherExam.CreateExam)
		teacherAPI.POST("/exams/:exam_id/questions", handlers.TeacherExam.AddQuestion)
		teacherAPI.POST("/cohorts", handlers.TeacherExam.CreateCohort)
		teacherAPI.POST("/cohorts/:cohort_id/members", handlers.TeacherExam.AddCohortMember)

		teacherAPI.GET("/exams/:exam_id/report", handlers.Report.ExamReport)
		teacherAPI.GET("/sessions/:session_id/audit", handlers.Report.SessionAuditTrail)
	}

	return router
}
