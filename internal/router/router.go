// Package router binds handlers to the HTTP route table.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/handler"
	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/models"
)

// Handlers groups every HTTP handler served by the API. Reports may be nil
// when report generation is disabled.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Tasks        *handler.TaskHandler
	Materials    *handler.MaterialHandler
	Quizzes      *handler.QuizHandler
	Announcement *handler.AnnouncementHandler
	Fees         *handler.FeeHandler
	Dashboard    *handler.DashboardHandler
	Reports      *handler.ReportHandler
	Metrics      *handler.MetricsHandler
}

// Options configure route registration.
type Options struct {
	APIPrefix   string
	EnableDocs  bool
	Validator   middleware.TokenValidator
	AuditLogger *zap.Logger
}

// Register mounts the route table on r.
func Register(r *gin.Engine, h Handlers, opts Options) {
	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	audit := opts.AuditLogger
	if audit == nil {
		audit = zap.NewNop()
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	api.POST("/schools/register", middleware.Audit(audit, "register", "school"), h.Users.RegisterSchool)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/signup", middleware.Audit(audit, "signup", "user"), h.Auth.Signup)
	if h.Reports != nil {
		api.GET("/export/:token", h.Reports.DownloadReport)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Validator))

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/change-password", middleware.Audit(audit, "change_password", "user"), h.Auth.ChangePassword)

	secured.GET("/schools", h.Users.Schools)
	users := secured.Group("/users")
	{
		users.POST("", middleware.RequireRoles(models.RoleSchoolAdmin), middleware.Audit(audit, "create", "user"), h.Users.Create)
		users.GET("/students", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin, models.RoleManagement), h.Users.Students)
		users.GET("/teachers", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleManagement), h.Users.Teachers)
	}

	tasks := secured.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin), middleware.Audit(audit, "create", "task"), h.Tasks.Create)
		tasks.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin), middleware.Audit(audit, "delete", "task"), h.Tasks.Delete)
		tasks.GET("/:id/status", h.Tasks.Status)
		tasks.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), middleware.Audit(audit, "submit", "task"), h.Tasks.Submit)
		tasks.PUT("/:id/submissions/:studentId/grade", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin), middleware.Audit(audit, "grade", "submission"), h.Tasks.Grade)
	}

	materials := secured.Group("/materials")
	{
		materials.GET("", h.Materials.List)
		materials.GET("/:id", h.Materials.Get)
		materials.POST("", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(audit, "create", "material"), h.Materials.Create)
		materials.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(audit, "delete", "material"), h.Materials.Delete)
	}

	quizzes := secured.Group("/quizzes")
	{
		quizzes.GET("", h.Quizzes.List)
		quizzes.GET("/:id", h.Quizzes.Get)
		quizzes.POST("", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(audit, "create", "quiz"), h.Quizzes.Create)
		quizzes.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin), middleware.Audit(audit, "delete", "quiz"), h.Quizzes.Delete)
		quizzes.POST("/:id/attempts", middleware.RequireRoles(models.RoleStudent), middleware.Audit(audit, "attempt", "quiz"), h.Quizzes.Attempt)
	}

	announcements := secured.Group("/announcements")
	{
		announcements.GET("", h.Announcement.List)
		announcements.POST("", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleTeacher), middleware.Audit(audit, "create", "announcement"), h.Announcement.Create)
		announcements.DELETE("/:id", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleTeacher), middleware.Audit(audit, "delete", "announcement"), h.Announcement.Delete)
	}

	fees := secured.Group("/fees")
	{
		fees.GET("", h.Fees.List)
		fees.POST("", middleware.RequireRoles(models.RoleSchoolAdmin), middleware.Audit(audit, "create", "fee"), h.Fees.Create)
		fees.POST("/:id/pay", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleParent), middleware.Audit(audit, "pay", "fee"), h.Fees.Pay)
	}

	dashboard := secured.Group("/dashboard")
	{
		dashboard.GET("/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Student)
		dashboard.GET("/teacher", middleware.RequireRoles(models.RoleTeacher), h.Dashboard.Teacher)
		dashboard.GET("/school", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleManagement), h.Dashboard.School)
		dashboard.GET("/parent", middleware.RequireRoles(models.RoleParent), h.Dashboard.Parent)
		dashboard.GET("/management", middleware.RequireRoles(models.RoleManagement), h.Dashboard.Management)
	}

	if h.Reports != nil {
		reports := secured.Group("/reports")
		reports.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin, models.RoleManagement), middleware.Audit(audit, "generate", "report"), h.Reports.GenerateReport)
		reports.GET("/:id", h.Reports.ReportStatus)
	}

	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleManagement), h.Metrics.Summary)
}
