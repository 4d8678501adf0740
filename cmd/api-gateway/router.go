package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/handler"
	"github.com/noah-isme/academic-grading-api/internal/middleware"
	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/pkg/config"
	"github.com/noah-isme/academic-grading-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-grading-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-grading-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth    middleware.TokenValidator
	metrics middleware.RequestObserver

	authHandler   *handler.AuthHandler
	curriculum    *handler.CurriculumHandler
	students      *handler.StudentHandler
	marks         *handler.MarksHandler
	rosters       *handler.RosterHandler
	grades        *handler.GradeHandler
	programGrades *handler.ProgramGradeHandler
	ops           *handler.MetricsHandler
}

var opsPaths = []string{"/health", "/ready", "/metrics"}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, opsPaths...))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, opsPaths...))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", deps.authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	readers := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	writers := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/auth/me", deps.authHandler.Me)
	secured.GET("/metrics/summary", writers, deps.ops.Summary)

	secured.GET("/programs", readers, deps.curriculum.ListPrograms)
	secured.GET("/programs/:id", readers, deps.curriculum.GetProgram)
	secured.POST("/programs", writers, deps.curriculum.CreateProgram)

	secured.GET("/semesters", readers, deps.curriculum.ListSemesters)
	secured.GET("/semesters/:id", readers, deps.curriculum.GetSemester)
	secured.POST("/semesters", writers, deps.curriculum.CreateSemester)
	secured.PUT("/semesters/:id", writers, deps.curriculum.UpdateSemester)
	secured.DELETE("/semesters/:id", writers, deps.curriculum.DeleteSemester)

	secured.GET("/courses", readers, deps.curriculum.ListCourses)
	secured.GET("/courses/:id", readers, deps.curriculum.GetCourse)
	secured.POST("/courses", writers, deps.curriculum.CreateCourse)
	secured.PUT("/courses/:id", writers, deps.curriculum.UpdateCourse)
	secured.DELETE("/courses/:id", writers, deps.curriculum.DeleteCourse)

	secured.GET("/students", readers, deps.students.List)
	secured.GET("/students/:id", readers, deps.students.Get)
	secured.POST("/students", writers, deps.students.Create)
	secured.PUT("/students/:id", writers, deps.students.Update)
	secured.DELETE("/students/:id", writers, deps.students.Delete)

	secured.GET("/marks", readers, deps.marks.Get)
	secured.PUT("/marks", readers, deps.marks.Upsert)
	secured.GET("/rosters", readers, deps.rosters.Get)

	secured.POST("/grades/check", readers, deps.grades.Check)
	secured.POST("/grades/batch/:operation", writers, deps.grades.Batch)

	secured.GET("/course-grades", readers, deps.grades.ListCourseGrades)
	secured.POST("/course-grades", writers, deps.grades.CreateCourseGrade)
	secured.PUT("/course-grades", writers, deps.grades.UpdateCourseGrade)
	secured.DELETE("/course-grades/:id", writers, deps.grades.DeleteCourseGrade)

	secured.GET("/semester-grades", readers, deps.grades.ListSemesterGrades)
	secured.GET("/semester-grades/export", readers, deps.grades.ExportSemesterGrades)
	secured.POST("/semester-grades", writers, deps.grades.InitSemesterGrade)
	secured.POST("/semester-grades/:id/recalculate", writers, deps.grades.RecalculateSemesterGrade)

	secured.GET("/program-grades", readers, deps.programGrades.List)
	secured.GET("/program-grades/:id", readers, deps.programGrades.Get)
	secured.POST("/program-grades/recompute", writers, deps.programGrades.Recompute)
	secured.DELETE("/program-grades/:id", writers, deps.programGrades.Delete)

	return r
}
