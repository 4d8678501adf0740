package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-grading-api/api/swagger"
	"github.com/noah-isme/academic-grading-api/internal/handler"
	"github.com/noah-isme/academic-grading-api/internal/repository"
	"github.com/noah-isme/academic-grading-api/internal/service"
	"github.com/noah-isme/academic-grading-api/pkg/cache"
	"github.com/noah-isme/academic-grading-api/pkg/config"
	"github.com/noah-isme/academic-grading-api/pkg/database"
	"github.com/noah-isme/academic-grading-api/pkg/logger"
)

// @title Academic Grading API
// @version 1.0.0
// @description Course grades, SGPA and CGPA computation for degree programs.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient)
		cacheRepo = repo
		checks["redis"] = handler.PingFunc(repo.Ping)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.RosterTTL, logr.Named("cache"), cacheRepo != nil)

	users := repository.NewUserRepository(db)
	programs := repository.NewProgramRepository(db)
	semesters := repository.NewSemesterRepository(db)
	courses := repository.NewCourseRepository(db)
	students := repository.NewStudentRepository(db)
	marks := repository.NewCourseMarkRepository(db)
	courseGrades := repository.NewCourseGradeRepository(db)
	semesterGrades := repository.NewSemesterGradeRepository(db)
	programGrades := repository.NewProgramGradeRepository(db)

	authSvc := service.NewAuthService(users, validate, logr.Named("auth"), service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		TokenTTL: cfg.JWT.Expiration,
		Issuer:   cfg.JWT.Issuer,
	})
	curriculumSvc := service.NewCurriculumService(programs, semesters, courses, cacheSvc, validate, logr.Named("curriculum"))
	studentSvc := service.NewStudentService(students, programs, cacheSvc, validate, logr.Named("students"))
	marksSvc := service.NewMarksService(marks, courses, students, cacheSvc, validate, logr.Named("marks"))
	gradeSvc := service.NewGradeService(service.GradeServiceDeps{
		Students:       students,
		Semesters:      semesters,
		Courses:        courses,
		Marks:          marks,
		CourseGrades:   courseGrades,
		SemesterGrades: semesterGrades,
		Cache:          cacheSvc,
		Metrics:        metrics,
		Concurrency:    cfg.Grading.BatchConcurrency,
	}, validate, logr.Named("grades"))
	rosterSvc := service.NewRosterService(service.RosterServiceDeps{
		Students:       students,
		Semesters:      semesters,
		Courses:        courses,
		Marks:          marks,
		CourseGrades:   courseGrades,
		SemesterGrades: semesterGrades,
		Cache:          cacheSvc,
		CacheTTL:       cfg.Cache.RosterTTL,
	}, logr.Named("rosters"))
	programGradeSvc := service.NewProgramGradeService(programGrades, semesterGrades, students, cacheSvc, cfg.Cache.ProgramGradeTTL, validate, logr.Named("program_grades"))
	exportSvc := service.NewExportService(semesterGrades, semesters, service.ExportConfig{Title: cfg.Export.Title}, logr.Named("export"), nil, nil)

	router := newRouter(cfg, logr, routerDeps{
		auth:          authSvc,
		metrics:       metrics,
		authHandler:   handler.NewAuthHandler(authSvc),
		curriculum:    handler.NewCurriculumHandler(curriculumSvc),
		students:      handler.NewStudentHandler(studentSvc),
		marks:         handler.NewMarksHandler(marksSvc),
		rosters:       handler.NewRosterHandler(rosterSvc),
		grades:        handler.NewGradeHandler(gradeSvc, exportSvc),
		programGrades: handler.NewProgramGradeHandler(programGradeSvc),
		ops:           handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Fatal("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		_ = srv.Close()
	}
	logr.Info("server stopped")
}
