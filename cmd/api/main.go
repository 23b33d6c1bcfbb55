package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ermix/school-api/api/swagger"
	"github.com/ermix/school-api/internal/handler"
	"github.com/ermix/school-api/internal/middleware"
	"github.com/ermix/school-api/internal/repository"
	"github.com/ermix/school-api/internal/service"
	"github.com/ermix/school-api/pkg/cache"
	"github.com/ermix/school-api/pkg/config"
	"github.com/ermix/school-api/pkg/database"
	"github.com/ermix/school-api/pkg/logger"
	corsmiddleware "github.com/ermix/school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ermix/school-api/pkg/middleware/requestid"
)

// @title School API
// @version 1.0.0
// @description School administration backend: students, teachers, courses, enrollments and grades
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, averages uncached", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	userRepo := repository.NewUserRepository(db)

	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, courseSvc, metrics, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, cacheRepo, cfg.Cache.AverageTTL, metrics, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, courseRepo, gradeRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)

	studentHandler := handler.NewStudentHandler(studentSvc)
	transcriptHandler := handler.NewTranscriptHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	guard := middleware.JWTAuth(authSvc)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", guard, authHandler.Me)
	}

	students := api.Group("/students")
	{
		students.GET("", studentHandler.List)
		students.GET("/search", studentHandler.Search)
		students.GET("/:id", studentHandler.Get)
		students.GET("/:id/transcript", transcriptHandler.Get)
		students.GET("/email/:email", studentHandler.GetByEmail)
		students.GET("/lastName/:lastName", studentHandler.ListByLastName)
		students.GET("/name", studentHandler.ListByName)
		students.GET("/enrollmentDate/:date", studentHandler.ListByEnrollmentDate)
		students.GET("/dateOfBirth", studentHandler.ListByDateOfBirthRange)
		students.GET("/course/:courseId", studentHandler.ListByCourse)
		students.POST("", guard, studentHandler.Create)
		students.PUT("/:id", guard, studentHandler.Update)
		students.DELETE("/:id", guard, studentHandler.Delete)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.GET("/email/:email", teacherHandler.GetByEmail)
		teachers.GET("/lastName/:lastName", teacherHandler.ListByLastName)
		teachers.GET("/name", teacherHandler.ListByName)
		teachers.GET("/specialty/:specialty", teacherHandler.ListBySpecialty)
		teachers.GET("/hiredAfter/:date", teacherHandler.ListHiredAfter)
		teachers.GET("/course/:courseId", teacherHandler.GetByCourse)
		teachers.POST("", guard, teacherHandler.Create)
		teachers.PUT("/:id", guard, teacherHandler.Update)
		teachers.DELETE("/:id", guard, teacherHandler.Delete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.GET("/:id/availability", courseHandler.Availability)
		courses.GET("/code/:code", courseHandler.GetByCode)
		courses.GET("/title/:title", courseHandler.ListByTitle)
		courses.GET("/credits/:credits", courseHandler.ListByCredits)
		courses.GET("/teacher/:teacherId", courseHandler.ListByTeacher)
		courses.GET("/specialty/:specialty", courseHandler.ListBySpecialty)
		courses.GET("/student/:studentId", courseHandler.ListByStudent)
		courses.GET("/available", courseHandler.ListAvailable)
		courses.POST("", guard, courseHandler.Create)
		courses.PUT("/:id", guard, courseHandler.Update)
		courses.DELETE("/:id", guard, courseHandler.Delete)
	}

	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.GET("/student/:studentId", enrollmentHandler.ListByStudent)
		enrollments.GET("/student/:studentId/status/:status", enrollmentHandler.ListByStudentAndStatus)
		enrollments.GET("/student/:studentId/course/:courseId", enrollmentHandler.GetByStudentAndCourse)
		enrollments.GET("/course/:courseId", enrollmentHandler.ListByCourse)
		enrollments.GET("/course/:courseId/status/:status", enrollmentHandler.ListByCourseAndStatus)
		enrollments.GET("/status/:status", enrollmentHandler.ListByStatus)
		enrollments.GET("/dateRange", enrollmentHandler.ListByDateRange)
		enrollments.POST("/enroll", guard, enrollmentHandler.Enroll)
		enrollments.PUT("/:id/status", guard, enrollmentHandler.UpdateStatus)
		enrollments.DELETE("/:id", guard, enrollmentHandler.Delete)
	}

	grades := api.Group("/grades")
	{
		grades.GET("", gradeHandler.List)
		grades.GET("/:id", gradeHandler.Get)
		grades.GET("/enrollment/:enrollmentId", gradeHandler.ListByEnrollment)
		grades.GET("/enrollment/:enrollmentId/average", gradeHandler.AverageForEnrollment)
		grades.GET("/student/:studentId", gradeHandler.ListByStudent)
		grades.GET("/student/:studentId/average", gradeHandler.AverageForStudent)
		grades.GET("/student/:studentId/course/:courseId", gradeHandler.ListByStudentAndCourse)
		grades.GET("/course/:courseId", gradeHandler.ListByCourse)
		grades.GET("/course/:courseId/average", gradeHandler.AverageForCourse)
		grades.GET("/type/:type", gradeHandler.ListByType)
		grades.GET("/dateRange", gradeHandler.ListByDateRange)
		grades.POST("", guard, gradeHandler.Create)
		grades.PUT("/:id", guard, gradeHandler.Update)
		grades.DELETE("/:id", guard, gradeHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
