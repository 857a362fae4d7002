package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/handler"
	internalmiddleware "github.com/cetinnova/registro-escolar/internal/middleware"
	"github.com/cetinnova/registro-escolar/internal/service"
	"github.com/cetinnova/registro-escolar/pkg/config"
	"github.com/cetinnova/registro-escolar/pkg/logger"
	corsmiddleware "github.com/cetinnova/registro-escolar/pkg/middleware/cors"
	reqidmiddleware "github.com/cetinnova/registro-escolar/pkg/middleware/requestid"
)

type services struct {
	auth     *service.AuthService
	students *service.StudentService
	roster   *service.RosterExportService
	payments *service.PaymentService
	courses  *service.CourseService
	uniforms *service.UniformService
	receipts *service.ReceiptService
	metrics  *service.MetricsService
	checks   map[string]handler.ReadinessCheck
}

func newRouter(cfg *config.Config, logr *zap.Logger, svc services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(svc.metrics, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(svc.metrics, svc.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(svc.auth)
	studentHandler := handler.NewStudentHandler(svc.students, svc.roster)
	paymentHandler := handler.NewPaymentHandler(svc.payments)
	courseHandler := handler.NewCourseHandler(svc.courses)
	uniformHandler := handler.NewUniformHandler(svc.uniforms)
	receiptHandler := handler.NewReceiptHandler(svc.receipts)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/receipts/download/:token", receiptHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(svc.auth))

	secured.GET("/auth/me", authHandler.Me)

	students := secured.Group("/students")
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)
	students.GET("/options", studentHandler.Options)
	students.GET("/catalog", studentHandler.Catalog)
	students.GET("/export", studentHandler.Export)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", studentHandler.Update)
	students.DELETE("/:id", studentHandler.Delete)

	payments := secured.Group("/payments")
	payments.GET("/search", paymentHandler.Search)
	payments.GET("/methods", paymentHandler.Methods)
	payments.GET("/mora-preview", paymentHandler.MoraPreview)
	payments.POST("/students/:id/select", paymentHandler.Select)
	payments.GET("/students/:id", paymentHandler.View)
	payments.POST("/students/:id/flat/:category", paymentHandler.FlatFee)
	payments.POST("/students/:id/tuition", paymentHandler.Tuition)
	payments.POST("/students/:id/courses", paymentHandler.Course)
	payments.POST("/students/:id/graduation", paymentHandler.Graduation)

	courses := secured.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/months", courseHandler.Months)
	courses.GET("/search", paymentHandler.SearchIn(service.SearchCourses))
	courses.GET("/students/:id/summary", courseHandler.Summary)

	uniforms := secured.Group("/uniforms")
	uniforms.GET("/search", paymentHandler.SearchIn(service.SearchUniforms))
	uniforms.GET("/categories", uniformHandler.Categories)
	uniforms.GET("/students/:id/categories", uniformHandler.StudentCategory)
	uniforms.GET("/students/:id/sizes", uniformHandler.Sizes)
	uniforms.POST("/students/:id/sizes", uniformHandler.SaveSizes)
	uniforms.DELETE("/sizes/:sizeId", uniformHandler.DeleteSize)

	secured.GET("/receipts/students/:id", receiptHandler.ListByStudent)

	return r
}
