package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/examiner-backend/internal/http/handlers"
	httpMW "github.com/yungbote/examiner-backend/internal/http/middleware"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration

	HealthHandler    *httpH.HealthHandler
	GradingHandler   *httpH.GradingHandler
	QuestionHandler  *httpH.QuestionHandler
	AnswerHandler    *httpH.AnswerHandler
	ReasoningHandler *httpH.ReasoningHandler
	AdHocHandler     *httpH.AdHocHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Grading
		if cfg.GradingHandler != nil {
			api.POST("/grade/workflow", cfg.GradingHandler.GradeWorkflow)
			api.POST("/grade/batch/workflow", cfg.GradingHandler.GradeBatchWorkflow)
		}

		// Inline reference material, nothing stored
		if cfg.AdHocHandler != nil {
			api.POST("/grade", cfg.AdHocHandler.Grade)
			api.POST("/grade/batch", cfg.AdHocHandler.GradeBatch)
			api.POST("/analyze/concepts", cfg.AdHocHandler.AnalyzeConcepts)
			api.POST("/analyze/similarity", cfg.AdHocHandler.AnalyzeSimilarity)
		}

		// Reference material
		if cfg.QuestionHandler != nil {
			api.GET("/questions", cfg.QuestionHandler.ListQuestions)
			api.POST("/questions", cfg.QuestionHandler.CreateQuestion)
			api.GET("/questions/:id", cfg.QuestionHandler.GetQuestion)
			api.PATCH("/questions/:id/marks", cfg.QuestionHandler.UpdateMaxMarks)
			api.POST("/questions/:id/extract-concepts", cfg.QuestionHandler.ExtractConcepts)
			api.POST("/questions/:id/criteria", cfg.QuestionHandler.ReplaceCriteria)
		}

		// Answers
		if cfg.AnswerHandler != nil {
			api.GET("/answers", cfg.AnswerHandler.ListAnswers)
			api.GET("/answers/stats", cfg.AnswerHandler.AnswerStats)
			api.POST("/answers", cfg.AnswerHandler.CreateAnswer)
			api.GET("/students/:id/answers/:question_id", cfg.AnswerHandler.GetStudentAnswer)
			api.GET("/students/:id/results", cfg.AnswerHandler.ListStudentResults)
		}

		// Reasoning provider
		if cfg.ReasoningHandler != nil {
			api.GET("/reasoning/health", cfg.ReasoningHandler.Health)
			api.GET("/reasoning/info", cfg.ReasoningHandler.Info)
		}
	}

	return r
}
