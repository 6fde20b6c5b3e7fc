package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/http"
	httpH "github.com/yungbote/examiner-backend/internal/http/handlers"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Grading   *httpH.GradingHandler
	Question  *httpH.QuestionHandler
	Answer    *httpH.AnswerHandler
	Reasoning *httpH.ReasoningHandler
	AdHoc     *httpH.AdHocHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Grading:   httpH.NewGradingHandler(log, services.Workflow),
		Question:  httpH.NewQuestionHandler(log, services.Refs, services.Catalog),
		Answer:    httpH.NewAnswerHandler(log, services.Refs, services.Answers, services.Ledger),
		Reasoning: httpH.NewReasoningHandler(services.Gateway),
		AdHoc:     httpH.NewAdHocHandler(log, services.AdHoc),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      cfg.ServiceName,
		AllowedOrigins:   cfg.AllowedOrigins,
		RequestTimeout:   cfg.RequestTimeout,
		HealthHandler:    handlers.Health,
		GradingHandler:   handlers.Grading,
		QuestionHandler:  handlers.Question,
		AnswerHandler:    handlers.Answer,
		ReasoningHandler: handlers.Reasoning,
		AdHocHandler:     handlers.AdHoc,
	})
}
