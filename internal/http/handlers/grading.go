package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/http/response"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/services"
)

type GradingHandler struct {
	log      *logger.Logger
	workflow services.GradingWorkflowService
}

func NewGradingHandler(log *logger.Logger, workflow services.GradingWorkflowService) *GradingHandler {
	return &GradingHandler{log: log.With("handler", "GradingHandler"), workflow: workflow}
}

type gradeRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	StudentID  string `json:"student_id" binding:"required"`
	Strategy   string `json:"strategy"`
}

// POST /api/grade/workflow
func (h *GradingHandler) GradeWorkflow(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	resp, err := h.workflow.CompleteGradingWorkflow(c.Request.Context(), req.QuestionID, req.StudentID, types.Strategy(req.Strategy))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, resp)
}

// POST /api/grade/batch/workflow
func (h *GradingHandler) GradeBatchWorkflow(c *gin.Context) {
	var items []services.BatchItem
	if err := c.ShouldBindJSON(&items); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	out, err := h.workflow.BatchGradingWorkflow(c.Request.Context(), items)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
