package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examiner-backend/internal/http/response"
	"github.com/yungbote/examiner-backend/internal/pkg/dbctx"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/services"
)

type AnswerHandler struct {
	log     *logger.Logger
	refs    services.ReferenceMaterialService
	answers services.AnswerLocatorService
	ledger  services.ResultLedgerService
}

func NewAnswerHandler(
	log *logger.Logger,
	refs services.ReferenceMaterialService,
	answers services.AnswerLocatorService,
	ledger services.ResultLedgerService,
) *AnswerHandler {
	return &AnswerHandler{
		log:     log.With("handler", "AnswerHandler"),
		refs:    refs,
		answers: answers,
		ledger:  ledger,
	}
}

type createAnswerRequest struct {
	QuestionID  string     `json:"question_id" binding:"required"`
	StudentID   string     `json:"student_id" binding:"required,max=128"`
	AnswerText  string     `json:"answer_text" binding:"required"`
	Language    string     `json:"language" binding:"omitempty,max=16"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// POST /api/answers
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var req createAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	a, err := h.answers.CreateAnswer(c.Request.Context(), services.CreateAnswerInput{
		QuestionKey: req.QuestionID,
		StudentID:   req.StudentID,
		AnswerText:  req.AnswerText,
		Language:    req.Language,
		SubmittedAt: req.SubmittedAt,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"answer": a})
}

// GET /api/students/:id/answers/:question_id
func (h *AnswerHandler) GetStudentAnswer(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := h.refs.GetQuestion(dbctx.Context{Ctx: ctx}, c.Param("question_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	a, err := h.answers.GetAnswer(ctx, c.Param("id"), q.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"answer": a})
}

// GET /api/students/:id/results
func (h *AnswerHandler) ListStudentResults(c *gin.Context) {
	rows, err := h.ledger.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": rows})
}

// GET /api/answers
func (h *AnswerHandler) ListAnswers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	rows, err := h.answers.ListAnswers(c.Request.Context(), page)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"student_answers": rows, "total_count": len(rows)})
}

// GET /api/answers/stats
func (h *AnswerHandler) AnswerStats(c *gin.Context) {
	stats, err := h.answers.AnswerStats(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, stats)
}
