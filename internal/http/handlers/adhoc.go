package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/http/response"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/reasoning"
	"github.com/yungbote/examiner-backend/internal/services"
)

// AdHocHandler serves grading and analysis of inline reference material.
type AdHocHandler struct {
	log   *logger.Logger
	adhoc services.AdHocGradingService
}

func NewAdHocHandler(log *logger.Logger, adhoc services.AdHocGradingService) *AdHocHandler {
	return &AdHocHandler{log: log.With("handler", "AdHocHandler"), adhoc: adhoc}
}

type conceptRequest struct {
	Concept     string   `json:"concept" binding:"required"`
	Importance  float64  `json:"importance" binding:"gte=0,lte=1"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation"`
}

type idealAnswerRequest struct {
	Subject          string           `json:"subject"`
	Topic            string           `json:"topic"`
	QuestionText     string           `json:"question_text"`
	Content          string           `json:"content" binding:"required"`
	MaxMarks         float64          `json:"max_marks" binding:"omitempty,gt=0"`
	PassingThreshold float64          `json:"passing_threshold" binding:"omitempty,gte=0,lte=100"`
	KeyConcepts      []conceptRequest `json:"key_concepts" binding:"omitempty,dive"`
}

type studentAnswerRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,max=128"`
	Content   string `json:"content" binding:"required"`
}

type adHocGradeRequest struct {
	IdealAnswer   idealAnswerRequest   `json:"ideal_answer"`
	StudentAnswer studentAnswerRequest `json:"student_answer"`
	Strategy      string               `json:"strategy"`
}

type adHocBatchRequest struct {
	Requests []adHocGradeRequest `json:"requests" binding:"required,min=1,dive"`
}

type similarityRequest struct {
	IdealAnswer   idealAnswerRequest   `json:"ideal_answer"`
	StudentAnswer studentAnswerRequest `json:"student_answer"`
}

func (r idealAnswerRequest) input() services.IdealAnswerInput {
	in := services.IdealAnswerInput{
		Subject:          r.Subject,
		Topic:            r.Topic,
		QuestionText:     r.QuestionText,
		Content:          r.Content,
		MaxMarks:         r.MaxMarks,
		PassingThreshold: r.PassingThreshold,
	}
	for _, c := range r.KeyConcepts {
		in.KeyConcepts = append(in.KeyConcepts, reasoning.ExtractedConcept{
			Concept:     c.Concept,
			Importance:  c.Importance,
			Keywords:    c.Keywords,
			Explanation: c.Explanation,
		})
	}
	return in
}

func (r adHocGradeRequest) input() services.AdHocGradeInput {
	return services.AdHocGradeInput{
		Ideal:      r.IdealAnswer.input(),
		StudentID:  r.StudentAnswer.StudentID,
		AnswerText: r.StudentAnswer.Content,
		Strategy:   types.Strategy(r.Strategy),
	}
}

// POST /api/grade
func (h *AdHocHandler) Grade(c *gin.Context) {
	var req adHocGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	resp, err := h.adhoc.Grade(c.Request.Context(), req.input())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, resp)
}

// POST /api/grade/batch
func (h *AdHocHandler) GradeBatch(c *gin.Context) {
	var req adHocBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	items := make([]services.AdHocGradeInput, 0, len(req.Requests))
	for _, r := range req.Requests {
		items = append(items, r.input())
	}
	out, err := h.adhoc.GradeBatch(c.Request.Context(), items)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/analyze/concepts
func (h *AdHocHandler) AnalyzeConcepts(c *gin.Context) {
	var req idealAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	out, err := h.adhoc.AnalyzeConcepts(c.Request.Context(), req.input())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/analyze/similarity
func (h *AdHocHandler) AnalyzeSimilarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	out, err := h.adhoc.AnalyzeSimilarity(c.Request.Context(), req.IdealAnswer.input(), req.StudentAnswer.Content)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
