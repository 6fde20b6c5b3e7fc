package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examiner-backend/internal/http/response"
	"github.com/yungbote/examiner-backend/internal/pkg/dbctx"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/services"
)

type QuestionHandler struct {
	log     *logger.Logger
	refs    services.ReferenceMaterialService
	catalog services.ConceptCatalogService
}

func NewQuestionHandler(log *logger.Logger, refs services.ReferenceMaterialService, catalog services.ConceptCatalogService) *QuestionHandler {
	return &QuestionHandler{log: log.With("handler", "QuestionHandler"), refs: refs, catalog: catalog}
}

type createQuestionRequest struct {
	QuestionID       string  `json:"question_id" binding:"required,max=128"`
	Subject          string  `json:"subject"`
	Topic            string  `json:"topic"`
	QuestionText     string  `json:"question_text" binding:"required"`
	IdealAnswer      string  `json:"ideal_answer" binding:"required"`
	MaxMarks         float64 `json:"max_marks" binding:"required,gt=0"`
	PassingThreshold float64 `json:"passing_threshold" binding:"omitempty,gte=0,lte=100"`
	DifficultyLevel  string  `json:"difficulty_level"`
}

type updateMarksRequest struct {
	MaxMarks float64 `json:"max_marks" binding:"required,gt=0"`
}

type criterionRequest struct {
	Name        string  `json:"criterion_name" binding:"required"`
	Description string  `json:"description"`
	MaxPoints   float64 `json:"max_points" binding:"required,gt=0"`
	Weight      float64 `json:"weight" binding:"omitempty,gte=0"`
}

type replaceCriteriaRequest struct {
	Criteria []criterionRequest `json:"criteria" binding:"required,min=1,dive"`
}

type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,gte=0"`
	Offset int `form:"offset" binding:"omitempty,gte=0"`
}

func bindPage(c *gin.Context) (services.Page, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return services.Page{}, false
	}
	return services.Page{Limit: q.Limit, Offset: q.Offset}, true
}

// GET /api/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	rows, err := h.refs.ListQuestions(dbctx.Context{Ctx: c.Request.Context()}, page)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": rows, "total_count": len(rows)})
}

// GET /api/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	details, err := h.refs.GetQuestionDetails(dbctx.Context{Ctx: c.Request.Context()}, c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, details)
}

// POST /api/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	q, err := h.refs.CreateQuestion(c.Request.Context(), services.CreateQuestionInput{
		QuestionKey:      req.QuestionID,
		Subject:          req.Subject,
		Topic:            req.Topic,
		QuestionText:     req.QuestionText,
		IdealAnswer:      req.IdealAnswer,
		MaxMarks:         req.MaxMarks,
		PassingThreshold: req.PassingThreshold,
		DifficultyLevel:  req.DifficultyLevel,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": q})
}

// PATCH /api/questions/:id/marks
func (h *QuestionHandler) UpdateMaxMarks(c *gin.Context) {
	var req updateMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	q, err := h.refs.UpdateMaxMarks(c.Request.Context(), c.Param("id"), req.MaxMarks)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// POST /api/questions/:id/extract-concepts
func (h *QuestionHandler) ExtractConcepts(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := h.refs.GetQuestion(dbctx.Context{Ctx: ctx}, c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	concepts, err := h.catalog.GetOrExtractConcepts(ctx, q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"key_concepts": concepts})
}

// POST /api/questions/:id/criteria
func (h *QuestionHandler) ReplaceCriteria(c *gin.Context) {
	var req replaceCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	in := make([]services.CriterionInput, 0, len(req.Criteria))
	for _, cr := range req.Criteria {
		in = append(in, services.CriterionInput{
			Name:        cr.Name,
			Description: cr.Description,
			MaxPoints:   cr.MaxPoints,
			Weight:      cr.Weight,
		})
	}
	rows, err := h.refs.ReplaceCriteria(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rubric_criteria": rows})
}
