package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/internal/auth"
	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/workflow"
	"github.com/your-org/casetrack/pkg/dto"
)

type SubmissionHandler struct {
	engine *workflow.Engine
}

func NewSubmissionHandler(engine *workflow.Engine) *SubmissionHandler {
	return &SubmissionHandler{engine: engine}
}

func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.engine.SubmitPublic(c.Request.Context(), workflow.SubmitPublicInput{
		SubmittedBy: auth.Submitter(c),
		FaceMesh:    req.FaceMesh,
		Location:    req.Location,
		Mobile:      req.Mobile,
		Email:       req.Email,
		BirthMarks:  req.BirthMarks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateSubmissionResponse{ID: id, Status: models.StatusNotFound})
}

func (h *SubmissionHandler) List(c *gin.Context) {
	var q dto.SubmissionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	filter, err := models.ParseStatusFilter(q.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	mode, err := models.ParseProjectionMode(q.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}

	rows, err := h.engine.ListSubmissions(c.Request.Context(), filter, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []models.SubmissionRow{}
	}
	c.JSON(http.StatusOK, dto.SubmissionListResponse{Submissions: rows, Total: len(rows)})
}

func (h *SubmissionHandler) Get(c *gin.Context) {
	p, err := h.engine.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmissionResponse(p))
}
