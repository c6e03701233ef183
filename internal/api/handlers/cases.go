package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/internal/auth"
	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/textgen"
	"github.com/your-org/casetrack/internal/workflow"
	"github.com/your-org/casetrack/pkg/dto"
)

type CaseHandler struct {
	engine *workflow.Engine
}

func NewCaseHandler(engine *workflow.Engine) *CaseHandler {
	return &CaseHandler{engine: engine}
}

// Create registers a case. A failed alert draft still yields 201 with a warning.
func (h *CaseHandler) Create(c *gin.Context) {
	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reg, err := h.engine.RegisterCase(c.Request.Context(), workflow.RegisterCaseInput{
		SubmittedBy:       auth.Submitter(c),
		Name:              req.Name,
		FatherName:        req.FatherName,
		Age:               req.Age,
		ComplainantName:   req.ComplainantName,
		ComplainantMobile: req.ComplainantMobile,
		NationalID:        req.NationalID,
		LastSeen:          req.LastSeen,
		Address:           req.Address,
		FaceMesh:          req.FaceMesh,
		BirthMarks:        req.BirthMarks,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterCaseResponse{
		ID:      reg.CaseID,
		Status:  models.StatusNotFound,
		Alert:   reg.Alert,
		Warning: warning(reg.GenerationErr),
	})
}

// List returns case summaries. submitted_by defaults to the caller identity.
func (h *CaseHandler) List(c *gin.Context) {
	var q dto.CaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	filter, err := models.ParseStatusFilter(q.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	submitter := q.SubmittedBy
	if submitter == "" {
		submitter = auth.Submitter(c)
	}

	cases, err := h.engine.ListCases(c.Request.Context(), submitter, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if cases == nil {
		cases = []models.CaseSummary{}
	}
	c.JSON(http.StatusOK, dto.CaseListResponse{Cases: cases, Total: len(cases)})
}

func (h *CaseHandler) Get(c *gin.Context) {
	rc, err := h.engine.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCaseResponse(rc))
}

// Training returns (id, face_mesh) of the caller's open cases.
func (h *CaseHandler) Training(c *gin.Context) {
	rows, err := h.engine.TrainingCases(c.Request.Context(), auth.Submitter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []models.TrainingRow{}
	}
	c.JSON(http.StatusOK, dto.TrainingListResponse{Rows: rows, Total: len(rows)})
}

func (h *CaseHandler) RegenerateAlert(c *gin.Context) {
	out, err := h.engine.RegenerateAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AlertResponse{
		CaseID:   out.CaseID,
		Short:    out.Alert.Short,
		Long:     out.Alert.Long,
		Markdown: out.Alert.Markdown,
		Fallback: out.Alert.Fallback,
		Warning:  warning(out.Alert.Err),
	})
}

func (h *CaseHandler) Explain(c *gin.Context) {
	var req dto.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	caseID := c.Param("id")
	res, err := h.engine.ExplainCandidates(c.Request.Context(), caseID, req.SubmissionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GeneratedTextResponse{CaseID: caseID, Text: res.String(), Warning: warning(res.Err)})
}

func (h *CaseHandler) Leads(c *gin.Context) {
	var req dto.LeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	leads := make([]textgen.Lead, 0, len(req.Leads))
	for _, l := range req.Leads {
		leads = append(leads, textgen.Lead{
			ID:                 l.ID,
			Score:              l.Score,
			TimeSecondsAgo:     l.TimeSecondsAgo,
			WitnessReliability: l.WitnessReliability,
		})
	}

	caseID := c.Param("id")
	res, err := h.engine.PrioritizeLeads(c.Request.Context(), caseID, leads)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GeneratedTextResponse{CaseID: caseID, Text: res.String(), Warning: warning(res.Err)})
}

func (h *CaseHandler) Witness(c *gin.Context) {
	var req dto.WitnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	caseID := c.Param("id")
	ws, err := h.engine.SummarizeWitness(c.Request.Context(), caseID, req.Statement)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WitnessResponse{
		CaseID:   caseID,
		Summary:  ws.Summary,
		Persons:  ws.Persons,
		Places:   ws.Places,
		Times:    ws.Times,
		Fallback: ws.Fallback,
		Warning:  warning(ws.Err),
	})
}

func (h *CaseHandler) Dashboard(c *gin.Context) {
	submitter := c.Query("submitted_by")
	if submitter == "" {
		submitter = auth.Submitter(c)
	}
	d, err := h.engine.DashboardCounts(c.Request.Context(), submitter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DashboardResponse{Submitter: submitter, Found: d.Found, NotFound: d.NotFound})
}
