package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/workflow"
	"github.com/your-org/casetrack/pkg/dto"
)

type MatchHandler struct {
	engine *workflow.Engine
}

func NewMatchHandler(engine *workflow.Engine) *MatchHandler {
	return &MatchHandler{engine: engine}
}

// Confirm links a case to a submission. The response is 200 whenever the
// match committed; generation problems are reported in the warning field.
func (h *MatchHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.engine.ConfirmMatch(c.Request.Context(), req.RegisteredID, req.PublicID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MatchResponse{
		CaseID:         out.CaseID,
		SubmissionID:   out.SubmissionID,
		Status:         models.StatusFound,
		Message:        out.Message(),
		Explanation:    out.Explanation.String(),
		WitnessSummary: out.WitnessSummary.String(),
		Warning:        warning(out.GenerationErr),
	})
}
