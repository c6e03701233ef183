package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/pkg/dto"
)

// respondError writes err with the status its taxonomy maps to.
func respondError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= 500 {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error(), Kind: errs.Kind(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(400, dto.ErrorResponse{Error: err.Error(), Kind: "validation"})
}

func warning(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
