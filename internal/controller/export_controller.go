package controller

import (
	"bytes"
	"fmt"
	"hunt_backend/internal/service"
	"hunt_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// @Summary Export finalized answers
// @Description Pipe-delimited CSV of scored answers with participant and location details.
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV"
// @Router /api/admin/answers/export [get]
func (c *ExportController) ExportAnswers(ctx *gin.Context) {
	var buf bytes.Buffer
	if _, err := c.ExportService.WriteCSV(ctx.Request.Context(), &buf); err != nil {
		util.RespondError(ctx, err)
		return
	}

	filename := fmt.Sprintf("answers-%s.csv", time.Now().Format("20060102-150405"))
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
