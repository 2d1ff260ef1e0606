package controller

import (
	"hunt_backend/internal/service"
	"hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SweepController struct {
	SweepService *service.SweepService
}

func NewSweepController(sweepService *service.SweepService) *SweepController {
	return &SweepController{SweepService: sweepService}
}

// @Summary Run a re-evaluation sweep
// @Description Re-scores unscored and ambiguously scored answers. Blocks until the sweep finishes.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.SweepReport}
// @Failure 409 {object} util.Response
// @Router /api/admin/answers/sweep [post]
func (c *SweepController) RunSweep(ctx *gin.Context) {
	report, err := c.SweepService.Run(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
