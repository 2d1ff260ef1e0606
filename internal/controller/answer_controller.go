package controller

import (
	"hunt_backend/internal/service"
	"hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	AnswerService *service.AnswerService
}

func NewAnswerController(answerService *service.AnswerService) *AnswerController {
	return &AnswerController{AnswerService: answerService}
}

type SetValidityRequest struct {
	IsValid *bool `json:"isValid" binding:"required"`
}

// @Summary Submit an answer
// @Description Submit the answer for a location. One answer per participant and location.
// @Tags Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body service.SubmitAnswerRequest true "Answer"
// @Success 201 {object} util.Response{data=service.AnswerView}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/answers [post]
func (c *AnswerController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.SubmitAnswer(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, c.AnswerService.View(ctx.Request.Context(), answer))
}

// @Summary Edit an answer
// @Description Change the answer or question text once, within the edit window after submission.
// @Tags Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answerId path string true "Answer ID"
// @Param update body object true "Fields to change: answer, question"
// @Success 200 {object} util.Response{data=service.AnswerView}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/answers/{answerId} [put]
func (c *AnswerController) EditAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var fields map[string]interface{}
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	edit, err := service.ParseAnswerEdit(fields)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	answer, err := c.AnswerService.EditAnswer(ctx.Request.Context(), user.UserID, ctx.Param("answerId"), edit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, c.AnswerService.View(ctx.Request.Context(), answer))
}

// @Summary List own answers
// @Tags Answers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.AnswerView}
// @Router /api/answers/me [get]
func (c *AnswerController) ListOwnAnswers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	answers, err := c.AnswerService.ListOwnAnswers(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, answers)
}

// @Summary Own answer statistics
// @Description The correct answer count is null until results are published.
// @Tags Answers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AnswerStats}
// @Router /api/answers/me/stats [get]
func (c *AnswerController) GetStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.AnswerService.Stats(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary Own answer for a location
// @Tags Answers
// @Produce json
// @Security BearerAuth
// @Param locationId path string true "Location ID"
// @Success 200 {object} util.Response{data=service.AnswerView}
// @Failure 404 {object} util.Response
// @Router /api/answers/location/{locationId} [get]
func (c *AnswerController) GetOwnAnswerForLocation(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	answer, err := c.AnswerService.GetOwnAnswerForLocation(ctx.Request.Context(), user.UserID, ctx.Param("locationId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}

// @Summary All answers for a location
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param locationId path string true "Location ID"
// @Success 200 {object} util.Response{data=[]model.AnswerRecord}
// @Router /api/admin/answers/location/{locationId} [get]
func (c *AnswerController) ListByLocation(ctx *gin.Context) {
	answers, err := c.AnswerService.ListByLocation(ctx.Request.Context(), ctx.Param("locationId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, answers)
}

// @Summary Set manual validity
// @Description Reviewer override; does not use up the participant's edit.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answerId path string true "Answer ID"
// @Param validity body SetValidityRequest true "Validity"
// @Success 200 {object} util.Response{data=model.AnswerRecord}
// @Failure 404 {object} util.Response
// @Router /api/admin/answers/{answerId}/validity [patch]
func (c *AnswerController) SetValidity(ctx *gin.Context) {
	var req SetValidityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.SetValidity(ctx.Request.Context(), ctx.Param("answerId"), *req.IsValid)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}
