package controller

import (
	"errors"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrainingController struct {
	TrainingService *service.TrainingService
}

func NewTrainingController(trainingService *service.TrainingService) *TrainingController {
	return &TrainingController{TrainingService: trainingService}
}

// ListVideos godoc
// @Summary 培训视频目录
// @Description 按语言与状态页签过滤培训视频列表
// @Tags 培训
// @Produce json
// @Security ApiKeyAuth
// @Param   language query string false "语言过滤, All 表示不过滤"
// @Param   tab query string false "状态页签: All / Pending / Started"
// @Success 200 {object} util.Response
// @Router /api/training/videos [get]
func (c *TrainingController) ListVideos(ctx *gin.Context) {
	language := ctx.DefaultQuery("language", "All")
	tab := ctx.DefaultQuery("tab", "All")

	videos, err := c.TrainingService.ListVideos(ctx.Request.Context(), language, tab)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, videos)
}

// GetVideo godoc
// @Summary 培训视频详情
// @Tags 培训
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "视频 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "视频不存在"
// @Router /api/training/videos/{id} [get]
func (c *TrainingController) GetVideo(ctx *gin.Context) {
	video, err := c.TrainingService.GetVideo(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, video)
}

// MarkViewed godoc
// @Summary 标记视频已打开
// @Description 首次打开时写入 Started 状态, 已有状态不覆盖
// @Tags 培训
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "视频 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/training/videos/{id}/viewed [post]
func (c *TrainingController) MarkViewed(ctx *gin.Context) {
	if err := c.TrainingService.MarkStarted(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "ok"})
}

// MarkCompleted godoc
// @Summary 标记视频已完成
// @Tags 培训
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "视频 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/training/videos/{id}/completed [post]
func (c *TrainingController) MarkCompleted(ctx *gin.Context) {
	if err := c.TrainingService.MarkCompleted(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "ok"})
}

// Languages godoc
// @Summary 支持的视频语言
// @Tags 培训
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/training/languages [get]
func (c *TrainingController) Languages(ctx *gin.Context) {
	util.Success(ctx, util.SupportedLanguages)
}
