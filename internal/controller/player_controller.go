package controller

import (
	"errors"
	"net/http"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlayerController struct {
	PlayerService *service.PlayerService
}

func NewPlayerController(playerService *service.PlayerService) *PlayerController {
	return &PlayerController{PlayerService: playerService}
}

// CreatePlayerRequest swagger:model CreatePlayerRequest
type CreatePlayerRequest struct {
	VideoID  string  `json:"videoId" binding:"required"`
	Duration float64 `json:"duration" binding:"gte=0"`
}

// CreateSession godoc
// @Summary 创建播放会话
// @Tags 播放
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   body body CreatePlayerRequest true "视频与时长"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response "视频不存在"
// @Router /api/player/sessions [post]
func (c *PlayerController) CreateSession(ctx *gin.Context) {
	var req CreatePlayerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.PlayerService.CreateSession(req.VideoID, req.Duration)
	if err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, session.Snapshot())
}

func (c *PlayerController) session(ctx *gin.Context) *service.PlayerSession {
	session, err := c.PlayerService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return nil
	}
	return session
}

// Play godoc
// @Summary 开始/恢复播放
// @Description 弹题期间的播放请求被忽略
// @Tags 播放
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id}/play [post]
func (c *PlayerController) Play(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}
	util.Success(ctx, session.Play())
}

// Pause godoc
// @Summary 暂停播放
// @Tags 播放
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id}/pause [post]
func (c *PlayerController) Pause(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}
	util.Success(ctx, session.Pause())
}

// SeekRequest swagger:model SeekRequest
type SeekRequest struct {
	Time float64 `json:"time"`
}

// Seek godoc
// @Summary 跳转进度
// @Description 跳转不受弹题限制, 目标时间被钳制到 [0, duration]
// @Tags 播放
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body SeekRequest true "目标时间(秒)"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id}/seek [post]
func (c *PlayerController) Seek(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}

	var req SeekRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, session.Seek(req.Time))
}

// TickRequest swagger:model TickRequest
type TickRequest struct {
	Time float64 `json:"time" binding:"gte=0"`
}

// Tick godoc
// @Summary 上报播放进度
// @Description 进度进入未答题目的触发窗口时弹题并暂停; 到达片尾时标记视频完成
// @Tags 播放
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body TickRequest true "当前时间(秒)"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id}/tick [post]
func (c *PlayerController) Tick(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}

	var req TickRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.PlayerService.Tick(ctx.Request.Context(), session, req.Time))
}

// AnswerRequest swagger:model AnswerRequest
type AnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

// Answer godoc
// @Summary 回答弹出题目
// @Description 答错保持暂停并标记错误选项; 答对短暂展示确认后自动恢复播放
// @Tags 播放
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body AnswerRequest true "选项键"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "无此选项"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "当前没有弹出题目"
// @Router /api/player/sessions/{id}/answer [post]
func (c *PlayerController) Answer(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := session.Answer(req.Option)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotActive):
			util.Error(ctx, http.StatusConflict, "No active question")
		case errors.Is(err, util.ErrUnknownOption):
			util.BadRequest(ctx, "Unknown option")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// FullscreenRequest swagger:model FullscreenRequest
type FullscreenRequest struct {
	Enabled bool `json:"enabled"`
}

// Fullscreen godoc
// @Summary 切换全屏状态
// @Tags 播放
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body FullscreenRequest true "是否全屏"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id}/fullscreen [post]
func (c *PlayerController) Fullscreen(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}

	var req FullscreenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, session.SetFullscreen(req.Enabled))
}

// State godoc
// @Summary 播放会话快照
// @Tags 播放
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/player/sessions/{id} [get]
func (c *PlayerController) State(ctx *gin.Context) {
	session := c.session(ctx)
	if session == nil {
		return
	}
	util.Success(ctx, session.Snapshot())
}

// CloseSession godoc
// @Summary 关闭播放会话
// @Tags 播放
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/player/sessions/{id} [delete]
func (c *PlayerController) CloseSession(ctx *gin.Context) {
	c.PlayerService.CloseSession(ctx.Param("id"))
	util.Success(ctx, gin.H{"message": "ok"})
}
