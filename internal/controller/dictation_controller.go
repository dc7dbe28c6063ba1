package controller

import (
	"io"
	"net/http"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DictationController struct {
	DictationService *service.DictationService
}

func NewDictationController(dictationService *service.DictationService) *DictationController {
	return &DictationController{DictationService: dictationService}
}

// Support godoc
// @Summary 语音听写可用性
// @Description 未配置识别后端时听写功能整体不可用
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/dictation/support [get]
func (c *DictationController) Support(ctx *gin.Context) {
	util.Success(ctx, gin.H{"supported": c.DictationService.HasSupport()})
}

// CreateSession godoc
// @Summary 创建听写会话
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Failure 503 {object} util.Response "听写不可用"
// @Router /api/dictation/sessions [post]
func (c *DictationController) CreateSession(ctx *gin.Context) {
	session, err := c.DictationService.CreateSession()
	if err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Dictation is not available")
		return
	}
	util.Created(ctx, gin.H{"id": session.ID, "listening": false, "text": ""})
}

// Toggle godoc
// @Summary 开始/停止听写
// @Description 同一开关在监听与停止之间切换, 返回切换后的监听状态
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dictation/sessions/{id}/toggle [post]
func (c *DictationController) Toggle(ctx *gin.Context) {
	session, err := c.DictationService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	listening, err := c.DictationService.ToggleListening(ctx.Request.Context(), session)
	if err != nil {
		logger.Log.Error("dictation toggle failed", zap.Error(err))
		util.InternalServerError(ctx)
		return
	}
	util.Success(ctx, gin.H{"listening": listening, "text": session.Text()})
}

// SendAudio godoc
// @Summary 推送音频数据
// @Description 请求体为原始音频字节, 仅在监听中时被接受
// @Tags 听写
// @Accept  application/octet-stream
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dictation/sessions/{id}/audio [post]
func (c *DictationController) SendAudio(ctx *gin.Context) {
	session, err := c.DictationService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	data, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		util.BadRequest(ctx, "Could not read audio body")
		return
	}

	if err := session.SendAudio(data); err != nil {
		// 未在监听时的音频直接丢弃
		util.Success(ctx, gin.H{"accepted": false})
		return
	}
	util.Success(ctx, gin.H{"accepted": true})
}

// Text godoc
// @Summary 当前听写文本
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dictation/sessions/{id}/text [get]
func (c *DictationController) Text(ctx *gin.Context) {
	session, err := c.DictationService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"listening": session.IsListening(), "text": session.Text()})
}

// Reset godoc
// @Summary 清空听写文本
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dictation/sessions/{id}/reset [post]
func (c *DictationController) Reset(ctx *gin.Context) {
	session, err := c.DictationService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	session.Reset()
	util.Success(ctx, gin.H{"listening": session.IsListening(), "text": ""})
}

// CloseSession godoc
// @Summary 关闭听写会话
// @Tags 听写
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/dictation/sessions/{id} [delete]
func (c *DictationController) CloseSession(ctx *gin.Context) {
	c.DictationService.CloseSession(ctx.Param("id"))
	util.Success(ctx, gin.H{"message": "ok"})
}
