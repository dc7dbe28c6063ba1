package controller

import (
	"net/http"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"
	"pulse_backend/pkg/monitoring"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TTSController struct {
	SpeechService *service.SpeechService
}

func NewTTSController(speechService *service.SpeechService) *TTSController {
	return &TTSController{SpeechService: speechService}
}

// SpeechRequest swagger:model SpeechRequest
type SpeechRequest struct {
	Text string `json:"text"`
}

// Synthesize godoc
// @Summary 文本转语音
// @Description 把文本合成为 MP3 音频流式返回
// @Tags 语音
// @Accept  json
// @Produce  audio/mpeg
// @Security ApiKeyAuth
// @Param   body body SpeechRequest true "待合成文本"
// @Success 200 {string} string "audio/mpeg"
// @Failure 400 {object} util.Response "文本为空"
// @Failure 500 {object} util.Response "凭证缺失或合成失败"
// @Router /api/tts [post]
func (c *TTSController) Synthesize(ctx *gin.Context) {
	var req SpeechRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		util.BadRequest(ctx, "Text is required")
		return
	}

	// 错误响应是 JSON，Content-Type 只在真正要写音频前设置
	if !c.SpeechService.Configured() {
		monitoring.SpeechRequests.WithLabelValues("error").Inc()
		util.Error(ctx, http.StatusInternalServerError, "TTS not configured")
		return
	}

	ctx.Writer.Header().Set("Content-Type", "audio/mpeg")
	if err := c.SpeechService.Synthesize(ctx.Request.Context(), req.Text, ctx.Writer); err != nil {
		monitoring.SpeechRequests.WithLabelValues("error").Inc()
		logger.Log.Error("TTS generation failed", zap.Error(err))
		if !ctx.Writer.Written() {
			ctx.Writer.Header().Del("Content-Type")
		}
		util.Error(ctx, http.StatusInternalServerError, "TTS generation failed")
		return
	}
	monitoring.SpeechRequests.WithLabelValues("ok").Inc()
}
