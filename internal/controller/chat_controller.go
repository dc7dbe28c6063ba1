package controller

import (
	"errors"
	"io"
	"net/http"
	"pulse_backend/internal/model"
	"pulse_backend/internal/service"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"
	"pulse_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// StreamChatRequest swagger:model StreamChatRequest
type StreamChatRequest struct {
	Messages   []service.UIMessage `json:"messages" binding:"required"`
	Transcript string              `json:"transcript"`
}

// StreamVideoChat godoc
// @Summary 视频助手流式对话
// @Description 以 SSE 流式返回基于视频字幕的 AI 回答
// @Tags 对话
// @Accept  json
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Param   body body StreamChatRequest true "消息历史与原始字幕"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} util.Response
// @Router /api/chat [post]
func (c *ChatController) StreamVideoChat(ctx *gin.Context) {
	var req StreamChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, errChan := c.ChatService.StreamVideoChat(ctx.Request.Context(), req.Messages, req.Transcript)
	c.streamSSE(ctx, out, errChan)
}

// StreamProductQA godoc
// @Summary 产品问答流式对话
// @Description 以 SSE 流式返回基于两轮贷产品文档的 AI 回答
// @Tags 对话
// @Accept  json
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Param   body body StreamChatRequest true "消息历史"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} util.Response
// @Router /api/chat/qa [post]
func (c *ChatController) StreamProductQA(ctx *gin.Context) {
	var req StreamChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, errChan := c.ChatService.StreamProductQA(ctx.Request.Context(), req.Messages)
	c.streamSSE(ctx, out, errChan)
}

// streamSSE 把模型增量转发为 SSE 事件, 上游出错时发送 error 事件后结束
func (c *ChatController) streamSSE(ctx *gin.Context, out <-chan string, errChan <-chan error) {
	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case chunk, ok := <-out:
			if !ok {
				// 上游结束，区分正常完成与出错中断
				if err := <-errChan; err != nil {
					logger.Log.Error("chat stream failed", zap.Error(err))
					ctx.SSEvent("error", "The assistant is unavailable right now.")
					monitoring.CompletionStreams.WithLabelValues("upstream_error").Inc()
				} else {
					ctx.SSEvent("done", "")
					monitoring.CompletionStreams.WithLabelValues("completed").Inc()
				}
				return false
			}
			ctx.SSEvent("message", chunk)
			return true
		case <-ctx.Request.Context().Done():
			monitoring.CompletionStreams.WithLabelValues("client_gone").Inc()
			return false
		}
	})
}

// CreateSessionRequest swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	Kind       string `json:"kind" binding:"required,oneof=video product_qa"`
	Transcript string `json:"transcript"`
}

// CreateSession godoc
// @Summary 创建对话会话
// @Tags 对话
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   body body CreateSessionRequest true "会话类型与原始字幕"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/chat/sessions [post]
func (c *ChatController) CreateSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session := c.ChatService.CreateSession(service.SessionKind(req.Kind), req.Transcript)
	util.Created(ctx, session.Snapshot())
}

// SubmitRequest swagger:model SubmitRequest
type SubmitRequest struct {
	Text string `json:"text"`
}

// Submit godoc
// @Summary 发送消息
// @Description 追加用户消息并以 SSE 流式返回助手回复; 空白输入不产生任何动作
// @Tags 对话
// @Accept  json
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body SubmitRequest true "消息内容"
// @Success 200 {string} string "SSE stream"
// @Failure 404 {object} util.Response
// @Router /api/chat/sessions/{id}/messages [post]
func (c *ChatController) Submit(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, err := c.ChatService.Submit(ctx.Request.Context(), session, req.Text)
	if err != nil {
		if errors.Is(err, util.ErrEmptyMessage) {
			// 空白输入静默忽略
			util.Success(ctx, session.Snapshot())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Stream(func(w io.Writer) bool {
		chunk, ok := <-out
		if !ok {
			ctx.SSEvent("done", "")
			return false
		}
		ctx.SSEvent("message", chunk)
		return true
	})
}

// ReactRequest swagger:model ReactRequest
type ReactRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	Reaction  string `json:"reaction" binding:"required,oneof=like dislike"`
}

// React godoc
// @Summary 点赞/点踩消息
// @Description 同一反馈重复提交表示取消, 两种反馈互斥
// @Tags 对话
// @Accept  json
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body ReactRequest true "消息与反馈类型"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/chat/sessions/{id}/reactions [post]
func (c *ChatController) React(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req ReactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ChatService.React(session, req.MessageID, model.Reaction(req.Reaction)); err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, session.Snapshot())
}

// MarkCopied godoc
// @Summary 标记消息已复制
// @Description 复制确认标记在短暂延迟后自动清除
// @Tags 对话
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   messageId path string true "消息 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/chat/sessions/{id}/messages/{messageId}/copied [post]
func (c *ChatController) MarkCopied(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	if err := c.ChatService.MarkCopied(session, ctx.Param("messageId")); err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, session.Snapshot())
}

// Speak godoc
// @Summary 朗读消息
// @Description 生成消息语音并返回 MP3 音频; 对正在朗读的消息再次调用表示停止
// @Tags 对话
// @Produce  audio/mpeg
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   messageId path string true "消息 ID"
// @Success 200 {string} string "audio/mpeg"
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/chat/sessions/{id}/messages/{messageId}/speak [post]
func (c *ChatController) Speak(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "audio/mpeg")
	started, err := c.ChatService.Speak(ctx.Request.Context(), session, ctx.Param("messageId"), ctx.Writer)
	if err != nil {
		if errors.Is(err, util.ErrMessageNotFound) {
			util.NotFound(ctx)
			return
		}
		logger.Log.Error("speech playback failed", zap.Error(err))
		util.Error(ctx, http.StatusInternalServerError, "TTS generation failed")
		return
	}
	if !started {
		// 再次点击同一条消息: 已停止, 无音频
		ctx.Status(http.StatusNoContent)
	}
}

// EndSpeech godoc
// @Summary 结束朗读
// @Tags 对话
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   messageId path string true "消息 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/chat/sessions/{id}/messages/{messageId}/speech/end [post]
func (c *ChatController) EndSpeech(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	c.ChatService.EndSpeech(session, ctx.Param("messageId"))
	util.Success(ctx, session.Snapshot())
}

// SessionState godoc
// @Summary 会话状态快照
// @Tags 对话
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/chat/sessions/{id} [get]
func (c *ChatController) SessionState(ctx *gin.Context) {
	session, err := c.ChatService.GetSession(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, session.Snapshot())
}

// CloseSession godoc
// @Summary 关闭会话
// @Tags 对话
// @Produce json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/chat/sessions/{id} [delete]
func (c *ChatController) CloseSession(ctx *gin.Context) {
	c.ChatService.CloseSession(ctx.Param("id"))
	util.Success(ctx, gin.H{"message": "ok"})
}
