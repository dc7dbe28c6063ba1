package service

import (
	"context"
	"io"
	"pulse_backend/internal/model"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// copyConfirmTTL 复制确认标记的停留时长
const copyConfirmTTL = 2 * time.Second

// SessionKind 会话的背景来源：视频字幕或内置产品文档
type SessionKind string

const (
	KindVideo     SessionKind = "video"
	KindProductQA SessionKind = "product_qa"
)

// ChatService 聊天会话协调器。每个会话独占自己的消息列表和唯一的
// 语音播放句柄；助手消息流式增长，完成后不再变化。
type ChatService struct {
	ai       *AIService
	speech   *SpeechService
	document string

	mu       sync.Mutex
	sessions map[string]*ChatSession

	copyTTL time.Duration
}

func NewChatService(ai *AIService, speech *SpeechService, document string) *ChatService {
	return &ChatService{
		ai:       ai,
		speech:   speech,
		document: document,
		sessions: make(map[string]*ChatSession),
		copyTTL:  copyConfirmTTL,
	}
}

type ChatSession struct {
	mu sync.Mutex

	ID         string
	Kind       SessionKind
	Transcript string // 已规范化

	messages  []*model.ChatMessage
	reactions map[string]model.Reaction

	copiedID    string
	speakingID  string
	loadingID   string
	speakCancel context.CancelFunc
}

type ChatSnapshot struct {
	ID         string                    `json:"id"`
	Kind       SessionKind               `json:"kind"`
	Messages   []model.ChatMessage       `json:"messages"`
	Reactions  map[string]model.Reaction `json:"reactions"`
	CopiedID   string                    `json:"copiedId,omitempty"`
	SpeakingID string                    `json:"speakingId,omitempty"`
	LoadingID  string                    `json:"loadingAudioId,omitempty"`
}

// CreateSession 新建会话。rawTranscript 在这里规范化一次，之后
// 每轮提交都复用同一份背景。
func (s *ChatService) CreateSession(kind SessionKind, rawTranscript string) *ChatSession {
	session := &ChatSession{
		ID:         uuid.New().String(),
		Kind:       kind,
		Transcript: util.NormalizeTranscript(rawTranscript).Text,
		reactions:  make(map[string]model.Reaction),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

func (s *ChatService) GetSession(id string) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *ChatService) CloseSession(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.stopSpeech()
	}
}

func (s *ChatService) systemPrompt(session *ChatSession) string {
	if session.Kind == KindProductQA {
		return buildProductQAPrompt(s.document)
	}
	return buildVideoSystemPrompt(session.Transcript)
}

// Submit 提交一轮用户输入。空白输入不产生任何消息、不发起任何
// 请求。返回的通道逐段给出助手回复；上游出错时流直接结束，该轮
// 助手消息保持未完成，不自动重试。
func (s *ChatService) Submit(ctx context.Context, session *ChatSession, text string) (<-chan string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, util.ErrEmptyMessage
	}

	session.mu.Lock()

	userMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      model.RoleUser,
		Parts:     []model.MessagePart{{Type: "text", Text: text}},
		Completed: true,
		CreatedAt: time.Now(),
	}
	session.messages = append(session.messages, userMsg)

	history := make([]AIChatMessage, 0, len(session.messages))
	for _, m := range session.messages {
		history = append(history, AIChatMessage{Role: string(m.Role), Content: m.Text()})
	}

	assistantMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      model.RoleAssistant,
		Parts:     []model.MessagePart{{Type: "text", Text: ""}},
		CreatedAt: time.Now(),
	}
	session.messages = append(session.messages, assistantMsg)
	session.mu.Unlock()

	stream, errChan := s.ai.ChatStream(ctx, s.systemPrompt(session), history)

	out := make(chan string)
	go func() {
		defer close(out)

		for chunk := range stream {
			session.mu.Lock()
			assistantMsg.Parts[0].Text += chunk
			session.mu.Unlock()
			out <- chunk
		}

		if err := <-errChan; err != nil {
			// 流到此为止，这一轮助手消息保持未完成
			logger.Log.Error("completion stream failed", zap.String("session", session.ID), zap.Error(err))
			return
		}

		session.mu.Lock()
		assistantMsg.Completed = true
		session.mu.Unlock()
	}()

	return out, nil
}

// React 点赞/点踩互斥，重复点击取消
func (s *ChatService) React(session *ChatSession, messageID string, reaction model.Reaction) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.findMessage(messageID) == nil {
		return util.ErrMessageNotFound
	}

	if session.reactions[messageID] == reaction {
		delete(session.reactions, messageID)
	} else {
		session.reactions[messageID] = reaction
	}
	return nil
}

// MarkCopied 置复制确认标记，2 秒后自行清除
func (s *ChatService) MarkCopied(session *ChatSession, messageID string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.findMessage(messageID) == nil {
		return util.ErrMessageNotFound
	}

	session.copiedID = messageID
	time.AfterFunc(s.copyTTL, func() {
		session.mu.Lock()
		if session.copiedID == messageID {
			session.copiedID = ""
		}
		session.mu.Unlock()
	})
	return nil
}

// Speak 切换某条助手消息的语音播放。对正在播放的消息再次请求是
// 停止；请求另一条消息会先停掉当前的。音频按需合成，不预取。
// 返回 false 表示本次是停止操作，没有音频输出。
func (s *ChatService) Speak(ctx context.Context, session *ChatSession, messageID string, w io.Writer) (bool, error) {
	session.mu.Lock()

	msg := session.findMessage(messageID)
	if msg == nil {
		session.mu.Unlock()
		return false, util.ErrMessageNotFound
	}

	if session.speakingID == messageID {
		session.mu.Unlock()
		session.stopSpeech()
		return false, nil
	}

	// 停掉别的消息的播放，单一音频句柄
	if cancel := session.speakCancel; cancel != nil {
		cancel()
	}

	speakCtx, cancel := context.WithCancel(ctx)
	session.speakCancel = cancel
	session.loadingID = messageID
	text := msg.Text()
	session.mu.Unlock()

	err := s.speech.Synthesize(speakCtx, text, w)

	session.mu.Lock()
	session.loadingID = ""
	if err != nil {
		cancel()
		session.speakCancel = nil
		session.mu.Unlock()
		return false, err
	}
	session.speakingID = messageID
	session.mu.Unlock()

	return true, nil
}

// EndSpeech 播放自然结束后清除标记
func (s *ChatService) EndSpeech(session *ChatSession, messageID string) {
	session.mu.Lock()
	if session.speakingID == messageID {
		session.speakingID = ""
		if session.speakCancel != nil {
			session.speakCancel()
			session.speakCancel = nil
		}
	}
	session.mu.Unlock()
}

func (c *ChatSession) stopSpeech() {
	c.mu.Lock()
	if c.speakCancel != nil {
		c.speakCancel()
		c.speakCancel = nil
	}
	c.speakingID = ""
	c.loadingID = ""
	c.mu.Unlock()
}

func (c *ChatSession) findMessage(id string) *model.ChatMessage {
	for _, m := range c.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (c *ChatSession) Snapshot() ChatSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := ChatSnapshot{
		ID:         c.ID,
		Kind:       c.Kind,
		Messages:   make([]model.ChatMessage, 0, len(c.messages)),
		Reactions:  make(map[string]model.Reaction, len(c.reactions)),
		CopiedID:   c.copiedID,
		SpeakingID: c.speakingID,
		LoadingID:  c.loadingID,
	}
	for _, m := range c.messages {
		msg := *m
		// Parts 必须拷贝，否则快照与正在流式写入的消息共享底层数组
		msg.Parts = append([]model.MessagePart(nil), m.Parts...)
		snap.Messages = append(snap.Messages, msg)
	}
	for k, v := range c.reactions {
		snap.Reactions[k] = v
	}
	return snap
}

// UIMessage 前端消息载荷，未知类型的片段被忽略
type UIMessage struct {
	Role  string              `json:"role"`
	Parts []model.MessagePart `json:"parts"`
}

func flattenUIMessages(msgs []UIMessage) []AIChatMessage {
	out := make([]AIChatMessage, 0, len(msgs))
	for _, m := range msgs {
		var text string
		for _, p := range m.Parts {
			if p.Type == "text" {
				text += p.Text
			}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, AIChatMessage{Role: m.Role, Content: text})
	}
	return out
}

// StreamVideoChat 无状态补全入口：一次性带上完整历史和原始字幕
func (s *ChatService) StreamVideoChat(ctx context.Context, msgs []UIMessage, rawTranscript string) (<-chan string, <-chan error) {
	transcript := util.NormalizeTranscript(rawTranscript).Text
	return s.ai.ChatStream(ctx, buildVideoSystemPrompt(transcript), flattenUIMessages(msgs))
}

// StreamProductQA 以内置贷款产品文档为背景的无状态补全入口
func (s *ChatService) StreamProductQA(ctx context.Context, msgs []UIMessage) (<-chan string, <-chan error) {
	return s.ai.ChatStream(ctx, buildProductQAPrompt(s.document), flattenUIMessages(msgs))
}
