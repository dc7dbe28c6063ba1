package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulse_backend/internal/config"
	"pulse_backend/internal/model"
	"pulse_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStreamServer 以 SSE 形式吐出给定的增量，再发 [DONE]
func newStreamServer(chunks []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			payload, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": c}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newChatFixture(srvURL string) *ChatService {
	ai := NewAIService(config.AIConfig{BaseURL: srvURL, Model: "test-model", TimeoutSeconds: 5})
	speech := NewSpeechService(config.TTSConfig{APIKey: "test-key"}).WithGenerator(&fakeGenerator{})
	return NewChatService(ai, speech, "sample product document")
}

type fakeGenerator struct {
	calls int
	fail  bool
}

func (f *fakeGenerator) TextToSpeechStreaming(ctx context.Context, text string, writer io.Writer) error {
	f.calls++
	if f.fail {
		return fmt.Errorf("synthesis unavailable")
	}
	_, err := writer.Write([]byte("mp3-bytes"))
	return err
}

func drain(out <-chan string) string {
	var full string
	for chunk := range out {
		full += chunk
	}
	return full
}

func TestChatSubmitStreamsAssistantReply(t *testing.T) {
	srv := newStreamServer([]string{"Hello", ", ", "world"})
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, `"[{\"text\":\"intro\"}]"`)
	assert.Equal(t, "intro", session.Transcript)

	out, err := svc.Submit(context.Background(), session, "What is this video about?")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", drain(out))

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return len(snap.Messages) == 2 && snap.Messages[1].Completed
	}, time.Second, 5*time.Millisecond)

	snap := session.Snapshot()
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "What is this video about?", snap.Messages[0].Text())
	assert.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, "Hello, world", snap.Messages[1].Text())
}

func TestChatSubmitBlankIsNoop(t *testing.T) {
	srv := newStreamServer(nil)
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, "")

	_, err := svc.Submit(context.Background(), session, "   \n\t ")
	assert.ErrorIs(t, err, util.ErrEmptyMessage)
	assert.Empty(t, session.Snapshot().Messages)
}

func TestChatSubmitUpstreamErrorLeavesIncomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, "")

	out, err := svc.Submit(context.Background(), session, "hi")
	require.NoError(t, err)
	assert.Empty(t, drain(out))

	// 这一轮助手消息保持未完成，不自动重试
	time.Sleep(50 * time.Millisecond)
	snap := session.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.False(t, snap.Messages[1].Completed)
	assert.Empty(t, snap.Messages[1].Text())
}

func TestChatReactionToggleAndExclusivity(t *testing.T) {
	srv := newStreamServer([]string{"hi"})
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, "")
	out, err := svc.Submit(context.Background(), session, "hello")
	require.NoError(t, err)
	drain(out)

	msgID := session.Snapshot().Messages[1].ID

	require.NoError(t, svc.React(session, msgID, model.ReactionLike))
	assert.Equal(t, model.ReactionLike, session.Snapshot().Reactions[msgID])

	// 切换到点踩，互斥
	require.NoError(t, svc.React(session, msgID, model.ReactionDislike))
	assert.Equal(t, model.ReactionDislike, session.Snapshot().Reactions[msgID])

	// 重复点击取消
	require.NoError(t, svc.React(session, msgID, model.ReactionDislike))
	assert.NotContains(t, session.Snapshot().Reactions, msgID)

	assert.ErrorIs(t, svc.React(session, "missing", model.ReactionLike), util.ErrMessageNotFound)
}

func TestChatCopyConfirmExpires(t *testing.T) {
	srv := newStreamServer([]string{"hi"})
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	svc.copyTTL = 20 * time.Millisecond

	session := svc.CreateSession(KindVideo, "")
	out, err := svc.Submit(context.Background(), session, "hello")
	require.NoError(t, err)
	drain(out)

	msgID := session.Snapshot().Messages[1].ID
	require.NoError(t, svc.MarkCopied(session, msgID))
	assert.Equal(t, msgID, session.Snapshot().CopiedID)

	require.Eventually(t, func() bool {
		return session.Snapshot().CopiedID == ""
	}, time.Second, 5*time.Millisecond)
}

func TestChatSpeakExclusivity(t *testing.T) {
	srv := newStreamServer([]string{"answer"})
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, "")

	for i := 0; i < 2; i++ {
		out, err := svc.Submit(context.Background(), session, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
		drain(out)
	}

	snap := session.Snapshot()
	require.Len(t, snap.Messages, 4)
	msgA := snap.Messages[1].ID
	msgB := snap.Messages[3].ID

	var buf bytes.Buffer
	started, err := svc.Speak(context.Background(), session, msgA, &buf)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "mp3-bytes", buf.String())
	assert.Equal(t, msgA, session.Snapshot().SpeakingID)

	// 请求另一条消息会先停掉当前的
	buf.Reset()
	started, err = svc.Speak(context.Background(), session, msgB, &buf)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, msgB, session.Snapshot().SpeakingID)

	// 对正在播放的消息再次请求是停止
	buf.Reset()
	started, err = svc.Speak(context.Background(), session, msgB, &buf)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Empty(t, buf.String())
	assert.Empty(t, session.Snapshot().SpeakingID)
}

func TestChatSpeakFailureClearsState(t *testing.T) {
	srv := newStreamServer([]string{"answer"})
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "test-model", TimeoutSeconds: 5})
	speech := NewSpeechService(config.TTSConfig{APIKey: "test-key"}).WithGenerator(&fakeGenerator{fail: true})
	svc := NewChatService(ai, speech, "")

	session := svc.CreateSession(KindVideo, "")
	out, err := svc.Submit(context.Background(), session, "hello")
	require.NoError(t, err)
	drain(out)

	msgID := session.Snapshot().Messages[1].ID

	var buf bytes.Buffer
	started, err := svc.Speak(context.Background(), session, msgID, &buf)
	assert.Error(t, err)
	assert.False(t, started)

	snap := session.Snapshot()
	assert.Empty(t, snap.SpeakingID)
	assert.Empty(t, snap.LoadingID)
}

func TestChatEndSpeechClearsMarker(t *testing.T) {
	srv := newStreamServer([]string{"answer"})
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, "")
	out, err := svc.Submit(context.Background(), session, "hello")
	require.NoError(t, err)
	drain(out)

	msgID := session.Snapshot().Messages[1].ID

	var buf bytes.Buffer
	_, err = svc.Speak(context.Background(), session, msgID, &buf)
	require.NoError(t, err)

	svc.EndSpeech(session, msgID)
	assert.Empty(t, session.Snapshot().SpeakingID)
}

func TestFlattenUIMessages(t *testing.T) {
	msgs := []UIMessage{
		{Role: "user", Parts: []model.MessagePart{{Type: "text", Text: "hello"}}},
		{Role: "assistant", Parts: []model.MessagePart{{Type: "reasoning", Text: "私有"}, {Type: "text", Text: "hi"}}},
		{Role: "user", Parts: []model.MessagePart{{Type: "text", Text: "   "}}},
	}

	flat := flattenUIMessages(msgs)
	require.Len(t, flat, 2)
	assert.Equal(t, AIChatMessage{Role: "user", Content: "hello"}, flat[0])
	// 非文本片段被忽略
	assert.Equal(t, AIChatMessage{Role: "assistant", Content: "hi"}, flat[1])
}

// newCapturingStreamServer 在吐流之前记录请求体，便于断言系统提示词
func newCapturingStreamServer(chunks []string, lastBody *[]byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*lastBody = body

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			payload, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": c}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestChatProductQASessionUsesDocumentPrompt(t *testing.T) {
	var body []byte
	srv := newCapturingStreamServer([]string{"ok"}, &body)
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(SessionKind("product_qa"), "")
	require.Equal(t, KindProductQA, session.Kind)

	out, err := svc.Submit(context.Background(), session, "What is the maximum tenure?")
	require.NoError(t, err)
	drain(out)

	var req struct {
		Messages []AIChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	require.NotEmpty(t, req.Messages)
	require.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Two Wheeler Loan")
	assert.Contains(t, req.Messages[0].Content, "sample product document")
}

func TestChatVideoSessionUsesTranscriptPrompt(t *testing.T) {
	var body []byte
	srv := newCapturingStreamServer([]string{"ok"}, &body)
	defer srv.Close()

	svc := newChatFixture(srv.URL)
	session := svc.CreateSession(KindVideo, `"[{\"text\":\"welcome aboard\"}]"`)

	out, err := svc.Submit(context.Background(), session, "What is this video about?")
	require.NoError(t, err)
	drain(out)

	var req struct {
		Messages []AIChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	require.NotEmpty(t, req.Messages)
	require.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "welcome aboard")
	assert.NotContains(t, req.Messages[0].Content, "sample product document")
}

func TestSnapshotCopiesMessageParts(t *testing.T) {
	svc := newChatFixture("http://unused")
	session := svc.CreateSession(KindVideo, "")

	session.mu.Lock()
	live := &model.ChatMessage{
		ID:    "m1",
		Role:  model.RoleAssistant,
		Parts: []model.MessagePart{{Type: "text", Text: "partial"}},
	}
	session.messages = append(session.messages, live)
	session.mu.Unlock()

	snap := session.Snapshot()

	session.mu.Lock()
	live.Parts[0].Text += " and more"
	session.mu.Unlock()

	// 快照不得与仍在流式写入的消息共享片段
	assert.Equal(t, "partial", snap.Messages[0].Parts[0].Text)
}
