package service

import (
	"context"
	"testing"
	"time"

	"pulse_backend/internal/util"
	"pulse_backend/pkg/stt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	session *fakeSession
	started int
}

func (f *fakeRecognizer) Start(ctx context.Context, language string) (stt.Session, error) {
	f.started++
	f.session = &fakeSession{results: make(chan stt.Result, 16)}
	return f.session, nil
}

type fakeSession struct {
	results chan stt.Result
	stopped bool
}

func (f *fakeSession) Results() <-chan stt.Result { return f.results }

func (f *fakeSession) SendAudio(data []byte) error { return nil }

func (f *fakeSession) Stop() error {
	if !f.stopped {
		f.stopped = true
		close(f.results)
	}
	return nil
}

func (f *fakeSession) emit(text string, final bool) {
	f.results <- stt.Result{Text: text, IsFinal: final, Confidence: 0.9}
}

func TestDictationUnsupportedWithoutRecognizer(t *testing.T) {
	svc := NewDictationService(nil, "en-US")
	assert.False(t, svc.HasSupport())

	_, err := svc.CreateSession()
	assert.ErrorIs(t, err, util.ErrNoRecognizer)
}

func TestDictationFinalResultsOnly(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewDictationService(rec, "en-US")

	session, err := svc.CreateSession()
	require.NoError(t, err)

	listening, err := svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, listening)

	rec.session.emit("hel", false)
	rec.session.emit("hello", true)
	rec.session.emit("wor", false)
	rec.session.emit("world", true)

	// 只转写最终结果，以空格拼接
	require.Eventually(t, func() bool {
		return session.Text() == "hello world"
	}, time.Second, 5*time.Millisecond)
}

func TestDictationToggleStops(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewDictationService(rec, "en-US")

	session, err := svc.CreateSession()
	require.NoError(t, err)

	listening, err := svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)
	require.True(t, listening)

	listening, err = svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)
	assert.False(t, listening)
	assert.True(t, rec.session.stopped)
	assert.False(t, session.IsListening())
}

func TestDictationChannelCloseSilentlyStops(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewDictationService(rec, "en-US")

	session, err := svc.CreateSession()
	require.NoError(t, err)

	_, err = svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)

	rec.session.emit("partial kept", true)
	// 识别端断开，监听标志静默复位，已有文本保留
	close(rec.session.results)

	require.Eventually(t, func() bool {
		return !session.IsListening()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "partial kept", session.Text())
}

func TestDictationSendAudioRequiresListening(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewDictationService(rec, "en-US")

	session, err := svc.CreateSession()
	require.NoError(t, err)

	assert.Error(t, session.SendAudio([]byte{1, 2, 3}))

	_, err = svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)
	assert.NoError(t, session.SendAudio([]byte{1, 2, 3}))
}

func TestDictationReset(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewDictationService(rec, "en-US")

	session, err := svc.CreateSession()
	require.NoError(t, err)

	_, err = svc.ToggleListening(context.Background(), session)
	require.NoError(t, err)

	rec.session.emit("some text", true)
	require.Eventually(t, func() bool {
		return session.Text() == "some text"
	}, time.Second, 5*time.Millisecond)

	session.Reset()
	assert.Empty(t, session.Text())
}
