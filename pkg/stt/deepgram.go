package stt

import (
	"context"
	"fmt"
	"pulse_backend/pkg/logger"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	listenws "github.com/deepgram/deepgram-go-sdk/pkg/client/listen/v1/websocket"
	"go.uber.org/zap"
)

type DeepgramRecognizer struct {
	token string
	model string
}

func NewDeepgramRecognizer(token, model string) *DeepgramRecognizer {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramRecognizer{token: token, model: model}
}

func (r *DeepgramRecognizer) Start(ctx context.Context, language string) (Session, error) {
	if language == "" {
		language = "en-US"
	}

	cOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          r.model,
		Language:       language,
		Punctuate:      true,
		Encoding:       "opus",
		Channels:       1,
		SampleRate:     48000,
		SmartFormat:    true,
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
	}

	session := &deepgramSession{
		results:     make(chan Result, 16),
		audioBuffer: make(chan []byte, 100),
	}

	client, err := listen.NewWebSocket(ctx, r.token, cOptions, tOptions, session)
	if err != nil {
		return nil, fmt.Errorf("error creating live transcription connection: %w", err)
	}

	session.client = client

	go session.client.Connect()

	return session, nil
}

type deepgramSession struct {
	client      *listenws.Client
	results     chan Result
	audioBuffer chan []byte
	isOpen      bool
	closeOnce   sync.Once
}

func (s *deepgramSession) Stop() error {
	close(s.audioBuffer)
	s.client.Stop()
	return nil
}

func (s *deepgramSession) SendAudio(data []byte) error {
	select {
	case s.audioBuffer <- data:
		return nil
	default:
		return fmt.Errorf("audio buffer full")
	}
}

func (s *deepgramSession) Results() <-chan Result {
	return s.results
}

func (s *deepgramSession) Open(ocr *api.OpenResponse) error {
	logger.Log.Info("deepgram connection open")
	s.isOpen = true
	go func() {
		for data := range s.audioBuffer {
			if err := s.client.WriteBinary(data); err != nil {
				logger.Log.Error("failed to write audio data", zap.Error(err))
			}
		}
	}()
	return nil
}

func (s *deepgramSession) Message(mr *api.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}

	transcript := strings.TrimSpace(mr.Channel.Alternatives[0].Transcript)
	if len(transcript) == 0 {
		return nil
	}

	result := Result{
		Text:       transcript,
		IsFinal:    mr.IsFinal,
		Confidence: mr.Channel.Alternatives[0].Confidence,
	}
	if result.IsFinal {
		// 最终结果不能丢，消费端落后时在回调里等待
		s.results <- result
		return nil
	}
	select {
	case s.results <- result:
	default:
		// 消费端落后时丢弃临时结果
	}

	return nil
}

// Close 连接关闭后不会再有 Message 回调，此处安全关闭结果通道
func (s *deepgramSession) Close(ocr *api.CloseResponse) error {
	logger.Log.Info("deepgram connection closed", zap.String("reason", ocr.Type))
	s.closeOnce.Do(func() { close(s.results) })
	return nil
}

func (s *deepgramSession) Metadata(md *api.MetadataResponse) error {
	return nil
}

func (s *deepgramSession) SpeechStarted(ssr *api.SpeechStartedResponse) error {
	return nil
}

func (s *deepgramSession) UtteranceEnd(ur *api.UtteranceEndResponse) error {
	logger.Log.Debug("utterance end", zap.Float64("lastWordEnd", ur.LastWordEnd))
	return nil
}

func (s *deepgramSession) Error(er *api.ErrorResponse) error {
	logger.Log.Error("deepgram error", zap.String("type", er.Type), zap.String("description", er.Description))
	return nil
}

func (s *deepgramSession) UnhandledEvent(byData []byte) error {
	logger.Log.Warn("unhandled deepgram event", zap.ByteString("data", byData))
	return nil
}
