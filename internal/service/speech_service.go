package service

import (
	"context"
	"fmt"
	"io"
	"pulse_backend/internal/config"
	"pulse_backend/internal/util"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"
)

// SpeechGenerator 语音合成能力的抽象，测试里用假实现替换
type SpeechGenerator interface {
	TextToSpeechStreaming(ctx context.Context, text string, writer io.Writer) error
}

// SpeechService 按需调用 ElevenLabs 合成语音，返回 audio/mpeg 字节流
type SpeechService struct {
	cfg       config.TTSConfig
	generator SpeechGenerator
}

func NewSpeechService(cfg config.TTSConfig) *SpeechService {
	if cfg.VoiceID == "" {
		cfg.VoiceID = util.DefaultTTSVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = util.DefaultTTSModelID
	}
	s := &SpeechService{cfg: cfg}
	s.generator = &elevenLabsGenerator{apiKey: cfg.APIKey, voiceID: cfg.VoiceID, modelID: cfg.ModelID}
	return s
}

// WithGenerator 替换底层合成实现，仅测试使用
func (s *SpeechService) WithGenerator(g SpeechGenerator) *SpeechService {
	s.generator = g
	return s
}

// Configured 是否配置了上游凭证
func (s *SpeechService) Configured() bool {
	return s.cfg.APIKey != ""
}

func (s *SpeechService) Synthesize(ctx context.Context, text string, w io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return util.ErrEmptyText
	}
	if s.cfg.APIKey == "" {
		return util.ErrMissingCredential
	}
	return s.generator.TextToSpeechStreaming(ctx, text, w)
}

type elevenLabsGenerator struct {
	apiKey  string
	voiceID string
	modelID string
}

func (e *elevenLabsGenerator) TextToSpeechStreaming(ctx context.Context, text string, writer io.Writer) error {
	client := elevenlabs.NewClient(ctx, e.apiKey, 30*time.Second)
	ttsReq := elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	}

	if err := client.TextToSpeechStream(writer, e.voiceID, ttsReq); err != nil {
		return fmt.Errorf("failed to generate speech: %w", err)
	}
	return nil
}
