package stt

import "context"

// Result 一段识别文本；IsFinal 为 false 时是临时（interim）结果
type Result struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

type Session interface {
	Stop() error
	SendAudio(data []byte) error
	Results() <-chan Result
}

// Recognizer 语音识别能力的抽象，具体实现见 deepgram.go
type Recognizer interface {
	Start(ctx context.Context, language string) (Session, error)
}
