package service

import (
	"context"
	"pulse_backend/internal/util"
	"pulse_backend/pkg/logger"
	"pulse_backend/pkg/stt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DictationService 包装可选的语音识别能力。识别器未配置时
// HasSupport 返回 false，调用方应当隐藏入口而不是报错。
type DictationService struct {
	recognizer stt.Recognizer
	language   string

	mu       sync.Mutex
	sessions map[string]*DictationSession
}

func NewDictationService(recognizer stt.Recognizer, language string) *DictationService {
	return &DictationService{
		recognizer: recognizer,
		language:   language,
		sessions:   make(map[string]*DictationSession),
	}
}

func (s *DictationService) HasSupport() bool {
	return s.recognizer != nil
}

type DictationSession struct {
	mu sync.Mutex

	ID        string
	listening bool
	text      string

	live   stt.Session
	cancel context.CancelFunc
}

func (s *DictationService) CreateSession() (*DictationSession, error) {
	if !s.HasSupport() {
		return nil, util.ErrNoRecognizer
	}

	session := &DictationSession{ID: uuid.New().String()}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

func (s *DictationService) GetSession(id string) (*DictationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *DictationService) CloseSession(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.stop()
	}
}

// ToggleListening 开始或停止连续识别，返回切换后的监听标志
func (s *DictationService) ToggleListening(ctx context.Context, session *DictationSession) (bool, error) {
	session.mu.Lock()
	if session.listening {
		session.mu.Unlock()
		session.stop()
		return false, nil
	}
	session.mu.Unlock()

	recCtx, cancel := context.WithCancel(context.Background())
	live, err := s.recognizer.Start(recCtx, s.language)
	if err != nil {
		cancel()
		return false, err
	}

	session.mu.Lock()
	session.live = live
	session.cancel = cancel
	session.listening = true
	session.mu.Unlock()

	go session.consume(live)

	return true, nil
}

// consume 只转写最终结果，临时结果丢弃；结果以单个空格拼接。
// 通道关闭（识别错误或自然结束）时静默复位监听标志。
func (d *DictationSession) consume(live stt.Session) {
	for result := range live.Results() {
		if !result.IsFinal {
			continue
		}
		d.mu.Lock()
		if d.text != "" {
			d.text += " "
		}
		d.text += result.Text
		d.mu.Unlock()
	}

	d.mu.Lock()
	wasListening := d.listening
	d.listening = false
	d.live = nil
	d.mu.Unlock()

	if wasListening {
		logger.Log.Debug("dictation ended", zap.String("session", d.ID))
	}
}

func (d *DictationSession) stop() {
	d.mu.Lock()
	live := d.live
	cancel := d.cancel
	d.listening = false
	d.live = nil
	d.cancel = nil
	d.mu.Unlock()

	if live != nil {
		if err := live.Stop(); err != nil {
			logger.Log.Warn("failed to stop recognition", zap.Error(err))
		}
	}
	if cancel != nil {
		cancel()
	}
}

func (d *DictationSession) SendAudio(data []byte) error {
	d.mu.Lock()
	live := d.live
	listening := d.listening
	d.mu.Unlock()

	if !listening || live == nil {
		return util.ErrNoRecognizer
	}
	return live.SendAudio(data)
}

func (d *DictationSession) IsListening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

func (d *DictationSession) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Reset 清空已听写文本（提交聊天输入后调用）
func (d *DictationSession) Reset() {
	d.mu.Lock()
	d.text = ""
	d.mu.Unlock()
}
