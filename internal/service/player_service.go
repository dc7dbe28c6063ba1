package service

import (
	"context"
	"pulse_backend/internal/model"
	"pulse_backend/internal/repository"
	"pulse_backend/internal/util"
	"sync"
	"time"

	"github.com/google/uuid"
)

// answerAckDelay 答对后到恢复播放之间的确认停留
const answerAckDelay = 1500 * time.Millisecond

// PlayerService 管理播放会话。每个会话是一台
// Idle/Playing/Paused/QuestionActive 状态机，独占自己的 AnsweredSet
// 和播放进度；会话随关闭而丢弃，不做任何持久化。
type PlayerService struct {
	videoRepo *repository.VideoRepository
	training  *TrainingService

	mu       sync.Mutex
	sessions map[string]*PlayerSession

	ackDelay time.Duration
}

func NewPlayerService(videoRepo *repository.VideoRepository, training *TrainingService) *PlayerService {
	return &PlayerService{
		videoRepo: videoRepo,
		training:  training,
		sessions:  make(map[string]*PlayerSession),
		ackDelay:  answerAckDelay,
	}
}

type PlayerSession struct {
	mu sync.Mutex

	ID      string
	VideoID string

	questions []model.QuizQuestion
	state     model.PlayerState
	playback  model.PlaybackState

	// answered 以触发时间为键，只增不减，会话结束即丢弃
	answered map[float64]bool
	active   *model.QuizQuestion
	rejected map[string]bool
	feedback string

	resumePending bool
	ackDelay      time.Duration
}

// PublicQuestion 下发给播放端的题目视图，不携带正确答案
type PublicQuestion struct {
	Question  string            `json:"question"`
	Options   model.QuizOptions `json:"options"`
	Timestamp float64           `json:"timestamp"`
}

type PlayerSnapshot struct {
	ID       string              `json:"id"`
	VideoID  string              `json:"videoId"`
	State    model.PlayerState   `json:"state"`
	Playback model.PlaybackState `json:"playback"`
	Answered []float64           `json:"answered"`
	Active   *PublicQuestion     `json:"activeQuestion,omitempty"`
	Rejected []string            `json:"rejectedOptions,omitempty"`
	Feedback string              `json:"feedback,omitempty"`
}

func (s *PlayerService) CreateSession(videoID string, duration float64) (*PlayerSession, error) {
	video, err := s.videoRepo.FindByID(videoID)
	if err != nil {
		return nil, err
	}

	session := &PlayerSession{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		questions: video.Questions,
		state:     model.PlayerIdle,
		playback:  model.PlaybackState{Duration: duration},
		answered:  make(map[float64]bool),
		rejected:  make(map[string]bool),
		ackDelay:  s.ackDelay,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

func (s *PlayerService) GetSession(id string) (*PlayerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *PlayerService) CloseSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Play Idle/Paused -> Playing。题目弹出期间播放请求被忽略：
// 离开 QuestionActive 的唯一途径是答对。
func (p *PlayerSession) Play() PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == model.PlayerIdle || p.state == model.PlayerPaused {
		p.state = model.PlayerPlaying
		p.playback.Playing = true
	}
	return p.snapshotLocked()
}

func (p *PlayerSession) Pause() PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == model.PlayerPlaying {
		p.state = model.PlayerPaused
		p.playback.Playing = false
	}
	return p.snapshotLocked()
}

// Seek 直接移动播放头，不受题目状态约束；同时重置越过检测的基线，
// 被跳过的题目不会在 seek 落点补触发。
func (p *PlayerSession) Seek(t float64) PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t < 0 {
		t = 0
	}
	if p.playback.Duration > 0 && t > p.playback.Duration {
		t = p.playback.Duration
	}
	p.playback.CurrentTime = t
	return p.snapshotLocked()
}

func (p *PlayerSession) SetFullscreen(on bool) PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playback.Fullscreen = on
	return p.snapshotLocked()
}

// Tick 播放时间推进。在没有激活题目时按列表顺序找第一道满足
// 条件的题：播放头落在 [timestamp, timestamp+1) 窗口内，或本次
// 推进从时间戳下方越过了它（粗粒度 tick 也不会漏题）。命中即暂停
// 并弹题。到达片尾时标记视频完成。
func (s *PlayerService) Tick(ctx context.Context, p *PlayerSession, t float64) PlayerSnapshot {
	p.mu.Lock()

	prev := p.playback.CurrentTime
	p.playback.CurrentTime = t

	if p.state == model.PlayerPlaying && p.active == nil {
		for i := range p.questions {
			q := &p.questions[i]
			if p.answered[q.Timestamp] {
				continue
			}
			inWindow := t >= q.Timestamp && t < q.Timestamp+1
			crossed := prev < q.Timestamp && t >= q.Timestamp
			if inWindow || crossed {
				p.state = model.PlayerQuestionActive
				p.playback.Playing = false
				p.active = q
				p.rejected = make(map[string]bool)
				p.feedback = ""
				break
			}
		}
	}

	completed := p.playback.Duration > 0 && t >= p.playback.Duration && p.state == model.PlayerPlaying
	if completed {
		p.state = model.PlayerPaused
		p.playback.Playing = false
	}

	snap := p.snapshotLocked()
	videoID := p.VideoID
	p.mu.Unlock()

	if completed && s.training != nil {
		// 状态存储失败不影响播放
		_ = s.training.MarkCompleted(ctx, videoID)
	}

	return snap
}

type AnswerResult struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// Answer 判定当前激活题目的选项。答错只把该选项标记为已拒绝，
// 可以继续尝试，没有次数限制。答对后停留确认时长，然后把时间戳
// 记入 AnsweredSet、清除激活题目并恢复播放，恰好一次。
func (p *PlayerSession) Answer(key string) (AnswerResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return AnswerResult{}, util.ErrQuestionNotActive
	}
	if !p.active.Options.Has(key) {
		return AnswerResult{}, util.ErrUnknownOption
	}
	if p.resumePending {
		// 已经答对、等待恢复，后续点击忽略
		return AnswerResult{Correct: true, Feedback: p.feedback}, nil
	}

	if key != p.active.CorrectAnswer {
		p.rejected[key] = true
		p.feedback = "Incorrect. Please try again."
		return AnswerResult{Correct: false, Feedback: p.feedback}, nil
	}

	p.feedback = "Correct! Well done."
	p.resumePending = true
	question := p.active

	time.AfterFunc(p.ackDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.resumePending || p.active != question {
			return
		}
		p.answered[question.Timestamp] = true
		p.active = nil
		p.rejected = make(map[string]bool)
		p.feedback = ""
		p.resumePending = false
		p.state = model.PlayerPlaying
		p.playback.Playing = true
	})

	return AnswerResult{Correct: true, Feedback: p.feedback}, nil
}

func (p *PlayerSession) Snapshot() PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *PlayerSession) snapshotLocked() PlayerSnapshot {
	snap := PlayerSnapshot{
		ID:       p.ID,
		VideoID:  p.VideoID,
		State:    p.state,
		Playback: p.playback,
		Feedback: p.feedback,
	}

	snap.Answered = make([]float64, 0, len(p.answered))
	for _, q := range p.questions {
		if p.answered[q.Timestamp] {
			snap.Answered = append(snap.Answered, q.Timestamp)
		}
	}

	if p.active != nil {
		snap.Active = &PublicQuestion{
			Question:  p.active.Question,
			Options:   p.active.Options,
			Timestamp: p.active.Timestamp,
		}
		for _, opt := range p.active.Options {
			if p.rejected[opt.Key] {
				snap.Rejected = append(snap.Rejected, opt.Key)
			}
		}
	}

	return snap
}
