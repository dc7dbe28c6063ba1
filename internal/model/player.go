package model

// PlayerState 播放器状态机的四个状态
type PlayerState string

const (
	PlayerIdle           PlayerState = "Idle"
	PlayerPlaying        PlayerState = "Playing"
	PlayerPaused         PlayerState = "Paused"
	PlayerQuestionActive PlayerState = "QuestionActive"
)

// PlaybackState 播放进度快照
type PlaybackState struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Playing     bool    `json:"playing"`
	Fullscreen  bool    `json:"fullscreen"`
}
