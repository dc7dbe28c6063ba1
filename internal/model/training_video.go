package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// VideoStatus 观看状态，缺省视为 Pending
type VideoStatus string

const (
	StatusPending   VideoStatus = "Pending"
	StatusStarted   VideoStatus = "Started"
	StatusCompleted VideoStatus = "Completed"
)

// QuizOption 选项键值对；顺序在加载时固定，渲染与判分都按它来
type QuizOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// QuizOptions 兼容两种 JSON 形态：历史数据是 {"A":"x"} 映射，
// 新数据是有序的 [{key,label}] 数组。映射形态按键名排序定序。
type QuizOptions []QuizOption

func (o *QuizOptions) UnmarshalJSON(data []byte) error {
	var ordered []QuizOption
	if err := json.Unmarshal(data, &ordered); err == nil {
		*o = ordered
		return nil
	}

	var legacy map[string]string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]QuizOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, QuizOption{Key: k, Label: legacy[k]})
	}
	*o = opts
	return nil
}

func (o QuizOptions) Has(key string) bool {
	for _, opt := range o {
		if opt.Key == key {
			return true
		}
	}
	return false
}

type QuizQuestion struct {
	Question      string      `json:"question"`
	Options       QuizOptions `json:"options"`
	CorrectAnswer string      `json:"correctAnswer"`
	Timestamp     float64     `json:"timestamp"`
}

// Validate 加载期校验：正确答案必须在选项里，触发时间不能为负
func (q *QuizQuestion) Validate() error {
	if q.Timestamp < 0 {
		return fmt.Errorf("question %q: negative timestamp %f", q.Question, q.Timestamp)
	}
	if !q.Options.Has(q.CorrectAnswer) {
		return fmt.Errorf("question %q: correct answer %q not among options", q.Question, q.CorrectAnswer)
	}
	return nil
}

type TrainingVideo struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId,omitempty"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags,omitempty"`
	VideoURL     string         `json:"videoUrl"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	Transcript   string         `json:"Transcript,omitempty"`
	Language     string         `json:"language"`
	Questions    []QuizQuestion `json:"questions,omitempty"`
	CreatedAt    time.Time      `json:"createdAt,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt,omitempty"`
}

func (v *TrainingVideo) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("video %q: missing id", v.Title)
	}
	for i := range v.Questions {
		if err := v.Questions[i].Validate(); err != nil {
			return fmt.Errorf("video %s: %w", v.ID, err)
		}
	}
	return nil
}
