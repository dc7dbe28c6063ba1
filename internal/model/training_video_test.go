package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizOptionsUnmarshalLegacyMap(t *testing.T) {
	var opts QuizOptions
	err := json.Unmarshal([]byte(`{"B":"second","A":"first","C":"third"}`), &opts)
	require.NoError(t, err)

	// 映射形态按键名排序
	assert.Equal(t, QuizOptions{
		{Key: "A", Label: "first"},
		{Key: "B", Label: "second"},
		{Key: "C", Label: "third"},
	}, opts)
}

func TestQuizOptionsUnmarshalOrderedArray(t *testing.T) {
	var opts QuizOptions
	err := json.Unmarshal([]byte(`[{"key":"Z","label":"last"},{"key":"A","label":"first"}]`), &opts)
	require.NoError(t, err)

	// 数组形态保持原始顺序
	assert.Equal(t, QuizOptions{
		{Key: "Z", Label: "last"},
		{Key: "A", Label: "first"},
	}, opts)
}

func TestQuizQuestionValidate(t *testing.T) {
	valid := QuizQuestion{
		Question:      "q",
		Options:       QuizOptions{{Key: "A", Label: "a"}, {Key: "B", Label: "b"}},
		CorrectAnswer: "A",
		Timestamp:     3,
	}
	assert.NoError(t, valid.Validate())

	missingAnswer := valid
	missingAnswer.CorrectAnswer = "X"
	assert.Error(t, missingAnswer.Validate())

	negative := valid
	negative.Timestamp = -1
	assert.Error(t, negative.Validate())
}

func TestTrainingVideoValidate(t *testing.T) {
	video := TrainingVideo{
		ID:    "tv-1",
		Title: "t",
		Questions: []QuizQuestion{
			{Question: "q", Options: QuizOptions{{Key: "A", Label: "a"}}, CorrectAnswer: "A", Timestamp: 1},
		},
	}
	assert.NoError(t, video.Validate())

	video.ID = ""
	assert.Error(t, video.Validate())
}
