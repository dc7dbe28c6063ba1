package repository

import (
	"testing"

	"pulse_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDataset = `[
  {
    "id": "v1",
    "title": "Loan Basics",
    "language": "English",
    "questions": [
      {"question": "q1", "options": {"A": "a", "B": "b"}, "correctAnswer": "A", "timestamp": 5}
    ]
  },
  {
    "id": "v2",
    "title": "கடன் அடிப்படைகள்",
    "language": "Tamil"
  },
  {
    "id": "v3",
    "title": "KYC Walkthrough",
    "language": "English"
  }
]`

func TestVideoRepositoryLoad(t *testing.T) {
	repo, err := NewVideoRepositoryFromData([]byte(sampleDataset))
	require.NoError(t, err)

	assert.Equal(t, 3, repo.Count())
	assert.Len(t, repo.FindAll(), 3)
}

func TestVideoRepositoryFindByLanguage(t *testing.T) {
	repo, err := NewVideoRepositoryFromData([]byte(sampleDataset))
	require.NoError(t, err)

	tamil := repo.FindByLanguage("Tamil")
	require.Len(t, tamil, 1)
	assert.Equal(t, "v2", tamil[0].ID)

	assert.Len(t, repo.FindByLanguage("All"), 3)
	assert.Len(t, repo.FindByLanguage(""), 3)
	assert.Empty(t, repo.FindByLanguage("French"))
}

func TestVideoRepositoryFindByID(t *testing.T) {
	repo, err := NewVideoRepositoryFromData([]byte(sampleDataset))
	require.NoError(t, err)

	v, err := repo.FindByID("v1")
	require.NoError(t, err)
	assert.Equal(t, "Loan Basics", v.Title)

	_, err = repo.FindByID("missing")
	assert.ErrorIs(t, err, util.ErrVideoNotFound)
}

func TestVideoRepositoryRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "oops"},
		{"duplicate id", `[{"id":"v1","title":"a"},{"id":"v1","title":"b"}]`},
		{"missing id", `[{"title":"a"}]`},
		{"bad correct answer", `[{"id":"v1","title":"a","questions":[{"question":"q","options":{"A":"a"},"correctAnswer":"Z","timestamp":1}]}]`},
		{"negative timestamp", `[{"id":"v1","title":"a","questions":[{"question":"q","options":{"A":"a"},"correctAnswer":"A","timestamp":-2}]}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVideoRepositoryFromData([]byte(tc.data))
			assert.ErrorIs(t, err, util.ErrInvalidDataset)
		})
	}
}
