package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuiz_Score(t *testing.T) {
	quiz := DefaultQuizzes()[0]

	tests := []struct {
		name    string
		answers []int32
		want    int
	}{
		{"all correct", []int32{1, 1, 1}, 3},
		{"none correct", []int32{0, 2, 3}, 0},
		{"partial", []int32{1, 0, 1}, 2},
		{"fewer answers than questions", []int32{1}, 1},
		{"more answers than questions", []int32{1, 1, 1, 1, 1}, 3},
		{"no answers", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, quiz.Score(tt.answers))
		})
	}
}

func TestDefaultQuizzes(t *testing.T) {
	req := require.New(t)
	quizzes := DefaultQuizzes()

	req.Len(quizzes, 2)
	req.Equal("QUIZ001", quizzes[0].ID)
	req.Equal("Basic Quiz", quizzes[1].Title)
	for _, q := range quizzes {
		req.Len(q.Questions, 3)
	}
}
