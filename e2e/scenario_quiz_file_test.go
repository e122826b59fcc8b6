package e2e

import (
	"bytes"
	"fmt"
	"netquiz/client"
	"netquiz/errors"
	"netquiz/services"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type testQuizFileSuite struct {
	BaseSuite
}

func TestQuizFileSuite(t *testing.T) {
	suite.Run(t, &testQuizFileSuite{})
}

func (s *testQuizFileSuite) TestQuizRoundTrip() {
	player := s.Name("player")
	ctx, cancel := s.Ctx()
	defer cancel()

	s.Step("Step 1: the built-in catalogue is listed")
	quizzes, err := client.ListQuizzes(ctx, s.Config.ServerAddr)
	s.Require().NoError(err)
	s.Require().Contains(quizzes, "QUIZ001:General Knowledge Quiz")
	s.Require().Contains(quizzes, "QUIZ002:Basic Quiz")

	s.Step("Step 2: a quiz is fetched and answered perfectly")
	quiz, err := client.GetQuiz(ctx, s.Config.ServerAddr, "QUIZ001")
	s.Require().NoError(err)
	s.Require().Len(quiz.Questions, 3)

	answers := make([]int32, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers = append(answers, int32(q.CorrectAnswer))
	}
	score, err := client.SubmitAnswers(ctx, s.Config.ServerAddr, player, quiz.ID, answers)
	s.Require().NoError(err)
	s.Require().Equal(len(quiz.Questions), score)
	s.WaitNotification(fmt.Sprintf("QUIZ:%s scored 3/3 on %s", player, quiz.Title))

	s.Step("Step 3: partial and unknown submissions")
	score, err = client.SubmitAnswers(ctx, s.Config.ServerAddr, player, quiz.ID, answers[:1])
	s.Require().NoError(err)
	s.Require().Equal(1, score)

	score, err = client.SubmitAnswers(ctx, s.Config.ServerAddr, player, "NOPE", answers)
	s.Require().NoError(err)
	s.Require().Equal(services.UnknownQuizScore, score)

	_, err = client.GetQuiz(ctx, s.Config.ServerAddr, "NOPE")
	s.Require().ErrorIs(err, errors.ErrRequestRefused)
	s.Require().ErrorContains(err, "Quiz not found: NOPE")
}

func (s *testQuizFileSuite) TestFileRoundTrip() {
	uploader := s.Name("uploader")
	name := s.Name("notes") + ".txt"
	payload := bytes.Repeat([]byte("netquiz "), 4096)
	ctx, cancel := s.Ctx()
	defer cancel()

	s.Step("Step 1: upload")
	err := client.Upload(ctx, s.Config.ServerAddr, name, uploader, bytes.NewReader(payload), int64(len(payload)))
	s.Require().NoError(err)
	s.WaitNotification(fmt.Sprintf("NEW_FILE:%s uploaded by %s", name, uploader))

	s.Step("Step 2: the file is listed with its size")
	files, err := client.ListFiles(ctx, s.Config.ServerAddr)
	s.Require().NoError(err)
	listed, ok := lo.Find(files, func(f client.RemoteFile) bool { return f.Name == name })
	s.Require().True(ok)
	s.Require().Equal(int64(len(payload)), listed.Size)

	s.Step("Step 3: download returns the same bytes")
	var got bytes.Buffer
	n, err := client.Download(ctx, s.Config.ServerAddr, name, &got)
	s.Require().NoError(err)
	s.Require().Equal(int64(len(payload)), n)
	s.Require().Equal(payload, got.Bytes())

	s.Step("Step 4: names outside the shared directory are refused")
	_, err = client.Download(ctx, s.Config.ServerAddr, "../"+name, &got)
	s.Require().ErrorIs(err, errors.ErrRequestRefused)
	err = client.Upload(ctx, s.Config.ServerAddr, "../escape.txt", uploader, bytes.NewReader([]byte("x")), 1)
	s.Require().ErrorIs(err, errors.ErrRequestRefused)
}
