package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/infrastructure/storage"
	"netquiz/protocol"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// MaxAnswers bounds the answer count accepted by SUBMIT_ANSWERS.
const MaxAnswers = 1000

// UnknownQuizScore is replied to SUBMIT_ANSWERS for a quiz that does not exist.
const UnknownQuizScore = -1

var validate = validator.New()

// QuizService serves the QUIZ tag: listing, fetching and scoring quizzes.
type QuizService struct {
	log       *slog.Logger
	repo      storage.IQuizRepository
	announcer contract.Announcer
}

func NewQuizService(log *slog.Logger, repo storage.IQuizRepository, announcer contract.Announcer) *QuizService {
	return &QuizService{log: log, repo: repo, announcer: announcer}
}

// Seed stores the quizzes that are not in the catalogue yet and returns how many were added.
func (s *QuizService) Seed(quizzes []domain.Quiz) (int, error) {
	added := 0
	for _, q := range quizzes {
		if err := ValidateQuiz(q); err != nil {
			return added, err
		}
		_, err := s.repo.GetQuiz(q.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, errors.ErrQuizNotFound) {
			return added, err
		}
		if err := s.repo.SaveQuiz(q); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// ValidateQuiz checks the quiz shape and that every correct answer is one of its options.
func ValidateQuiz(q domain.Quiz) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w %q: %v", errors.ErrInvalidQuiz, q.ID, err)
	}
	for i, question := range q.Questions {
		if question.CorrectAnswer >= len(question.Options) {
			return fmt.Errorf("%w %q: question %d has no option %d", errors.ErrInvalidQuiz, q.ID, i, question.CorrectAnswer)
		}
	}
	return nil
}

// LoadQuizzesFile reads a JSON catalogue, either an array of quizzes or an
// object keyed by quiz ID.
func LoadQuizzesFile(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []domain.Quiz
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var byID map[string]domain.Quiz
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return lo.MapToSlice(byID, func(id string, q domain.Quiz) domain.Quiz {
		if q.ID == "" {
			q.ID = id
		}
		return q
	}), nil
}

func (s *QuizService) Handle(_ context.Context, conn net.Conn, r *protocol.Reader, w *protocol.Writer) {
	defer func() { _ = conn.Close() }()

	cmd, err := r.ReadString()
	if err != nil {
		s.log.Debug("No quiz command received", "error", err)
		return
	}

	switch cmd {
	case protocol.CmdListQuizzes:
		err = s.listQuizzes(w)
	case protocol.CmdGetQuiz:
		err = s.getQuiz(r, w)
	case protocol.CmdSubmitAnswers:
		err = s.submitAnswers(r, w)
	default:
		s.log.Warn("Unknown quiz command", "command", cmd)
		err = w.WriteString(protocol.ReplyError)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		s.log.Warn("Quiz request failed", "command", cmd, "remote", conn.RemoteAddr().String(), "error", err)
	}
}

func (s *QuizService) listQuizzes(w *protocol.Writer) error {
	quizzes, err := s.repo.ListQuizzes()
	if err != nil {
		return err
	}
	return w.WriteStrings(lo.Map(quizzes, func(q domain.Quiz, _ int) string {
		return q.ID + ":" + q.Title
	}))
}

func (s *QuizService) getQuiz(r *protocol.Reader, w *protocol.Writer) error {
	id, err := r.ReadString()
	if err != nil {
		return err
	}

	quiz, err := s.repo.GetQuiz(id)
	if errors.Is(err, errors.ErrQuizNotFound) {
		if err := w.WriteString(protocol.ReplyError); err != nil {
			return err
		}
		return w.WriteString("Quiz not found: " + id)
	}
	if err != nil {
		return err
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	if err := w.WriteString(protocol.ReplySuccess); err != nil {
		return err
	}
	return w.WriteString(string(data))
}

func (s *QuizService) submitAnswers(r *protocol.Reader, w *protocol.Writer) error {
	username, err := r.ReadString()
	if err != nil {
		return err
	}
	quizID, err := r.ReadString()
	if err != nil {
		return err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 || n > MaxAnswers {
		return fmt.Errorf("answer count %d: %w", n, errors.ErrInvalidLength)
	}
	answers := make([]int32, n)
	for i := range answers {
		if answers[i], err = r.ReadInt32(); err != nil {
			return err
		}
	}

	quiz, err := s.repo.GetQuiz(quizID)
	if errors.Is(err, errors.ErrQuizNotFound) {
		return w.WriteInt32(UnknownQuizScore)
	}
	if err != nil {
		return err
	}

	score := quiz.Score(answers)
	if err := s.repo.SaveScore(quizID, username, score); err != nil {
		s.log.Error("Score not saved", "quiz_id", quizID, "username", username, "error", err)
	}
	s.log.Info("Quiz submitted", "quiz_id", quizID, "username", username, "score", score, "total", len(quiz.Questions))
	s.announcer.Announce(domain.ScoreNotice(username, quiz.Title, score, len(quiz.Questions)))
	return w.WriteInt32(int32(score))
}
