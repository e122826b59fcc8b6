//go:generate go run go.uber.org/mock/mockgen -source=quiz_repository.go -destination=../../mocks/mock_quiz_repository.go -package=mocks
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"netquiz/domain"
	"netquiz/errors"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type IQuizRepository interface {
	SaveQuiz(q domain.Quiz) error
	GetQuiz(id string) (domain.Quiz, error)
	ListQuizzes() ([]domain.Quiz, error)
	SaveScore(quizID, username string, score int) error
	GetScore(quizID, username string) (int, error)
}

// QuizRepository keeps quizzes as their JSON document, the same bytes GET_QUIZ
// serves, and scores as protobuf Int32 values.
type QuizRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewQuizRepository(db *badger.DB, log *slog.Logger) *QuizRepository {
	return &QuizRepository{db: db, log: log}
}

func (r QuizRepository) SaveQuiz(q domain.Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quiz %s: %w", q.ID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(QuizPrefix+q.ID), data)
	})
}

func (r QuizRepository) GetQuiz(id string) (domain.Quiz, error) {
	var q domain.Quiz
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(QuizPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &q)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Quiz{}, fmt.Errorf("%s: %w", id, errors.ErrQuizNotFound)
	}
	return q, err
}

// ListQuizzes returns every quiz ordered by ID.
func (r QuizRepository) ListQuizzes() ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	err := r.db.View(func(txn *badger.Txn) error {
		return keysWithPrefix(txn, QuizPrefix, func(key []byte, item *badger.Item) error {
			return item.Value(func(val []byte) error {
				var q domain.Quiz
				if err := json.Unmarshal(val, &q); err != nil {
					r.log.Warn("Skipping corrupted quiz", "key", string(key), "error", err)
					return nil
				}
				quizzes = append(quizzes, q)
				return nil
			})
		})
	})
	return quizzes, err
}

// SaveScore keeps the latest score of a user for a quiz.
func (r QuizRepository) SaveScore(quizID, username string, score int) error {
	data, err := proto.Marshal(wrapperspb.Int32(int32(score)))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(scoreKey(quizID, username), data)
	})
}

func (r QuizRepository) GetScore(quizID, username string) (int, error) {
	var v wrapperspb.Int32Value
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scoreKey(quizID, username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, fmt.Errorf("score of %s on %s: %w", username, quizID, errors.ErrScoreNotFound)
	}
	return int(v.GetValue()), err
}

func scoreKey(quizID, username string) []byte {
	return []byte(ScorePrefix + quizID + ":" + username)
}
