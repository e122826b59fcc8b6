//go:generate go run go.uber.org/mock/mockgen -source=account_repository.go -destination=../../mocks/mock_account_repository.go -package=mocks
package storage

import (
	"fmt"
	"netquiz/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IAccountRepository interface {
	CreateAccount(username, passwordHash string) error
	GetPasswordHash(username string) (string, error)
}

// Account is a chat account registered on first login.
type Account struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount stores the hash unless the username is already registered.
// The existence check and the write share one transaction, so concurrent
// registrations of a name conflict instead of overwriting each other.
func (a AccountRepository) CreateAccount(username, passwordHash string) error {
	data, err := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"password_hash": structpb.NewStringValue(passwordHash),
		"created_at":    structpb.NewNumberValue(float64(time.Now().Unix())),
	}})
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		key := []byte(AccountPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrAccountExists
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return errors.ErrAccountExists
	}
	return err
}

func (a AccountRepository) GetPasswordHash(username string) (string, error) {
	account, err := a.GetAccount(username)
	return account.PasswordHash, err
}

func (a AccountRepository) GetAccount(username string) (Account, error) {
	var pb structpb.Struct
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(AccountPrefix + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &pb)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Account{}, fmt.Errorf("%s: %w", username, errors.ErrAccountNotFound)
	}
	if err != nil {
		return Account{}, err
	}
	fields := pb.GetFields()
	return Account{
		Username:     username,
		PasswordHash: fields["password_hash"].GetStringValue(),
		CreatedAt:    time.Unix(int64(fields["created_at"].GetNumberValue()), 0).UTC(),
	}, nil
}
