package auth

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"

	"netquiz/errors"
	"netquiz/infrastructure/storage"
	"netquiz/mocks"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "correct horse battery staple"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("Tr0ub4dor&3", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_InvalidHash(t *testing.T) {
	req := require.New(t)

	for _, encoded := range []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=3,p=2$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$a2V5",
	} {
		_, err := ComparePassword("secret", encoded)
		req.ErrorIs(err, errors.ErrInvalidHash, encoded)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Simple name", "alice", false},
		{"Unicode name", "zoë", false},
		{"Max length", strings.Repeat("a", MaxUsernameLength), false},
		{"Empty", "", true},
		{"Too long", strings.Repeat("a", MaxUsernameLength+1), true},
		{"Inner space", "alice bob", true},
		{"Tab", "alice\t", true},
		{"Control character", "al\x00ice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidUsername)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAcceptAll(t *testing.T) {
	require.NoError(t, AcceptAll{}.Authenticate(context.Background(), "alice", ""))
}

func TestAccountAuthenticator(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	authenticator := NewAccountAuthenticator(log, storage.NewAccountRepository(db))

	// Given a first login, the account is registered
	req.NoError(authenticator.Authenticate(ctx, "alice", "s3cret"))

	// Then the same credential is accepted again
	req.NoError(authenticator.Authenticate(ctx, "alice", "s3cret"))

	// Then another credential is refused
	req.ErrorIs(authenticator.Authenticate(ctx, "alice", "guess"), errors.ErrInvalidCredentials)

	// Then an empty credential cannot register an account
	req.ErrorIs(authenticator.Authenticate(ctx, "bob", ""), errors.ErrInvalidCredentials)
}

func TestAccountAuthenticator_Repository_Failures(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	accounts := mocks.NewMockIAccountRepository(ctrl)
	authenticator := NewAccountAuthenticator(log, accounts)
	storeErr := stderrors.New("disk full")

	// Given the store cannot be read
	accounts.EXPECT().GetPasswordHash("alice").Return("", storeErr)
	req.ErrorIs(authenticator.Authenticate(ctx, "alice", "s3cret"), storeErr)

	// Given a stored hash that is corrupted
	accounts.EXPECT().GetPasswordHash("bob").Return("garbage", nil)
	req.ErrorIs(authenticator.Authenticate(ctx, "bob", "s3cret"), errors.ErrInvalidHash)

	// Given a concurrent first login registered carol in between
	accounts.EXPECT().GetPasswordHash("carol").Return("", errors.ErrAccountNotFound)
	accounts.EXPECT().CreateAccount("carol", gomock.Any()).Return(errors.ErrAccountExists)
	req.ErrorIs(authenticator.Authenticate(ctx, "carol", "s3cret"), errors.ErrInvalidCredentials)
}

func TestAccountAuthenticator_Canceled_Context(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	authenticator := NewAccountAuthenticator(log, mocks.NewMockIAccountRepository(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, authenticator.Authenticate(ctx, "alice", "s3cret"), context.Canceled)
}
