package auth

import (
	"context"
	"fmt"
	"log/slog"
	"netquiz/errors"
	"netquiz/infrastructure/storage"
)

// AcceptAll authenticates every credential.
type AcceptAll struct{}

func (AcceptAll) Authenticate(context.Context, string, string) error {
	return nil
}

// AccountAuthenticator registers an account on the first login of a username
// and checks the credential against it afterwards.
type AccountAuthenticator struct {
	log      *slog.Logger
	accounts storage.IAccountRepository
}

func NewAccountAuthenticator(log *slog.Logger, accounts storage.IAccountRepository) *AccountAuthenticator {
	return &AccountAuthenticator{log: log, accounts: accounts}
}

func (a *AccountAuthenticator) Authenticate(ctx context.Context, username, credential string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := a.accounts.GetPasswordHash(username)
	if errors.Is(err, errors.ErrAccountNotFound) {
		return a.register(username, credential)
	}
	if err != nil {
		return fmt.Errorf("load account %s: %w", username, err)
	}

	ok, err := ComparePassword(credential, hash)
	if err != nil {
		return fmt.Errorf("compare password of %s: %w", username, err)
	}
	if !ok {
		return errors.ErrInvalidCredentials
	}
	return nil
}

func (a *AccountAuthenticator) register(username, credential string) error {
	if credential == "" {
		return errors.ErrInvalidCredentials
	}
	hash, err := HashPassword(credential)
	if err != nil {
		return err
	}
	if err := a.accounts.CreateAccount(username, hash); err != nil {
		if errors.Is(err, errors.ErrAccountExists) {
			// Lost a race with another first login of the same name.
			return errors.ErrInvalidCredentials
		}
		return err
	}
	a.log.Info("Account registered", "username", username)
	return nil
}
