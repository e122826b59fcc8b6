package auth

import (
	"fmt"
	"netquiz/errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const MaxUsernameLength = 32

var validate = validator.New()

type loginRequest struct {
	Username string `validate:"required,max=32"`
}

// ValidateUsername accepts non-empty names of at most 32 characters without
// whitespace or control characters.
func ValidateUsername(username string) error {
	if err := validate.Struct(loginRequest{Username: username}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidUsername, err)
	}
	if strings.ContainsFunc(username, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return fmt.Errorf("%w: whitespace not allowed", errors.ErrInvalidUsername)
	}
	return nil
}
