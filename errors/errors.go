package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")

	ErrUsernameTaken      = fmt.Errorf("username taken")
	ErrInvalidUsername    = fmt.Errorf("invalid username")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrSessionClosed      = fmt.Errorf("session closed")
	ErrServerClosed       = fmt.Errorf("server closed")

	ErrFrameTooLarge = fmt.Errorf("frame exceeds 65535 bytes")
	ErrInvalidLength = fmt.Errorf("invalid length prefix")
	ErrUnknownFrame  = fmt.Errorf("unknown server frame")

	ErrLoginRejected  = fmt.Errorf("login rejected")
	ErrRequestRefused = fmt.Errorf("request refused by server")

	ErrQuizNotFound    = fmt.Errorf("quiz not found")
	ErrScoreNotFound   = fmt.Errorf("score not found")
	ErrInvalidQuiz     = fmt.Errorf("invalid quiz")
	ErrFileNotFound    = fmt.Errorf("file not found")
	ErrInvalidFileName = fmt.Errorf("invalid file name")
	ErrUploadTooLarge  = fmt.Errorf("upload exceeds size limit")

	ErrAccountExists   = fmt.Errorf("account already exists")
	ErrAccountNotFound = fmt.Errorf("account not found")
	ErrInvalidHash     = fmt.Errorf("invalid hash format")
)

// Is lets callers match sentinels without importing the standard errors package alongside this one.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}
