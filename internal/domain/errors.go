package domain

import "errors"

var (
	// ErrBankNotLoaded is returned when questions are requested before the
	// bank snapshot has been fetched.
	ErrBankNotLoaded = errors.New("question bank not loaded")
	// ErrQuestionNotFound indicates an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound indicates an unknown user ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("an account with that email already exists")
	// ErrGoogleAlreadyLinked indicates the Google identity belongs to another account.
	ErrGoogleAlreadyLinked = errors.New("google account already linked to a different user")
	// ErrInvalidCredentials covers failed logins and wrong current passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrGoogleAuthFailed indicates the identity-provider lookup failed.
	ErrGoogleAuthFailed = errors.New("google authentication failed")
)
