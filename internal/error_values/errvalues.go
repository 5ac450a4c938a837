package errorvalues

import "errors"

var (
	ErrUserExists       = errors.New("such user already exists")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrInvalidToken     = errors.New("invalid token")

	ErrInvalidRating      = errors.New("rating out of range")
	ErrInvalidCheckInType = errors.New("unknown check-in type")
	ErrEntryNotFound      = errors.New("mood entry doesn't exists")
	ErrPrefsNotFound      = errors.New("preferences doesn't exists")

	ErrNoLocalState = errors.New("no saved local state")

	ErrVoiceBusy   = errors.New("voice session is still loading")
	ErrNotSignedIn = errors.New("no identity present")
	ErrEmptyFields = errors.New("credential fields must not be empty")
)
