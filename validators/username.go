package validators

import "errors"

var (
	ErrUsernameEmpty    = errors.New("no username provided")
	ErrUsernameTooShort = errors.New("username must be at least 4 characters long")
	ErrUsernameTooLong  = errors.New("username can't be longer than 20 characters")
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len(u) < 4 {
		return ErrUsernameTooShort
	}

	if len(u) > 20 {
		return ErrUsernameTooLong
	}

	return nil
}
