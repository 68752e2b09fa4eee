package auth

import "errors"

var (
	ErrUnknownUser   = errors.New("unknown user")
	ErrWrongPassword = errors.New("wrong password")
)

// User is the identity shown by the presentation layer once logged in.
type User struct {
	Name string
	Hash []byte
}

type Verifier interface {
	Verify(username, password string) (User, error)
}
