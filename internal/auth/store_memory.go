package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// StaticUsers holds a fixed set of credentials, hashed at construction.
type StaticUsers struct {
	byName map[string]User
}

func NewStaticUsers(creds map[string]string) (*StaticUsers, error) {
	s := &StaticUsers{byName: make(map[string]User, len(creds))}

	for name, password := range creds {
		name = strings.TrimSpace(name)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.byName[name] = User{Name: name, Hash: hash}
	}
	return s, nil
}

// Verify reports an unknown user and a wrong password separately, the way
// the login form words them.
func (s *StaticUsers) Verify(username, password string) (User, error) {
	u, ok := s.byName[strings.TrimSpace(username)]
	if !ok {
		return User{}, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrWrongPassword
	}
	return u, nil
}
