// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

type UserID string

// ParseUserID trims s and checks it against the identifier limits.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", ErrUserIDEmpty
	}
	if len(s) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(s), nil
}

// UserInfo is the informational profile a client may announce after joining.
// It is stored as-is and never relayed.
type UserInfo struct {
	Username string `json:"username,omitempty"`
	Language string `json:"language,omitempty"`
	Raw      []byte `json:"-"`
}

func (u *UserInfo) SetUsername(username string) {
	if len(username) > MaxUsernameLen {
		cut := MaxUsernameLen
		for cut > 0 && !utf8.RuneStart(username[cut]) {
			cut--
		}
		username = username[:cut]
	}
	u.Username = username
}
