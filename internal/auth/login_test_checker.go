package auth

import "context"

type LoginTestChecker struct {
	LoggedSessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]string{},
	}
}

func (c *LoginTestChecker) GetLoggedUserID(_ context.Context, token string) (string, error) {
	userID, ok := c.LoggedSessions[token]
	if !ok {
		return "", ErrNotLoggedIn
	}
	return userID, nil
}
