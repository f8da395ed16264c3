package auth

import (
	"context"
	"errors"
)

var ErrNotLoggedIn = errors.New("not logged in")

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	// GetLoggedUserID resolves the session token to the user ID it belongs to,
	// or returns ErrNotLoggedIn when the token is unknown or expired.
	GetLoggedUserID(ctx context.Context, token string) (string, error)
}
