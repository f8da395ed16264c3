package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Login(t *testing.T) {
	db, mock := redismock.NewClientMock()

	authService := NewService(time.Hour, db)
	require.NotNil(t, authService)
	authService.RandStringFunc = func(s int) (string, error) {
		return "test-token", nil
	}

	ctx := context.Background()
	now := time.Now()

	sessionKey := sessionKeyPrefix + "test-token"
	sessionValue := fmt.Sprintf("user-1%s%d", sessionValueSeparator, now.Unix())
	mock.ExpectSet(sessionKey, sessionValue, 0).SetVal("OK")
	mock.ExpectSAdd(tokensSetKey, "test-token").SetVal(1)

	token, err := authService.Login(ctx, "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout(t *testing.T) {
	db, mock := redismock.NewClientMock()

	authService := NewService(time.Hour, db)
	ctx := context.Background()

	sessionKey := sessionKeyPrefix + "test-token"
	sessionValue := fmt.Sprintf("user-1%s%d", sessionValueSeparator, time.Now().Unix())
	mock.ExpectGet(sessionKey).SetVal(sessionValue)
	mock.ExpectDel(sessionKey).SetVal(1)
	mock.ExpectSRem(tokensSetKey, "test-token").SetVal(1)

	err := authService.Logout(ctx, "test-token")
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout_unknownToken(t *testing.T) {
	db, mock := redismock.NewClientMock()

	authService := NewService(time.Hour, db)
	ctx := context.Background()

	mock.ExpectGet(sessionKeyPrefix + "nope").RedisNil()

	err := authService.Logout(ctx, "nope")
	require.ErrorIs(t, err, ErrNotLoggedIn)
}
