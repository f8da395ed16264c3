package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-redis/redismock/v8"
)

func TestLoginChecker_GetLoggedUserID(t *testing.T) {
	db, mock := redismock.NewClientMock()

	loginChecker := NewLoginChecker(time.Hour, db)
	require.NotNil(t, loginChecker)

	ctx := context.Background()

	mock.ExpectGet(sessionKeyPrefix + "invalid token").RedisNil()
	userID, err := loginChecker.GetLoggedUserID(ctx, "invalid token")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, userID)

	mock.ExpectGet(sessionKeyPrefix + "invalid token").RedisNil()
	userID, err = loginChecker.GetLoggedUserID(ctx, "invalid token")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, userID) // idempotent

	testToken := "test-token"
	now := time.Now()
	sessionKey := sessionKeyPrefix + testToken
	sessionValue := fmt.Sprintf("user-1%s%d", sessionValueSeparator, now.Unix())

	mock.ExpectGet(sessionKey).SetVal(sessionValue)
	userID, err = loginChecker.GetLoggedUserID(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	mock.ExpectGet(sessionKey).SetVal(sessionValue)
	userID, err = loginChecker.GetLoggedUserID(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID) // idempotent
}

func TestLoginChecker_GetLoggedUserID_expiredSession(t *testing.T) {
	db, mock := redismock.NewClientMock()

	loginChecker := NewLoginChecker(time.Hour, db)
	ctx := context.Background()

	createdAt := time.Now().Add(-2 * time.Hour)
	sessionKey := sessionKeyPrefix + "old-token"
	sessionValue := fmt.Sprintf("user-1%s%d", sessionValueSeparator, createdAt.Unix())

	mock.ExpectGet(sessionKey).SetVal(sessionValue)
	userID, err := loginChecker.GetLoggedUserID(ctx, "old-token")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, userID)
}
