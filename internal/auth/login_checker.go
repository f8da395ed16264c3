package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (lc *LoginChecker) GetLoggedUserID(ctx context.Context, token string) (string, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return "", ErrNotLoggedIn
		}
		return "", err
	}

	userID, createdAt, err := parseSessionValue(cmd.Val())
	if err != nil {
		return "", err
	}

	if time.Since(createdAt) > lc.ttl {
		return "", ErrNotLoggedIn
	}

	return userID, nil
}

func parseSessionValue(val string) (userID string, createdAt time.Time, err error) {
	parts := strings.SplitN(val, sessionValueSeparator, 2)
	if len(parts) != 2 {
		return "", time.Time{}, ErrNotLoggedIn
	}

	createdAtUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, err
	}

	return parts[0], time.Unix(createdAtUnix, 0), nil
}
