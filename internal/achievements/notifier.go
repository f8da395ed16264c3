package achievements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	NotificationKindAward  = "award"
	NotificationKindRevoke = "revoke"

	notificationsChannel = "pushup-pal-achievements"
)

// Notification is one badge transition event. Celebrate is set only on
// awards, the clients use it to fire the confetti.
type Notification struct {
	UserID    string    `json:"userId"`
	BadgeID   string    `json:"badgeId"`
	BadgeName string    `json:"badgeName"`
	Kind      string    `json:"kind"`
	Celebrate bool      `json:"celebrate"`
	At        time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

var _ Notifier = (*RedisNotifier)(nil)
var _ Notifier = (*LogNotifier)(nil)

// RedisNotifier publishes badge transitions on a redis pub/sub channel, for
// connected clients to pick up live.
type RedisNotifier struct {
	redisClient *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		redisClient: redisClient,
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.redisClient.Publish(ctx, notificationsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogNotifier only logs the transitions, used in development and as the
// notifier of last resort.
type LogNotifier struct{}

func (n *LogNotifier) Notify(_ context.Context, notification Notification) error {
	log.Infof(
		"achievement %s: user [%s], badge [%s] %s",
		notification.Kind, notification.UserID, notification.BadgeID, notification.BadgeName,
	)
	return nil
}
