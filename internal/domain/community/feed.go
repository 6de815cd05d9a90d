// internal/domain/community/feed.go
package community

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"roamly/internal/domain/auth"
)

// Channel is the redis pub/sub channel new members are announced on.
const Channel = "community:joined"

type Member struct {
	Username string    `json:"username"`
	Location string    `json:"location,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Feed fans new-member announcements out through redis so every server
// instance can stream them to its own websocket clients.
type Feed struct {
	redis  *redis.Client
	logger *slog.Logger
}

func NewFeed(rdb *redis.Client, logger *slog.Logger) *Feed {
	return &Feed{redis: rdb, logger: logger}
}

func (f *Feed) AnnounceMember(ctx context.Context, user *auth.User) error {
	payload, err := json.Marshal(Member{
		Username: user.Username,
		Location: user.Location,
		JoinedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode member: %w", err)
	}
	return f.redis.Publish(ctx, Channel, payload).Err()
}

// Subscribe delivers announcements until ctx is cancelled. The returned
// channel is closed when the subscription ends.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Member, error) {
	sub := f.redis.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	out := make(chan Member)
	go func() {
		defer sub.Close()
		f.forward(ctx, sub.Channel(), out)
	}()
	return out, nil
}

// forward decodes announcements from msgs onto out until ctx is done or msgs
// closes, then closes out. Malformed payloads are dropped.
func (f *Feed) forward(ctx context.Context, msgs <-chan *redis.Message, out chan<- Member) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var m Member
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				f.logger.Warn("drop malformed member announcement", "error", err)
				continue
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}
