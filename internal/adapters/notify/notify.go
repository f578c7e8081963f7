// Package notify announces exported prediction slices on a redis channel
package notify

import (
	"context"
	"encoding/json"

	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"
	"crimecast/internal/services/predict/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is where export events go unless configured otherwise
const DefaultChannel = "crimecast:predictions"

// publisher is the slice of *redis.Client we use
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Redis publishes one JSON message per exported slice
type Redis struct {
	pub     publisher
	channel string
	log     *logger.Logger
}

// New returns a notifier; a nil client yields a no-op notifier
func New(c *redis.Client, channel string) domain.Notifier {
	if c == nil {
		return Nop{}
	}
	return newRedis(c, channel)
}

func newRedis(p publisher, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{pub: p, channel: channel, log: logger.Named("notify")}
}

// Exported implements domain.Notifier
func (r *Redis) Exported(ctx context.Context, ev domain.ExportEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "marshal export event")
	}
	n, err := r.pub.Publish(ctx, r.channel, data).Result()
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "publish to %s", r.channel)
	}
	r.log.Debug().
		Str("channel", r.channel).
		Str("table", ev.Table).
		Int("rows", ev.Rows).
		Int64("receivers", n).
		Msg("export event published")
	return nil
}

// Nop drops every event
type Nop struct{}

// Exported implements domain.Notifier
func (Nop) Exported(context.Context, domain.ExportEvent) error { return nil }
