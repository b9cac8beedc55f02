package redis

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
)

// Publisher fans events out over Redis pub/sub on a single channel.
type Publisher struct {
	rdb     *goredis.Client
	channel string
}

func NewPublisher(rdb *goredis.Client, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, event interfaces.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", p.channel)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
