package queue

import (
	"context"

	rd "github.com/redis/go-redis/v9"
)

// Outbox 把事件追加到 Redis Stream，由 Relay 异步转发 Kafka。
type Outbox struct {
	rdb    *rd.Client
	stream string
}

func NewOutbox(rdb *rd.Client, stream string) *Outbox {
	return &Outbox{rdb: rdb, stream: stream}
}

func (o *Outbox) Append(ctx context.Context, msg CheckoutMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: msg.streamValues(),
	}).Err()
}
