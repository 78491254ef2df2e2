package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// Publisher 是 Relay 的下游，生产环境为 *Producer。
type Publisher interface {
	Publish(ctx context.Context, msg CheckoutMessage) error
}

// Relay 将 Redis Stream 中的下单事件异步转发到 Kafka。
// 语义：发布 Kafka 成功后才 ACK Stream，失败则保留消息等待重试。
type Relay struct {
	rdb       *rd.Client
	publisher Publisher
	logger    *slog.Logger

	stream   string
	group    string
	consumer string
}

func NewRelay(rdb *rd.Client, publisher Publisher, stream, group, consumer string, logger *slog.Logger) *Relay {
	return &Relay{
		rdb:       rdb,
		publisher: publisher,
		logger:    logger,
		stream:    stream,
		group:     group,
		consumer:  consumer,
	}
}

func (r *Relay) Run(ctx context.Context) {
	if err := r.ensureGroup(ctx); err != nil {
		r.logger.Error("relay ensure group", "error", err)
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		// 先处理当前消费者历史 pending，避免遗留消息长期堆积。
		msgs, err := r.readGroup(ctx, "0", 0)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("relay read pending", "error", err)
			time.Sleep(300 * time.Millisecond)
			continue
		}
		if len(msgs) == 0 {
			msgs, err = r.readGroup(ctx, ">", 2*time.Second)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				r.logger.Error("relay read new", "error", err)
				time.Sleep(300 * time.Millisecond)
				continue
			}
		}

		for _, xm := range msgs {
			if err := r.processOne(ctx, xm); err != nil {
				r.logger.Error("relay process message", "id", xm.ID, "error", err)
				time.Sleep(200 * time.Millisecond)
				break
			}
		}
	}
}

func (r *Relay) ensureGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (r *Relay) readGroup(ctx context.Context, streamID string, block time.Duration) ([]rd.XMessage, error) {
	streams, err := r.rdb.XReadGroup(ctx, &rd.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, streamID},
		Count:    16,
		Block:    block,
		NoAck:    false,
	}).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]rd.XMessage, 0, 16)
	for _, s := range streams {
		out = append(out, s.Messages...)
	}
	return out, nil
}

func (r *Relay) processOne(ctx context.Context, xm rd.XMessage) error {
	msg, err := parseCheckoutEvent(xm.Values)
	if err != nil {
		// 脏消息直接 ACK 丢弃，避免阻塞队列。
		r.logger.Warn("relay dropping malformed event", "id", xm.ID, "error", err)
		if ackErr := r.ackAndDelete(ctx, xm.ID); ackErr != nil {
			return fmt.Errorf("parse failed: %v, ack failed: %w", err, ackErr)
		}
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, msg); err != nil {
		return err
	}
	return r.ackAndDelete(ctx, xm.ID)
}

func (r *Relay) ackAndDelete(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.XAck(ctx, r.stream, r.group, id)
	pipe.XDel(ctx, r.stream, id)
	_, err := pipe.Exec(ctx)
	return err
}

func parseCheckoutEvent(values map[string]interface{}) (CheckoutMessage, error) {
	requestID, err := getStreamString(values, "request_id")
	if err != nil {
		return CheckoutMessage{}, err
	}
	var nums [5]int64
	for i, key := range []string{"user_id", "order_id", "payment_id", "total", "deposit"} {
		s, err := getStreamString(values, key)
		if err != nil {
			return CheckoutMessage{}, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return CheckoutMessage{}, fmt.Errorf("invalid %s %q", key, s)
		}
		nums[i] = n
	}

	msg := CheckoutMessage{
		RequestID: requestID,
		UserID:    nums[0],
		OrderID:   nums[1],
		PaymentID: nums[2],
		Total:     nums[3],
		Deposit:   nums[4],
	}
	if s, err := getStreamString(values, "occurred_at"); err == nil {
		msg.OccurredAt, _ = time.Parse(time.RFC3339Nano, s)
	}
	if err := msg.Validate(); err != nil {
		return CheckoutMessage{}, err
	}
	return msg, nil
}

func getStreamString(values map[string]interface{}, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %s", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %s: %T", key, v)
	}
}
