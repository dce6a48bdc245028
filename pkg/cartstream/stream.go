// Package cartstream carries live cart snapshots from mutation sites to
// streaming consumers over Redis pub/sub. Delivery is advisory: a dropped
// snapshot is superseded by the next one, so consumers only ever need the
// latest state.
package cartstream

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

// Snapshot is the full cart state published on every mutation.
type Snapshot struct {
	OwnerID   string           `json:"owner_id"`
	Items     models.CartLines `json:"items"`
	ItemCount int              `json:"item_count"`
	Total     int              `json:"total"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SnapshotFor derives a snapshot from the given lines.
func SnapshotFor(ownerID string, items models.CartLines, now time.Time) Snapshot {
	return Snapshot{
		OwnerID:   ownerID,
		Items:     items,
		ItemCount: items.ItemCount(),
		Total:     items.Total(),
		UpdatedAt: now,
	}
}

type publishClient interface {
	Publish(ctx context.Context, channel string, payload any) error
	CartEventsChannel(ownerID string) string
}

// Publisher pushes snapshots onto the per-owner Redis channel.
type Publisher struct {
	client publishClient
	logg   *logger.Logger
}

// NewPublisher wires a snapshot publisher over the Redis client.
func NewPublisher(client publishClient, logg *logger.Logger) *Publisher {
	return &Publisher{client: client, logg: logg}
}

// Publish sends the snapshot. Failures are logged and absorbed; the cart
// mutation that triggered the publish has already succeeded.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot) {
	if p == nil || p.client == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		if p.logg != nil {
			p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "marshal cart snapshot failed")
		}
		return
	}
	channel := p.client.CartEventsChannel(snap.OwnerID)
	if err := p.client.Publish(ctx, channel, payload); err != nil {
		if p.logg != nil {
			p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "publish cart snapshot failed")
		}
	}
}

type subscribeClient interface {
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
	CartEventsChannel(ownerID string) string
}

// Subscriber opens per-owner snapshot subscriptions.
type Subscriber struct {
	client subscribeClient
	logg   *logger.Logger
}

// NewSubscriber wires a snapshot subscriber over the Redis client.
func NewSubscriber(client subscribeClient, logg *logger.Logger) *Subscriber {
	return &Subscriber{client: client, logg: logg}
}

// Subscription delivers snapshots for one cart owner. The channel holds at
// most one pending snapshot; when the consumer lags, older snapshots are
// replaced rather than queued.
type Subscription struct {
	C      <-chan Snapshot
	pubsub *redislib.PubSub
	cancel context.CancelFunc
}

// Close tears down the subscription and its pump goroutine.
func (s *Subscription) Close() error {
	if s == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

// Subscribe opens a coalescing snapshot feed for the owner. The caller must
// Close the subscription when done.
func (s *Subscriber) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	pubsub, err := s.client.Subscribe(ctx, s.client.CartEventsChannel(ownerID))
	if err != nil {
		return nil, err
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot, 1)
	sub := &Subscription{C: out, pubsub: pubsub, cancel: cancel}

	go s.pump(pumpCtx, pubsub.Channel(), out)

	return sub, nil
}

func (s *Subscriber) pump(ctx context.Context, in <-chan *redislib.Message, out chan Snapshot) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var snap Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "decode cart snapshot failed")
				}
				continue
			}
			offerLatest(out, snap)
		}
	}
}

// offerLatest replaces any undelivered snapshot with the newer one.
func offerLatest(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
