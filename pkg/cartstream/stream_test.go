package cartstream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

func TestSnapshotForDerivesTotals(t *testing.T) {
	items := models.CartLines{
		{ProductID: "2", Name: "Organic Carrots", Price: 80, Category: enums.ProductCategoryVegetable, Quantity: 2},
		{ProductID: "12", Name: "Fresh Strawberries", Price: 250, Category: enums.ProductCategoryFruit, Quantity: 1},
	}
	now := time.Now()
	snap := SnapshotFor("user-1", items, now)

	if snap.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", snap.ItemCount)
	}
	if snap.Total != 410 {
		t.Fatalf("expected total 410, got %d", snap.Total)
	}
	if !snap.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamp %v", snap.UpdatedAt)
	}
}

func TestOfferLatestCoalesces(t *testing.T) {
	ch := make(chan Snapshot, 1)

	offerLatest(ch, Snapshot{OwnerID: "u", Total: 1})
	offerLatest(ch, Snapshot{OwnerID: "u", Total: 2})
	offerLatest(ch, Snapshot{OwnerID: "u", Total: 3})

	got := <-ch
	if got.Total != 3 {
		t.Fatalf("expected latest snapshot (total 3), got %d", got.Total)
	}
	select {
	case extra := <-ch:
		t.Fatalf("expected empty channel, got snapshot total %d", extra.Total)
	default:
	}
}

type capturingPublisher struct {
	channel string
	payload []byte
	err     error
}

func (c *capturingPublisher) Publish(ctx context.Context, channel string, payload any) error {
	c.channel = channel
	c.payload = payload.([]byte)
	return c.err
}

func (c *capturingPublisher) CartEventsChannel(ownerID string) string {
	return "gg:cart_events:" + ownerID
}

func TestPublisherSendsEncodedSnapshot(t *testing.T) {
	client := &capturingPublisher{}
	pub := NewPublisher(client, nil)

	items := models.CartLines{{ProductID: "9", Name: "Fresh Apples", Price: 150, Quantity: 2}}
	pub.Publish(context.Background(), SnapshotFor("user-42", items, time.Now()))

	if client.channel != "gg:cart_events:user-42" {
		t.Fatalf("unexpected channel %q", client.channel)
	}
	var snap Snapshot
	if err := json.Unmarshal(client.payload, &snap); err != nil {
		t.Fatalf("decode published payload: %v", err)
	}
	if snap.Total != 300 || snap.ItemCount != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
