package events

import (
	"sync"
	"time"

	"github.com/olebedev/emitter"
	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

type Kind string

const (
	TopicConcealed    Kind = "vault.concealed"
	TopicUnconcealed  Kind = "vault.unconcealed"
	TopicDestroyed    Kind = "vault.destroyed"
	TopicCreated      Kind = "vault.created"
	TopicRefreshed    Kind = "vault.refreshed"
	TopicNotification Kind = "notification"

	// TopicVault matches every vault.* topic.
	TopicVault Kind = "vault.*"
)

type Event struct {
	Kind    Kind      `json:"kind"`
	Owner   string    `json:"owner,omitempty"`
	VaultID string    `json:"vault_id,omitempty"`
	AssetID string    `json:"asset_id,omitempty"`
	Index   uint64    `json:"index,omitempty"`
	Digest  string    `json:"digest,omitempty"`
	Message string    `json:"message,omitempty"`
	Failed  bool      `json:"failed,omitempty"`
	At      time.Time `json:"at"`
}

// Bus fans events out to subscribers. Delivery to a subscriber is
// asynchronous; a slow subscriber never blocks Publish.
type Bus struct {
	em       *emitter.Emitter
	capacity uint
	log      *zap.Logger
}

func NewBus(capacity uint, log *zap.Logger) *Bus {
	return &Bus{
		em:       emitter.New(capacity),
		capacity: capacity,
		log:      logger.OrNop(log).Named("events"),
	}
}

// Publish stamps At when unset. The returned channel closes once every
// current subscriber has received the event.
func (b *Bus) Publish(evt Event) <-chan struct{} {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	b.log.Debug("publish",
		zap.String("kind", string(evt.Kind)),
		zap.String("owner", evt.Owner),
		zap.String("vault_id", evt.VaultID),
	)
	return b.em.Emit(string(evt.Kind), evt)
}

// Subscribe listens on kind, which may be a glob such as TopicVault. The
// channel is closed after cancel.
func (b *Bus) Subscribe(kind Kind) (<-chan Event, func()) {
	raw := b.em.On(string(kind))
	out := make(chan Event, b.capacity)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case e, ok := <-raw:
				if !ok {
					return
				}
				if len(e.Args) == 0 {
					continue
				}
				evt, ok := e.Args[0].(Event)
				if !ok {
					continue
				}
				select {
				case out <- evt:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.em.Off(string(kind), raw)
		})
	}
	return out, cancel
}

// Close detaches every subscriber.
func (b *Bus) Close() {
	for _, topic := range b.em.Topics() {
		b.em.Off(topic)
	}
}
