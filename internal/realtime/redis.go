package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hivedesk/hivedesk-backend/internal/models"
)

const userChannelPrefix = "rt:user:"

var subscriberStarted sync.Once

// Publisher publishes events onto per-user Redis channels. It satisfies
// the services.Dispatcher contract and is injected into the messaging
// core rather than looked up globally.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, userID string, evt models.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, userChannelPrefix+userID, data).Err()
}

// StartSubscriber ensures a single shared Redis listener per instance,
// feeding the local hub.
func StartSubscriber(ctx context.Context, client *redis.Client, hub *Hub) {
	subscriberStarted.Do(func() {
		go runSubscriber(ctx, client, hub)
	})
}

func runSubscriber(ctx context.Context, client *redis.Client, hub *Hub) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, userChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Realtime Redis subscriber started (pattern: rt:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("realtime: subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				userID := strings.TrimPrefix(msg.Channel, userChannelPrefix)
				var evt models.Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("realtime: failed to unmarshal event: %v", err)
					continue
				}

				hub.Deliver(userID, evt)
			}
		}()
	}
}
