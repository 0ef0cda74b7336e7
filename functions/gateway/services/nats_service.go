package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
)

var (
	natsConn *nats.Conn
	natsOnce sync.Once
)

func GetNatsClient() (*nats.Conn, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, fmt.Errorf("NATS_URL environment variable is required")
	}
	return nats.Connect(url)
}

// getNatsConn lazily connects once per process. Live counts are a display
// convenience, so a missing broker is logged and tolerated.
func getNatsConn() *nats.Conn {
	natsOnce.Do(func() {
		conn, err := GetNatsClient()
		if err != nil {
			log.Printf("ERR: NATS unavailable, live counts disabled: %v", err)
			return
		}
		natsConn = conn
	})
	return natsConn
}

type countMsg struct {
	Count int64 `json:"count"`
}

// PublishConfirmedCount pushes the new RSVP confirmed-count. Without a
// broker the update is handed straight to the in-process broadcaster so a
// single-node deployment still gets live updates.
func PublishConfirmedCount(count int64) {
	conn := getNatsConn()
	if conn == nil {
		DefaultRsvpBroadcaster().Broadcast(count)
		return
	}
	data, err := json.Marshal(countMsg{Count: count})
	if err != nil {
		return
	}
	if err := conn.Publish(helpers.RSVP_COUNT_SUBJECT, data); err != nil {
		log.Printf("ERR: failed to publish confirmed count: %v", err)
		DefaultRsvpBroadcaster().Broadcast(count)
	}
}

func PublishWorkshopCount(workshopID string, count int64) {
	conn := getNatsConn()
	if conn == nil {
		return
	}
	data, err := json.Marshal(countMsg{Count: count})
	if err != nil {
		return
	}
	if err := conn.Publish(helpers.WORKSHOP_COUNT_SUBJECT_PREFIX+workshopID, data); err != nil {
		log.Printf("ERR: failed to publish workshop count: %v", err)
	}
}

// LiveCountBroadcaster holds exactly one underlying subscription per process
// and fans every update out to all interested consumers: the first subscriber
// triggers a point-read for the initial value and opens the channel, later
// subscribers reuse the same stream, and the last unsubscribe tears the
// channel down.
type LiveCountBroadcaster struct {
	mu          sync.Mutex
	conn        *nats.Conn
	subject     string
	fetch       func() (int64, error)
	sub         *nats.Subscription
	subscribers map[int64]chan int64
	nextID      int64
	last        int64
	hasLast     bool
}

func NewLiveCountBroadcaster(conn *nats.Conn, subject string, fetch func() (int64, error)) *LiveCountBroadcaster {
	return &LiveCountBroadcaster{
		conn:        conn,
		subject:     subject,
		fetch:       fetch,
		subscribers: make(map[int64]chan int64),
	}
}

// Subscribe returns the current value, a channel of pushed updates, and an
// unsubscribe func. Slow consumers miss intermediate values rather than
// blocking the fan-out.
func (b *LiveCountBroadcaster) Subscribe() (int64, <-chan int64, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasLast {
		if b.fetch != nil {
			count, err := b.fetch()
			if err != nil {
				return 0, nil, nil, fmt.Errorf("failed initial count read: %w", err)
			}
			b.last = count
		}
		b.hasLast = true
	}

	if b.sub == nil && b.conn != nil {
		sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
			var m countMsg
			if err := json.Unmarshal(msg.Data, &m); err != nil {
				return
			}
			b.Broadcast(m.Count)
		})
		if err != nil {
			return 0, nil, nil, fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
		}
		b.sub = sub
	}

	id := b.nextID
	b.nextID++
	ch := make(chan int64, 8)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
		if len(b.subscribers) == 0 {
			if b.sub != nil {
				if err := b.sub.Unsubscribe(); err != nil {
					log.Printf("ERR: failed to unsubscribe from %s: %v", b.subject, err)
				}
				b.sub = nil
			}
			b.hasLast = false
		}
	}

	return b.last, ch, unsubscribe, nil
}

// Broadcast fans a new value out to every subscriber without blocking.
func (b *LiveCountBroadcaster) Broadcast(count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = count
	b.hasLast = true
	for _, ch := range b.subscribers {
		select {
		case ch <- count:
		default:
		}
	}
}

func (b *LiveCountBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

var (
	rsvpBroadcaster     *LiveCountBroadcaster
	rsvpBroadcasterOnce sync.Once
)

// DefaultRsvpBroadcaster is the shared confirmed-count stream behind the
// /api/rsvp/live endpoint.
func DefaultRsvpBroadcaster() *LiveCountBroadcaster {
	rsvpBroadcasterOnce.Do(func() {
		rsvpBroadcaster = NewLiveCountBroadcaster(getNatsConn(), helpers.RSVP_COUNT_SUBJECT, nil)
	})
	return rsvpBroadcaster
}

// SetRsvpCountFetcher installs the point-read used for a first subscriber's
// initial value. Wired at startup once the DB handle exists.
func SetRsvpCountFetcher(fetch func() (int64, error)) {
	b := DefaultRsvpBroadcaster()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetch = fetch
}

var (
	verificationStream  = "EMAIL_VERIFICATIONS"
	verificationSubject = "emails.verification"
)

type emailVerificationMsg struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// QueueEmailVerification parks a verification request on a JetStream stream
// for the external mailer. Delivery itself is out of scope here.
func QueueEmailVerification(ctx context.Context, userID, email string) error {
	conn := getNatsConn()
	if conn == nil {
		return fmt.Errorf("NATS unavailable, cannot queue verification")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err = js.Stream(ctx, verificationStream); err != nil {
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     verificationStream,
			Subjects: []string{verificationSubject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	data, err := json.Marshal(emailVerificationMsg{UserID: userID, Email: email})
	if err != nil {
		return fmt.Errorf("failed to marshal verification msg: %w", err)
	}

	if _, err := js.Publish(ctx, verificationSubject, data); err != nil {
		return fmt.Errorf("failed to publish verification msg: %w", err)
	}
	return nil
}
