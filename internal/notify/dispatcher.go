package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueSize is the dispatcher's buffered queue capacity.
const DefaultQueueSize = 256

// Event is one notification on its way to the webhook endpoint.
type Event struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	TournamentID string                 `json:"tournament_id,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Dispatcher fans engine events out to an HTTP webhook. Publishing never
// blocks: when the queue is full the incoming event is dropped and
// counted. A single consumer goroutine delivers events in FIFO order with
// one delivery attempt each; failed deliveries are logged and discarded.
type Dispatcher struct {
	queue      chan Event
	client     *http.Client
	webhookURL string
	dropped    atomic.Int64
	delivered  atomic.Int64
	failed     atomic.Int64
}

// NewDispatcher creates a dispatcher posting to webhookURL. An empty URL
// turns delivery into a no-op sink, which keeps Publish callers oblivious
// to whether notifications are configured.
func NewDispatcher(webhookURL string) *Dispatcher {
	return &Dispatcher{
		queue:      make(chan Event, DefaultQueueSize),
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Publish enqueues an event. It returns false when the queue was full and
// the event was dropped.
func (d *Dispatcher) Publish(eventType, tournamentID string, payload map[string]interface{}) bool {
	ev := Event{
		ID:           uuid.New().String(),
		Type:         eventType,
		TournamentID: tournamentID,
		Payload:      payload,
		CreatedAt:    time.Now(),
	}

	select {
	case d.queue <- ev:
		return true
	default:
		n := d.dropped.Add(1)
		log.Printf("[NOTIFY] Queue full, dropped %s event (%d dropped total)", eventType, n)
		return false
	}
}

// Run consumes the queue until the context is canceled. Events still
// queued at cancellation are abandoned.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("[NOTIFY] Dispatcher running (queue capacity %d)", cap(d.queue))
	for {
		select {
		case <-ctx.Done():
			log.Printf("[NOTIFY] Dispatcher stopped: delivered=%d failed=%d dropped=%d",
				d.delivered.Load(), d.failed.Load(), d.dropped.Load())
			return
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	if d.webhookURL == "" {
		d.delivered.Add(1)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		d.failed.Add(1)
		log.Printf("[NOTIFY] Failed to encode %s event: %v", ev.Type, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		d.failed.Add(1)
		log.Printf("[NOTIFY] Failed to build request for %s event: %v", ev.Type, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.failed.Add(1)
		log.Printf("[NOTIFY] Delivery failed for %s event %s: %v", ev.Type, ev.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.failed.Add(1)
		log.Printf("[NOTIFY] Webhook returned %d for %s event %s", resp.StatusCode, ev.Type, ev.ID)
		return
	}
	d.delivered.Add(1)
}

// Stats reports delivery counters since startup.
func (d *Dispatcher) Stats() (delivered, failed, dropped int64) {
	return d.delivered.Load(), d.failed.Load(), d.dropped.Load()
}
