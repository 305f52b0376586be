package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
)

const (
	RealtimeEventFeedbackReceived = "feedback-received"
	realtimeEventHeartbeat        = "heartbeat"
	realtimeSubscriberBuffer      = 16
)

// RealtimeMessage is delivered to the page owner's open event streams.
type RealtimeMessage struct {
	UserID    string
	EventType string
	PageID    string
	Slug      string
	Timestamp time.Time
}

// RealtimeDispatcher fans submission events out to the owner's subscribers. Publishing never
// blocks; a subscriber whose buffer is full misses the event.
type RealtimeDispatcher struct {
	mu         sync.RWMutex
	owners     map[string]map[int64]chan RealtimeMessage
	lastID     int64
	bufferSize int
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		owners:     make(map[string]map[int64]chan RealtimeMessage),
		bufferSize: realtimeSubscriberBuffer,
	}
}

// Subscribe registers a stream for userID until ctx is done or the returned cleanup runs.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, userID string) (<-chan RealtimeMessage, func()) {
	if userID == "" {
		closed := make(chan RealtimeMessage)
		close(closed)
		return closed, func() {}
	}
	stream := make(chan RealtimeMessage, d.bufferSize)
	subscriptionID := d.add(userID, stream)

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.remove(userID, subscriptionID)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// Publish delivers message to every stream of message.UserID.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.UserID == "" || message.EventType == "" {
		return
	}
	for _, stream := range d.streamsFor(message.UserID) {
		select {
		case stream <- message:
		default:
		}
	}
}

// FeedbackReceived satisfies feedback.Notifier.
func (d *RealtimeDispatcher) FeedbackReceived(event feedback.FeedbackEvent) {
	d.Publish(RealtimeMessage{
		UserID:    event.OwnerID,
		EventType: RealtimeEventFeedbackReceived,
		PageID:    event.PageID,
		Slug:      event.Slug,
		Timestamp: event.ReceivedAt,
	})
}

func (d *RealtimeDispatcher) subscriberCount(userID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.owners[userID])
}

func (d *RealtimeDispatcher) streamsFor(userID string) []chan RealtimeMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	subscriptions := d.owners[userID]
	if len(subscriptions) == 0 {
		return nil
	}
	streams := make([]chan RealtimeMessage, 0, len(subscriptions))
	for _, stream := range subscriptions {
		streams = append(streams, stream)
	}
	return streams
}

func (d *RealtimeDispatcher) add(userID string, stream chan RealtimeMessage) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastID++
	subscriptions, ok := d.owners[userID]
	if !ok {
		subscriptions = make(map[int64]chan RealtimeMessage)
		d.owners[userID] = subscriptions
	}
	subscriptions[d.lastID] = stream
	return d.lastID
}

func (d *RealtimeDispatcher) remove(userID string, subscriptionID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subscriptions := d.owners[userID]
	if subscriptions == nil {
		return
	}
	delete(subscriptions, subscriptionID)
	if len(subscriptions) == 0 {
		delete(d.owners, userID)
	}
}
