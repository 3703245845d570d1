package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/models"
)

const (
	feedBuffer     = 16
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// admin routes already require a bearer token
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Feed fans report events out to connected admin dashboards
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan models.FeedEvent]struct{}
}

// NewFeed returns a hub with no subscribers
func NewFeed() *Feed {
	return &Feed{subscribers: map[chan models.FeedEvent]struct{}{}}
}

// Subscribe registers a new listener. The returned func unsubscribes and closes the channel.
func (f *Feed) Subscribe() (<-chan models.FeedEvent, func()) {
	ch := make(chan models.FeedEvent, feedBuffer)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish hands event to every subscriber without blocking. A subscriber whose
// buffer is full misses the event.
func (f *Feed) Publish(event models.FeedEvent) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			api.RecordFeedEventDropped()
			zap.S().Warnw("dropping feed event for slow subscriber", "type", event.Type, "report", event.Report.ID.Hex())
		}
	}
}

// Subscribers returns the number of connected listeners
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// ServeWS upgrades the request and streams feed events as JSON until the client goes away
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}
	events, unsubscribe := f.Subscribe()
	admin := api.AdminFromContext(r.Context())
	zap.S().Infow("admin connected to live feed", "admin", admin)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		unsubscribe()
		conn.Close()
		zap.S().Infow("admin disconnected from live feed", "admin", admin)
	}()

	for {
		select {
		case event := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				zap.S().Warnw("failed to write feed event", "admin", admin, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
