package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/civic-report-api/api/handlers"
	"github.com/linesmerrill/civic-report-api/models"
)

func TestFeed_PublishDoesNotBlock(t *testing.T) {
	feed := handlers.NewFeed()
	events, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Publish(models.FeedEvent{Type: models.FeedReportCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, models.FeedReportCreated, (<-events).Type)
}

func TestFeed_Unsubscribe(t *testing.T) {
	feed := handlers.NewFeed()
	events, unsubscribe := feed.Subscribe()
	assert.Equal(t, 1, feed.Subscribers())

	unsubscribe()
	unsubscribe()

	assert.Equal(t, 0, feed.Subscribers())
	_, open := <-events
	assert.False(t, open)
	feed.Publish(models.FeedEvent{Type: models.FeedReportStatus})
}

func TestFeed_StreamsReportEvents(t *testing.T) {
	ta := newTestApp(t)
	srv := httptest.NewServer(ta.app.Router)
	defer srv.Close()
	token := adminToken(t, ta)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/admin/feed?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return ta.app.Feed.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	rr := ta.submit(t, validFields())
	require.Equal(t, http.StatusOK, rr.Code)
	id := decodeID(t, rr)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var created models.FeedEvent
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, models.FeedReportCreated, created.Type)
	assert.Equal(t, id, created.Report.ID.Hex())
	assert.Equal(t, models.StatusOpen, created.Report.Status)

	rr = ta.do(statusRequest(t, id, token, `{"status":"Resolved"}`))
	require.Equal(t, http.StatusOK, rr.Code)

	var changed models.FeedEvent
	require.NoError(t, conn.ReadJSON(&changed))
	assert.Equal(t, models.FeedReportStatus, changed.Type)
	assert.Equal(t, models.StatusResolved, changed.Report.Status)
}
