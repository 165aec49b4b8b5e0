package websocket

import (
	"context"
	"nest-server/core"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const (
	FeedRoom         = socketio.Room("feed")
	FeedChangedEvent = "feed-changed"
	FeedHistoryEvent = "feed-history"

	maxRecentEvents = 50
)

var (
	recentEvents []core.Event
	recentMutex  sync.RWMutex
)

func addRecentEvent(e core.Event) {
	recentMutex.Lock()
	defer recentMutex.Unlock()

	recentEvents = append(recentEvents, e)
	if len(recentEvents) > maxRecentEvents {
		recentEvents = recentEvents[len(recentEvents)-maxRecentEvents:]
	}
}

func getRecentEvents() []core.Event {
	recentMutex.RLock()
	defer recentMutex.RUnlock()

	events := make([]core.Event, len(recentEvents))
	copy(events, recentEvents)
	return events
}

func clearRecentEvents() {
	recentMutex.Lock()
	recentEvents = nil
	recentMutex.Unlock()
}

func eventPayload(e core.Event) map[string]any {
	return map[string]any{
		"resource": e.Resource,
		"action":   e.Action,
		"id":       e.ID,
		"owner":    e.Owner.String(),
	}
}

// SetupSocketIO creates the socket.io server. Every client joins the feed room
// on connect and receives the most recent events.
func SetupSocketIO(allowedOrigins []string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)

	// socket.io matches origins literally, so any wildcard entry opens it up.
	var origin any = "*"
	origins := make([]any, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if strings.Contains(o, "*") {
			origins = nil
			break
		}
		origins = append(origins, o)
	}
	if len(origins) > 0 {
		origin = origins
	}
	opts.SetCors(&types.Cors{
		Origin:      origin,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		socket.Join(FeedRoom)
		logrus.WithField("socket_id", socket.Id()).Debug("Socket joined feed")

		history := getRecentEvents()
		payload := make([]map[string]any, 0, len(history))
		for _, e := range history {
			payload = append(payload, eventPayload(e))
		}
		_ = socket.Emit(FeedHistoryEvent, payload)

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnect", func(...any) {
			socket.RemoveAllListeners("")
		})
	})
	return srv
}

// Feed publishes mutation events to the feed room.
type Feed struct {
	srv *socketio.Server
}

func NewFeed(srv *socketio.Server) *Feed {
	return &Feed{srv: srv}
}

func (f *Feed) Notify(ctx context.Context, e core.Event) {
	addRecentEvent(e)
	if f.srv == nil {
		return
	}
	if err := f.srv.To(FeedRoom).Emit(FeedChangedEvent, eventPayload(e)); err != nil {
		logrus.WithError(err).WithField("event", e).Warn("Failed to broadcast feed event")
	}
}
