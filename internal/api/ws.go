package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanmaurya7/f1-map/internal/service"
	"github.com/amanmaurya7/f1-map/internal/tracking"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsMessage is a frame sent by a device.
type wsMessage struct {
	Type    string                  `json:"type"` // sample, error, network or session
	Sample  *service.SampleInput    `json:"sample,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Network *tracking.NetworkStatus `json:"network,omitempty"`
	Action  string                  `json:"action,omitempty"`
}

// wsReply is a frame sent to a device: an acknowledgement of its last
// message or a pushed location event.
type wsReply struct {
	Type     string                  `json:"type"` // ack, location, error or state
	OK       bool                    `json:"ok,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Code     string                  `json:"code,omitempty"`
	State    tracking.State          `json:"state,omitempty"`
	Location *service.LocationUpdate `json:"location,omitempty"`
}

// LocationSocket ingests device samples over a WebSocket and echoes the
// resulting location events back on the same connection.
type LocationSocket struct {
	location *service.LocationService
	log      *slog.Logger
}

func NewLocationSocket(location *service.LocationService, log *slog.Logger) *LocationSocket {
	return &LocationSocket{location: location, log: log.With("component", "ws")}
}

func (h *LocationSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := h.location.Bus().Subscribe()
	defer h.location.Bus().Unsubscribe(events)

	replies := make(chan wsReply, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, replies, events)
		// Unblock the reader when the writer gives up.
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	h.log.Debug("device connected", "remote", r.RemoteAddr)
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read failed", "error", err)
			}
			break
		}
		select {
		case replies <- h.handle(ctx, msg):
		case <-done:
			return
		}
	}
	cancel()
	<-done
}

func (h *LocationSocket) handle(ctx context.Context, msg wsMessage) wsReply {
	var err error
	switch msg.Type {
	case "sample":
		if msg.Sample == nil {
			err = errors.New("sample frame without sample")
			break
		}
		err = h.location.Push(*msg.Sample)
	case "error":
		err = h.location.Fail(msg.Code)
	case "network":
		if msg.Network == nil {
			err = errors.New("network frame without network")
			break
		}
		h.location.SetNetwork(*msg.Network)
	case "session":
		_, err = h.location.Session(ctx, msg.Action)
	default:
		err = errors.New("unknown frame type " + msg.Type)
	}
	if err != nil {
		return wsReply{Type: "ack", Error: err.Error()}
	}
	return wsReply{Type: "ack", OK: true}
}

// writeLoop is the only writer on conn.
func (h *LocationSocket) writeLoop(ctx context.Context, conn *websocket.Conn, replies <-chan wsReply, events <-chan service.Event) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	write := func(v wsReply) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case r := <-replies:
			err = write(r)
		case ev, ok := <-events:
			if !ok {
				return
			}
			err = write(replyFor(ev))
		case <-ping.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
		}
		if err != nil {
			h.log.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func replyFor(ev service.Event) wsReply {
	switch ev.Kind {
	case service.KindLocation:
		return wsReply{Type: "location", Location: ev.Location}
	case service.KindError:
		return wsReply{Type: "error", Code: ev.Code, Error: ev.Message}
	default:
		return wsReply{Type: "state", State: ev.State}
	}
}
